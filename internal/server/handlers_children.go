package server

import (
	"net/http"

	"github.com/AlfeuAlves/autvya/internal/model"
)

// HandleListChildren handles GET /v1/children.
func (h *Handlers) HandleListChildren(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "no claims in context")
		return
	}

	children, err := h.db.ListChildren(r.Context(), claims.UserID)
	if err != nil {
		h.writeInternalError(w, r, "failed to list children", err)
		return
	}
	writeJSON(w, r, http.StatusOK, children)
}

// HandleCreateChild handles POST /v1/children.
func (h *Handlers) HandleCreateChild(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "no claims in context")
		return
	}

	var req model.CreateChildRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	if err := model.ValidateCreateChild(req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	child, err := h.db.CreateChild(r.Context(), model.Child{
		UserID:        claims.UserID,
		Name:          req.Name,
		Age:           req.Age,
		Timezone:      req.Timezone,
		SensoryConfig: req.SensoryConfig,
	})
	if err != nil {
		h.writeInternalError(w, r, "failed to create child", err)
		return
	}

	h.logger.Info("child profile created", "child_id", child.ID.String(), "user_id", claims.UserID.String())
	writeJSON(w, r, http.StatusCreated, child)
}

// HandleGetChild handles GET /v1/children/{child_id}.
func (h *Handlers) HandleGetChild(w http.ResponseWriter, r *http.Request) {
	child, ok := h.ownedChild(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, child)
}

// HandleUpdateChild handles PATCH /v1/children/{child_id}.
// Only fields present in the body change; a phase change is an explicit
// caregiver decision, readiness signals never apply one automatically.
func (h *Handlers) HandleUpdateChild(w http.ResponseWriter, r *http.Request) {
	child, ok := h.ownedChild(w, r)
	if !ok {
		return
	}

	var req model.UpdateChildRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	if req.Name != nil {
		if *req.Name == "" || len(*req.Name) > model.MaxNameLen {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid name")
			return
		}
		child.Name = *req.Name
	}
	if req.Age != nil {
		if *req.Age < 0 || *req.Age > model.MaxChildAge {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid age")
			return
		}
		child.Age = *req.Age
	}
	if req.Phase != nil {
		if !model.ValidPhase(*req.Phase) {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid phase")
			return
		}
		child.Phase = *req.Phase
	}
	if req.Timezone != nil {
		if err := model.ValidateTimezone(*req.Timezone); err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
			return
		}
		child.Timezone = *req.Timezone
	}
	if req.SensoryConfig != nil {
		child.SensoryConfig = req.SensoryConfig
	}

	updated, err := h.db.UpdateChild(r.Context(), child)
	if err != nil {
		writeStorageError(w, r, h.logger, "child", err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

// HandleDeleteChild handles DELETE /v1/children/{child_id}.
func (h *Handlers) HandleDeleteChild(w http.ResponseWriter, r *http.Request) {
	child, ok := h.ownedChild(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteChild(r.Context(), child.ID); err != nil {
		writeStorageError(w, r, h.logger, "child", err)
		return
	}

	h.logger.Info("child profile deleted", "child_id", child.ID.String())
	w.WriteHeader(http.StatusNoContent)
}
