package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/AlfeuAlves/autvya/internal/auth"
	"github.com/AlfeuAlves/autvya/internal/insight"
	"github.com/AlfeuAlves/autvya/internal/model"
	"github.com/AlfeuAlves/autvya/internal/storage"
)

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	db                  *storage.DB
	jwtMgr              *auth.JWTManager
	generator           insight.Generator
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64
	defaultDays         int
	maxDays             int
	insightDays         int
}

// HandlersDeps holds all dependencies for constructing Handlers.
// Generator may be nil when insight generation is disabled.
type HandlersDeps struct {
	DB                  *storage.DB
	JWTMgr              *auth.JWTManager
	Generator           insight.Generator
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
	DefaultDays         int
	MaxDays             int
	InsightDays         int
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		db:                  d.DB,
		jwtMgr:              d.JWTMgr,
		generator:           d.Generator,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
		defaultDays:         d.DefaultDays,
		maxDays:             d.MaxDays,
		insightDays:         d.InsightDays,
	}
}

// HandleRegister handles POST /auth/register.
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	if err := model.ValidateRegister(req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.writeInternalError(w, r, "failed to hash password", err)
		return
	}

	now := time.Now().UTC()
	user, err := h.db.CreateUser(r.Context(), model.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		ConsentAt:    &now,
	})
	if err != nil {
		writeStorageError(w, r, h.logger, "account", err)
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken(user)
	if err != nil {
		h.writeInternalError(w, r, "failed to issue token", err)
		return
	}

	h.logger.Info("account registered", "user_id", user.ID.String())
	writeJSON(w, r, http.StatusCreated, model.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// HandleLogin handles POST /auth/login. Unknown emails still burn a dummy
// hash so response timing does not reveal which addresses exist.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	user, err := h.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			auth.DummyVerify()
			writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
			return
		}
		h.writeInternalError(w, r, "failed to look up account", err)
		return
	}

	valid, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !valid {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken(user)
	if err != nil {
		h.writeInternalError(w, r, "failed to issue token", err)
		return
	}

	writeJSON(w, r, http.StatusOK, model.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	pgStatus := "connected"
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.Ping(r.Context()); err != nil {
		pgStatus = "disconnected"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, r, httpStatus, model.HealthResponse{
		Status:   status,
		Version:  h.version,
		Postgres: pgStatus,
		Uptime:   int64(time.Since(h.startedAt).Seconds()),
	})
}

// writeInternalError logs the underlying error and writes a generic 500.
func (h *Handlers) writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, "error", err, "request_id", RequestIDFromContext(r.Context()))
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
}

// ownedChild loads the child from the {child_id} path segment and verifies
// it belongs to the authenticated caregiver. Writes the error response and
// returns false when it does not.
func (h *Handlers) ownedChild(w http.ResponseWriter, r *http.Request) (model.Child, bool) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "no claims in context")
		return model.Child{}, false
	}

	childID, err := uuid.Parse(r.PathValue("child_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid child id")
		return model.Child{}, false
	}

	child, err := h.db.GetChild(r.Context(), childID)
	if err != nil {
		writeStorageError(w, r, h.logger, "child", err)
		return model.Child{}, false
	}

	if child.UserID != claims.UserID {
		writeError(w, r, http.StatusForbidden, model.ErrCodeForbidden, "child belongs to another account")
		return model.Child{}, false
	}
	return child, true
}

// checkOwnership verifies the child identified by id belongs to the caller.
// Used by the interaction endpoints where the child ID arrives in the body.
func (h *Handlers) checkOwnership(w http.ResponseWriter, r *http.Request, id uuid.UUID) (model.Child, bool) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "no claims in context")
		return model.Child{}, false
	}

	child, err := h.db.GetChild(r.Context(), id)
	if err != nil {
		writeStorageError(w, r, h.logger, "child", err)
		return model.Child{}, false
	}
	if child.UserID != claims.UserID {
		writeError(w, r, http.StatusForbidden, model.ErrCodeForbidden, "child belongs to another account")
		return model.Child{}, false
	}
	return child, true
}

// queryDays reads the ?days parameter, clamped to [1, maxDays].
func (h *Handlers) queryDays(r *http.Request) int {
	days := h.defaultDays
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	if days < 1 {
		days = 1
	}
	if days > h.maxDays {
		days = h.maxDays
	}
	return days
}
