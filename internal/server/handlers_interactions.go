package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AlfeuAlves/autvya/internal/metrics"
	"github.com/AlfeuAlves/autvya/internal/model"
)

// HandleCreateInteraction handles POST /v1/interactions.
func (h *Handlers) HandleCreateInteraction(w http.ResponseWriter, r *http.Request) {
	var req model.CreateInteractionRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	if req.ChildID == uuid.Nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "child_id is required")
		return
	}
	if err := model.ValidateButton(req.Button); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	if req.SessionDurationSecs != nil && *req.SessionDurationSecs < 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "session_duration_secs must be non-negative")
		return
	}

	if _, ok := h.checkOwnership(w, r, req.ChildID); !ok {
		return
	}

	ev, err := h.db.CreateInteraction(r.Context(), model.InteractionEvent{
		ChildID:             req.ChildID,
		Button:              req.Button,
		SessionDurationSecs: req.SessionDurationSecs,
	})
	if err != nil {
		h.writeInternalError(w, r, "failed to record interaction", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, ev)
}

// HandleBatchInteractions handles POST /v1/interactions/batch.
// Events missing occurred_at default to the server clock at insert time.
func (h *Handlers) HandleBatchInteractions(w http.ResponseWriter, r *http.Request) {
	var req model.BatchInteractionsRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	if req.ChildID == uuid.Nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "child_id is required")
		return
	}
	if len(req.Interactions) == 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "interactions must not be empty")
		return
	}
	if len(req.Interactions) > model.MaxBatchEvents {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "batch exceeds maximum size")
		return
	}

	events := make([]model.InteractionEvent, len(req.Interactions))
	for i, in := range req.Interactions {
		if err := model.ValidateButton(in.Button); err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
			return
		}
		if in.SessionDurationSecs != nil && *in.SessionDurationSecs < 0 {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "session_duration_secs must be non-negative")
			return
		}
		ev := model.InteractionEvent{
			ChildID:             req.ChildID,
			Button:              in.Button,
			SessionDurationSecs: in.SessionDurationSecs,
		}
		if in.OccurredAt != nil {
			ev.OccurredAt = *in.OccurredAt
		}
		events[i] = ev
	}

	if _, ok := h.checkOwnership(w, r, req.ChildID); !ok {
		return
	}

	accepted, err := h.db.InsertInteractions(r.Context(), events)
	if err != nil {
		h.writeInternalError(w, r, "failed to insert interaction batch", err)
		return
	}

	h.logger.Info("interaction batch accepted",
		"child_id", req.ChildID.String(),
		"accepted", accepted,
	)
	writeJSON(w, r, http.StatusCreated, model.BatchInteractionsResponse{Accepted: accepted})
}

// MetricsResponse is the payload of GET /v1/children/{child_id}/metrics.
type MetricsResponse struct {
	Metrics    metrics.ChildMetrics `json:"metrics"`
	DailyUsage metrics.DailyUsage   `json:"daily_usage"`
}

// HandleChildMetrics handles GET /v1/children/{child_id}/metrics.
// The window and the daily series are computed concurrently.
func (h *Handlers) HandleChildMetrics(w http.ResponseWriter, r *http.Request) {
	child, ok := h.ownedChild(w, r)
	if !ok {
		return
	}

	resp, err := h.computeMetrics(r, child)
	if err != nil {
		h.writeInternalError(w, r, "failed to compute metrics", err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// computeMetrics derives both views concurrently, each over its own scan
// of the window.
func (h *Handlers) computeMetrics(r *http.Request, child model.Child) (MetricsResponse, error) {
	days := h.queryDays(r)
	loc := child.Location()
	since := time.Now().In(loc).AddDate(0, 0, -days)

	var resp MetricsResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		events, err := h.db.ListInteractionsSince(ctx, child.ID, since)
		if err != nil {
			return err
		}
		resp.Metrics = metrics.Compute(events, days, loc)
		return nil
	})
	g.Go(func() error {
		events, err := h.db.ListInteractionsSince(ctx, child.ID, since)
		if err != nil {
			return err
		}
		resp.DailyUsage = metrics.ComputeDailyUsage(events, loc)
		return nil
	})
	if err := g.Wait(); err != nil {
		return MetricsResponse{}, err
	}
	return resp, nil
}
