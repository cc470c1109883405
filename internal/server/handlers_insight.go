package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/AlfeuAlves/autvya/internal/insight"
	"github.com/AlfeuAlves/autvya/internal/metrics"
	"github.com/AlfeuAlves/autvya/internal/model"
)

// minInsightInteractions is the floor below which an analysis request is
// rejected: the model has nothing meaningful to say about a handful of taps.
const minInsightInteractions = 5

// HandleGenerateInsight handles POST /v1/insights.
func (h *Handlers) HandleGenerateInsight(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeInternalError, "insight generation is not configured")
		return
	}

	var req model.GenerateInsightRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	if req.ChildID == uuid.Nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "child_id is required")
		return
	}

	child, ok := h.checkOwnership(w, r, req.ChildID)
	if !ok {
		return
	}

	days := req.Days
	if days <= 0 {
		days = h.insightDays
	}
	if days > h.maxDays {
		days = h.maxDays
	}

	loc := child.Location()
	since := time.Now().In(loc).AddDate(0, 0, -days)
	events, err := h.db.ListInteractionsSince(r.Context(), child.ID, since)
	if err != nil {
		h.writeInternalError(w, r, "failed to load interactions", err)
		return
	}

	m := metrics.Compute(events, days, loc)
	if m.TotalInteractions < minInsightInteractions {
		writeError(w, r, http.StatusUnprocessableEntity, model.ErrCodeUnprocessable,
			"not enough interaction data for analysis")
		return
	}

	prompt := insight.BuildPrompt(child, m)
	raw, err := h.generator.Generate(r.Context(), insight.SystemPrompt, prompt)
	if err != nil {
		if insight.IsRateLimited(err) {
			writeError(w, r, http.StatusTooManyRequests, model.ErrCodeRateLimited,
				"analysis service is rate limited, try again later")
			return
		}
		h.writeInternalError(w, r, "failed to generate insight", err)
		return
	}

	result, source := insight.Parse(raw)
	if source == insight.SourceFallback {
		h.logger.Warn("insight response was not structured JSON",
			"child_id", child.ID.String(),
			"request_id", RequestIDFromContext(r.Context()),
		)
	}

	writeJSON(w, r, http.StatusOK, insight.Report{
		Insight:     result,
		Source:      source,
		GeneratedAt: time.Now().UTC(),
	})
}
