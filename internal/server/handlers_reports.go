package server

import (
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AlfeuAlves/autvya/internal/metrics"
	"github.com/AlfeuAlves/autvya/internal/model"
	"github.com/AlfeuAlves/autvya/internal/readiness"
)

// recentEventsLimit bounds the raw event list included in a full report.
const recentEventsLimit = 100

// ReadinessResponse is the payload of GET /v1/children/{child_id}/readiness.
type ReadinessResponse struct {
	Ready     bool                `json:"ready"`
	Phase     model.Phase         `json:"phase"`
	NextPhase *model.Phase        `json:"next_phase,omitempty"`
	Criteria  *readiness.Criteria `json:"criteria,omitempty"`
}

// HandleChildReadiness handles GET /v1/children/{child_id}/readiness.
func (h *Handlers) HandleChildReadiness(w http.ResponseWriter, r *http.Request) {
	child, ok := h.ownedChild(w, r)
	if !ok {
		return
	}

	days := h.queryDays(r)
	loc := child.Location()
	since := time.Now().In(loc).AddDate(0, 0, -days)

	events, err := h.db.ListInteractionsSince(r.Context(), child.ID, since)
	if err != nil {
		h.writeInternalError(w, r, "failed to load interactions", err)
		return
	}

	m := metrics.Compute(events, days, loc)
	resp := ReadinessResponse{
		Ready: readiness.Check(child.Phase, &m),
		Phase: child.Phase,
	}
	if next, ok := readiness.Next(child.Phase); ok {
		resp.NextPhase = &next
	}
	if c, ok := readiness.CriteriaFor(child.Phase); ok {
		resp.Criteria = &c
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// ReportResponse is the payload of GET /v1/children/{child_id}/report.
type ReportResponse struct {
	Child        model.Child              `json:"child"`
	Metrics      metrics.ChildMetrics     `json:"metrics"`
	DailyUsage   metrics.DailyUsage       `json:"daily_usage"`
	RecentEvents []model.InteractionEvent `json:"recent_events"`
}

// HandleChildReport handles GET /v1/children/{child_id}/report.
func (h *Handlers) HandleChildReport(w http.ResponseWriter, r *http.Request) {
	child, ok := h.ownedChild(w, r)
	if !ok {
		return
	}

	computed, err := h.computeMetrics(r, child)
	if err != nil {
		h.writeInternalError(w, r, "failed to compute metrics", err)
		return
	}

	recent, err := h.db.ListRecentInteractions(r.Context(), child.ID, recentEventsLimit)
	if err != nil {
		h.writeInternalError(w, r, "failed to load recent interactions", err)
		return
	}

	writeJSON(w, r, http.StatusOK, ReportResponse{
		Child:        child,
		Metrics:      computed.Metrics,
		DailyUsage:   computed.DailyUsage,
		RecentEvents: recent,
	})
}

// SummaryRow is one child's line in GET /v1/reports/summary.
type SummaryRow struct {
	Child             model.Child `json:"child"`
	TotalInteractions int64       `json:"total_interactions"`
	LastWeekCount     int         `json:"last_week_count"`
	ActiveDays        int         `json:"active_days"`
	FavoriteButton    *string     `json:"favorite_button"`
}

// HandleReportsSummary handles GET /v1/reports/summary: a 7-day snapshot
// of every child on the account, assembled concurrently per child.
func (h *Handlers) HandleReportsSummary(w http.ResponseWriter, r *http.Request) {
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

	const summaryDays = 7
	rows := make([]SummaryRow, len(children))

	g, ctx := errgroup.WithContext(r.Context())
	for i, c := range children {
		g.Go(func() error {
			loc := c.Location()
			since := time.Now().In(loc).AddDate(0, 0, -summaryDays)
			events, err := h.db.ListInteractionsSince(ctx, c.ID, since)
			if err != nil {
				return err
			}
			m := metrics.Compute(events, summaryDays, loc)
			rows[i] = SummaryRow{
				Child:             c.Child,
				TotalInteractions: c.InteractionCount,
				LastWeekCount:     m.TotalInteractions,
				ActiveDays:        m.ActiveDays,
				FavoriteButton:    m.FavoriteButton,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.writeInternalError(w, r, "failed to build summary", err)
		return
	}

	writeJSON(w, r, http.StatusOK, rows)
}
