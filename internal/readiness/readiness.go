// Package readiness evaluates whether a child's recent usage suggests
// they are ready to advance to the next communication phase.
//
// Readiness is advisory only. The evaluator never changes a child's phase;
// advancing is always an explicit caregiver decision through the API.
package readiness

import (
	"github.com/AlfeuAlves/autvya/internal/metrics"
	"github.com/AlfeuAlves/autvya/internal/model"
)

// Criteria is the threshold set for one phase transition. All three
// thresholds must be met simultaneously.
type Criteria struct {
	MinInteractions    int `json:"min_interactions"`
	MinActiveDays      int `json:"min_active_days"`
	MinDistinctButtons int `json:"min_distinct_buttons"`
}

// criteria maps the current phase to the thresholds for advancing out of
// it. COMMUNICATION is terminal and has no entry.
var criteria = map[model.Phase]Criteria{
	model.PhaseConnection: {MinInteractions: 20, MinActiveDays: 7, MinDistinctButtons: 4},
	model.PhaseChoice:     {MinInteractions: 40, MinActiveDays: 10, MinDistinctButtons: 6},
}

// CriteriaFor returns the thresholds for advancing out of phase. The
// second return is false for the terminal phase and unknown values.
func CriteriaFor(phase model.Phase) (Criteria, bool) {
	c, ok := criteria[phase]
	return c, ok
}

// Check reports whether the metrics satisfy every threshold for advancing
// out of phase. The terminal phase and nil metrics are never ready.
// Distinct buttons are the unique keys of ButtonCounts.
func Check(phase model.Phase, m *metrics.ChildMetrics) bool {
	c, ok := criteria[phase]
	if !ok || m == nil {
		return false
	}
	return m.TotalInteractions >= c.MinInteractions &&
		m.ActiveDays >= c.MinActiveDays &&
		len(m.ButtonCounts) >= c.MinDistinctButtons
}

// Next returns the phase that follows phase, or false for the terminal
// phase and unknown values.
func Next(phase model.Phase) (model.Phase, bool) {
	switch phase {
	case model.PhaseConnection:
		return model.PhaseChoice, true
	case model.PhaseChoice:
		return model.PhaseCommunication, true
	default:
		return "", false
	}
}
