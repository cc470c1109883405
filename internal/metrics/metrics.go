// Package metrics aggregates raw interaction events into the derived
// usage views served by the API: per-child metrics over a rolling window
// and a sparse daily usage series.
//
// All functions are pure over their inputs. Callers are expected to
// pre-filter events by child and window; the aggregator only buckets and
// counts. Time bucketing (active days, hour of day, weekday, daily usage)
// is done in the supplied location so that a session recorded late in the
// evening in São Paulo does not land on the next UTC day.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/AlfeuAlves/autvya/internal/model"
)

// RecentSequenceCap bounds how many trailing events are kept in
// ChildMetrics.RecentSequence.
const RecentSequenceCap = 50

// ChildMetrics is the aggregated usage view for one child over a window.
//
// Invariant: TotalInteractions equals the sum over ButtonCounts, the sum
// over UsageByHour and the sum over UsageByWeekday.
type ChildMetrics struct {
	TotalInteractions  int            `json:"total_interactions"`
	ButtonCounts       map[string]int `json:"button_counts"`
	FavoriteButton     *string        `json:"favorite_button"`
	ActiveDays         int            `json:"active_days"`
	UsageByHour        [24]int        `json:"usage_by_hour"`
	UsageByWeekday     [7]int         `json:"usage_by_weekday"`
	AvgSessionDuration int            `json:"average_session_duration_secs"`
	RecentSequence     []SequenceItem `json:"recent_sequence"`
	Period             Period         `json:"period"`
}

// SequenceItem is one entry of the trailing interaction sequence.
type SequenceItem struct {
	Button    string    `json:"button"`
	Timestamp time.Time `json:"timestamp"`
}

// Period describes the aggregation window.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// DailyUsage maps an ISO date (YYYY-MM-DD, in the child's location) to the
// number of interactions on that date. Dates with no activity are absent.
type DailyUsage map[string]int

// Compute aggregates events into ChildMetrics. Events may arrive in any
// order; they are bucketed chronologically so that the favorite button is
// the first to reach the maximum count. A later button with an equal count
// never displaces the incumbent leader.
//
// Empty input yields zero counts, a nil favorite and an empty sequence.
func Compute(events []model.InteractionEvent, windowDays int, loc *time.Location) ChildMetrics {
	if loc == nil {
		loc = time.UTC
	}

	ordered := make([]model.InteractionEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
	})

	m := ChildMetrics{
		ButtonCounts:   make(map[string]int, 16),
		RecentSequence: []SequenceItem{},
	}

	var (
		favorite    string
		favoriteMax int
		days        = make(map[string]struct{})
		durationSum int
		durationN   int
	)

	for _, ev := range ordered {
		m.TotalInteractions++

		m.ButtonCounts[ev.Button]++
		if m.ButtonCounts[ev.Button] > favoriteMax {
			favoriteMax = m.ButtonCounts[ev.Button]
			favorite = ev.Button
		}

		local := ev.OccurredAt.In(loc)
		days[local.Format("2006-01-02")] = struct{}{}
		m.UsageByHour[local.Hour()]++
		m.UsageByWeekday[int(local.Weekday())]++

		if ev.SessionDurationSecs != nil {
			durationSum += *ev.SessionDurationSecs
			durationN++
		}
	}

	m.ActiveDays = len(days)
	if favoriteMax > 0 {
		m.FavoriteButton = &favorite
	}
	if durationN > 0 {
		m.AvgSessionDuration = int(math.Round(float64(durationSum) / float64(durationN)))
	}

	start := len(ordered) - RecentSequenceCap
	if start < 0 {
		start = 0
	}
	for _, ev := range ordered[start:] {
		m.RecentSequence = append(m.RecentSequence, SequenceItem{
			Button:    ev.Button,
			Timestamp: ev.OccurredAt,
		})
	}

	end := time.Now().In(loc)
	m.Period = Period{
		Start: end.AddDate(0, 0, -windowDays),
		End:   end,
		Days:  windowDays,
	}
	return m
}

// ComputeDailyUsage buckets events by calendar date in the given location.
// The result is sparse: a date appears only if at least one event fell on it.
func ComputeDailyUsage(events []model.InteractionEvent, loc *time.Location) DailyUsage {
	if loc == nil {
		loc = time.UTC
	}
	usage := make(DailyUsage, len(events)/4+1)
	for _, ev := range events {
		usage[ev.OccurredAt.In(loc).Format("2006-01-02")]++
	}
	return usage
}
