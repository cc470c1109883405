package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlfeuAlves/autvya/internal/model"
)

func ev(button string, at time.Time, duration *int) model.InteractionEvent {
	return model.InteractionEvent{
		Button:              button,
		OccurredAt:          at,
		SessionDurationSecs: duration,
	}
}

func intPtr(n int) *int { return &n }

func TestComputeEmpty(t *testing.T) {
	m := Compute(nil, 30, time.UTC)

	assert.Equal(t, 0, m.TotalInteractions)
	assert.Empty(t, m.ButtonCounts)
	assert.Nil(t, m.FavoriteButton)
	assert.Equal(t, 0, m.ActiveDays)
	assert.Equal(t, 0, m.AvgSessionDuration)
	assert.Empty(t, m.RecentSequence)
	assert.Equal(t, 30, m.Period.Days)
}

func TestComputeCountInvariant(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var events []model.InteractionEvent
	buttons := []string{"agua", "comida", "brincar", "agua", "sim", "nao", "agua"}
	for i, b := range buttons {
		events = append(events, ev(b, base.Add(time.Duration(i)*37*time.Minute), nil))
	}

	m := Compute(events, 30, time.UTC)

	assert.Equal(t, len(buttons), m.TotalInteractions)

	var byButton, byHour, byWeekday int
	for _, n := range m.ButtonCounts {
		byButton += n
	}
	for _, n := range m.UsageByHour {
		byHour += n
	}
	for _, n := range m.UsageByWeekday {
		byWeekday += n
	}
	assert.Equal(t, m.TotalInteractions, byButton)
	assert.Equal(t, m.TotalInteractions, byHour)
	assert.Equal(t, m.TotalInteractions, byWeekday)
}

func TestComputeFavoriteFirstToReachMax(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// Alternating ties: A, B, A, B. A reaches every count first and keeps
	// the lead because an equal count never displaces the incumbent.
	events := []model.InteractionEvent{
		ev("A", base, nil),
		ev("B", base.Add(1*time.Minute), nil),
		ev("A", base.Add(2*time.Minute), nil),
		ev("B", base.Add(3*time.Minute), nil),
	}
	m := Compute(events, 7, time.UTC)
	require.NotNil(t, m.FavoriteButton)
	assert.Equal(t, "A", *m.FavoriteButton)

	// B overtakes with a strictly greater count.
	events = append(events, ev("B", base.Add(4*time.Minute), nil))
	m = Compute(events, 7, time.UTC)
	require.NotNil(t, m.FavoriteButton)
	assert.Equal(t, "B", *m.FavoriteButton)
}

func TestComputeFavoriteOrderIndependent(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// Same events delivered out of order must produce the same favorite.
	events := []model.InteractionEvent{
		ev("B", base.Add(3*time.Minute), nil),
		ev("A", base, nil),
		ev("B", base.Add(1*time.Minute), nil),
		ev("A", base.Add(2*time.Minute), nil),
	}
	m := Compute(events, 7, time.UTC)
	require.NotNil(t, m.FavoriteButton)
	assert.Equal(t, "A", *m.FavoriteButton)
}

func TestComputeActiveDaysAndBuckets(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	// 2026-03-01 23:30 in São Paulo is 2026-03-02 02:30 UTC. Bucketing in
	// the child's location must keep it on March 1st.
	late := time.Date(2026, 3, 2, 2, 30, 0, 0, time.UTC)
	morning := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	events := []model.InteractionEvent{
		ev("agua", late, nil),
		ev("agua", morning, nil),
	}

	m := Compute(events, 7, loc)
	assert.Equal(t, 2, m.ActiveDays)
	assert.Equal(t, 1, m.UsageByHour[23])
	assert.Equal(t, 1, m.UsageByHour[9])

	// March 1st 2026 is a Sunday (index 0), March 2nd a Monday.
	assert.Equal(t, 1, m.UsageByWeekday[0])
	assert.Equal(t, 1, m.UsageByWeekday[1])

	utc := Compute(events, 7, time.UTC)
	assert.Equal(t, 1, utc.ActiveDays)
}

func TestComputeAvgSessionDuration(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// Mean of 10 and 11 rounds half away from zero to 11. The nil duration
	// is absent, not zero, and must not drag the mean down.
	events := []model.InteractionEvent{
		ev("agua", base, intPtr(10)),
		ev("comida", base.Add(time.Minute), intPtr(11)),
		ev("brincar", base.Add(2*time.Minute), nil),
	}
	m := Compute(events, 7, time.UTC)
	assert.Equal(t, 11, m.AvgSessionDuration)

	noDurations := Compute([]model.InteractionEvent{ev("agua", base, nil)}, 7, time.UTC)
	assert.Equal(t, 0, noDurations.AvgSessionDuration)
}

func TestComputeRecentSequenceCap(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var events []model.InteractionEvent
	for i := 0; i < RecentSequenceCap+10; i++ {
		events = append(events, ev("agua", base.Add(time.Duration(i)*time.Second), nil))
	}

	m := Compute(events, 7, time.UTC)
	require.Len(t, m.RecentSequence, RecentSequenceCap)

	// The sequence is the trailing events in chronological order.
	first := m.RecentSequence[0]
	last := m.RecentSequence[len(m.RecentSequence)-1]
	assert.Equal(t, base.Add(10*time.Second), first.Timestamp)
	assert.Equal(t, base.Add(59*time.Second), last.Timestamp)
}

func TestComputePeriod(t *testing.T) {
	m := Compute(nil, 14, time.UTC)
	assert.Equal(t, 14, m.Period.Days)
	assert.Equal(t, m.Period.End.AddDate(0, 0, -14), m.Period.Start)
}

func TestComputeDailyUsage(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	events := []model.InteractionEvent{
		ev("agua", base, nil),
		ev("comida", base.Add(time.Hour), nil),
		ev("agua", base.AddDate(0, 0, 3), nil),
	}

	usage := ComputeDailyUsage(events, time.UTC)
	require.Len(t, usage, 2)
	assert.Equal(t, 2, usage["2026-03-02"])
	assert.Equal(t, 1, usage["2026-03-05"])

	// Sparse: the quiet days in between never appear.
	_, ok := usage["2026-03-03"]
	assert.False(t, ok)

	assert.Empty(t, ComputeDailyUsage(nil, time.UTC))
}
