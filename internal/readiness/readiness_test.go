package readiness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlfeuAlves/autvya/internal/metrics"
	"github.com/AlfeuAlves/autvya/internal/model"
)

func metricsWith(total, activeDays, distinctButtons int) *metrics.ChildMetrics {
	counts := make(map[string]int, distinctButtons)
	for i := 0; i < distinctButtons; i++ {
		counts[string(rune('a'+i))] = 1
	}
	return &metrics.ChildMetrics{
		TotalInteractions: total,
		ActiveDays:        activeDays,
		ButtonCounts:      counts,
	}
}

func TestCheckConnectionBoundaries(t *testing.T) {
	// Thresholds are inclusive: exactly meeting all three is ready.
	assert.True(t, Check(model.PhaseConnection, metricsWith(20, 7, 4)))

	// One short on any single dimension fails.
	assert.False(t, Check(model.PhaseConnection, metricsWith(19, 7, 4)))
	assert.False(t, Check(model.PhaseConnection, metricsWith(20, 6, 4)))
	assert.False(t, Check(model.PhaseConnection, metricsWith(20, 7, 3)))
}

func TestCheckChoiceBoundaries(t *testing.T) {
	assert.True(t, Check(model.PhaseChoice, metricsWith(40, 10, 6)))
	assert.False(t, Check(model.PhaseChoice, metricsWith(39, 10, 6)))
	assert.False(t, Check(model.PhaseChoice, metricsWith(40, 9, 6)))
	assert.False(t, Check(model.PhaseChoice, metricsWith(40, 10, 5)))
}

func TestCheckTerminalAndUnknownPhase(t *testing.T) {
	huge := metricsWith(1000, 365, 50)
	assert.False(t, Check(model.PhaseCommunication, huge))
	assert.False(t, Check(model.Phase("MYSTERY"), huge))
}

func TestCheckNilMetrics(t *testing.T) {
	assert.False(t, Check(model.PhaseConnection, nil))
}

func TestCriteriaFor(t *testing.T) {
	c, ok := CriteriaFor(model.PhaseConnection)
	require.True(t, ok)
	assert.Equal(t, Criteria{MinInteractions: 20, MinActiveDays: 7, MinDistinctButtons: 4}, c)

	c, ok = CriteriaFor(model.PhaseChoice)
	require.True(t, ok)
	assert.Equal(t, Criteria{MinInteractions: 40, MinActiveDays: 10, MinDistinctButtons: 6}, c)

	_, ok = CriteriaFor(model.PhaseCommunication)
	assert.False(t, ok)
}

func TestNext(t *testing.T) {
	next, ok := Next(model.PhaseConnection)
	require.True(t, ok)
	assert.Equal(t, model.PhaseChoice, next)

	next, ok = Next(model.PhaseChoice)
	require.True(t, ok)
	assert.Equal(t, model.PhaseCommunication, next)

	_, ok = Next(model.PhaseCommunication)
	assert.False(t, ok)
}
