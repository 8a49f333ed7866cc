package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

func TestBuildIntervals(t *testing.T) {
	points := []time.Time{secs(0), secs(3), secs(6), secs(9)}
	intervals, err := buildIntervals(points, []string{"Walk", "Other", "Sit"})
	require.NoError(t, err)
	require.Len(t, intervals, 3)
	assert.Equal(t, schema.Interval{Start: secs(3), End: secs(6), Label: "Other"}, intervals[1])
	assert.True(t, intervals[1].IsOther())
	assert.False(t, intervals[2].IsOther())
}

func TestBuildIntervalsRejects(t *testing.T) {
	tests := []struct {
		name   string
		points []time.Time
		labels []string
	}{
		{"one point", []time.Time{secs(0)}, nil},
		{"not increasing", []time.Time{secs(0), secs(5), secs(5)}, []string{"a", "b"}},
		{"decreasing", []time.Time{secs(5), secs(0)}, []string{"a"}},
		{"label count", []time.Time{secs(0), secs(5), secs(9)}, []string{"a"}},
		{"empty label", []time.Time{secs(0), secs(5)}, []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildIntervals(tt.points, tt.labels)
			assert.True(t, contract.IsRetryable(err))
		})
	}
}

func TestAlternateLabels(t *testing.T) {
	got, err := alternateLabels([]string{"Walk", "Sit", "Run"}, 5, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Walk", "Other", "Sit", "Other", "Run"}, got)

	got, err = alternateLabels([]string{"Walk", "Sit"}, 5, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Other", "Walk", "Other", "Sit", "Other"}, got)

	got, err = alternateLabels([]string{"Walk", "Sit"}, 4, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Walk", "Other", "Sit", "Other"}, got)

	_, err = alternateLabels([]string{"Walk"}, 4, false)
	assert.True(t, contract.IsRetryable(err))
}

func TestLabelSlots(t *testing.T) {
	assert.Equal(t, 5, labelSlots(5, false, false))
	assert.Equal(t, 3, labelSlots(5, true, false))
	assert.Equal(t, 2, labelSlots(5, true, true))
	assert.Equal(t, 2, labelSlots(4, true, true))
}

func TestClipToIntervals(t *testing.T) {
	s := regularSeries(t0, 10, 1)
	intervals := []schema.Interval{{Start: secs(2), End: secs(4), Label: "a"}, {Start: secs(4), End: secs(6), Label: "b"}}
	clipped := clipToIntervals(s, intervals)
	assert.Equal(t, 5, clipped.Len())
	assert.Equal(t, secs(2), clipped.First())
	assert.Equal(t, secs(6), clipped.Last())
	assert.Equal(t, 0, clipToIntervals(s, nil).Len())
}
