package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUniqueLabels(t *testing.T) {
	assert.Equal(t, []string{"Walk", "Sit", "Run"}, UniqueLabels([]string{"Walk", "Walk", "Sit", "Walk", "Run"}))
	assert.Nil(t, UniqueLabels(nil))
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , b ,,c ", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitList(tt.in), tt.in)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00:00"},
		{59 * time.Second, "0:00:59"},
		{61 * time.Minute, "1:01:00"},
		{25*time.Hour + 5*time.Second, "25:00:05"},
		{-90 * time.Second, "-0:01:30"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
	}
}

func TestToSliceRecords(t *testing.T) {
	start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	recs := ToSliceRecords(7, []SummaryRecord{
		{Index: 0, Label: "Walk", Start: start, Duration: 2 * time.Minute, Rows: 120, Subject: "S01"},
		{Index: 1, Label: "Sit", Start: start.Add(2 * time.Minute), Duration: time.Minute, Rows: 60},
	})
	assert.Len(t, recs, 2)
	assert.Equal(t, int64(7), recs[0].RunID)
	assert.Equal(t, int64(120000), recs[0].DurationMs)
	if assert.NotNil(t, recs[0].Subject) {
		assert.Equal(t, "S01", *recs[0].Subject)
	}
	assert.Nil(t, recs[1].Subject)
	assert.Nil(t, recs[1].Location)
}

func TestGranularityUnit(t *testing.T) {
	assert.Equal(t, time.Second, SecondGranularity.Unit())
	assert.Equal(t, time.Minute, MinuteGranularity.Unit())
	assert.Equal(t, 600, RowsPerMinute(SecondGranularity, 10))
	assert.Equal(t, 10, RowsPerMinute(MinuteGranularity, 10))
}
