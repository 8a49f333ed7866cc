package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

func TestReadPredictions(t *testing.T) {
	preds, err := readPredictions(strings.NewReader("prediction\n0\n1\n\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "1"}, preds)

	preds, err = readPredictions(strings.NewReader("2,0.9\n0,0.8\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "0"}, preds)

	_, err = readPredictions(strings.NewReader("\n"))
	assert.True(t, contract.IsFatal(err))
}

func TestExpandBlockPredictions(t *testing.T) {
	assert.Equal(t, []string{"a", "a", "b", "b"}, expandBlockPredictions([]string{"a", "b"}, 5, 2), "the tail row is truncated")
	assert.Equal(t, []string{"a", "a", "a", "b", "b"}, expandBlockPredictions([]string{"a", "b"}, 5, 3))
	assert.Equal(t, []string{"a"}, expandBlockPredictions([]string{"a", "b"}, 1, 1))
}

func TestParseLabelMap(t *testing.T) {
	categories := []string{"Sit", "Walk"}

	m, err := parseLabelMap("0:Walk, 1:0", categories)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"0": "Walk", "1": "Sit"}, m)

	m, err = parseLabelMap("0:walk", categories)
	require.NoError(t, err)
	assert.Equal(t, "Walk", m["0"])

	tests := []struct {
		name string
		raw  string
	}{
		{"missing colon", "0Walk"},
		{"unknown label", "0:Run"},
		{"index out of range", "0:5"},
		{"duplicate code", "0:Walk,0:Sit"},
		{"duplicate label", "0:Walk,1:1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLabelMap(tt.raw, categories)
			assert.True(t, contract.IsRetryable(err))
		})
	}
}

func TestParseLabelMapWithoutCategories(t *testing.T) {
	m, err := parseLabelMap("0:Run,1:Jump", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"0": "Run", "1": "Jump"}, m)
}

func TestMapLabels(t *testing.T) {
	out, err := mapLabels([]string{"0", "1", "0"}, map[string]string{"0": "Sit", "1": "Walk"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sit", "Walk", "Sit"}, out)

	_, err = mapLabels([]string{"2"}, map[string]string{"0": "Sit"})
	assert.True(t, contract.IsRetryable(err))
}

func TestLabelRuns(t *testing.T) {
	times := []time.Time{secs(0), secs(1), secs(2), secs(3), secs(4)}
	runs := labelRuns(times, []string{"A", "A", "B", "B", "A"})
	assert.Equal(t, []schema.LabelRun{
		{Label: "A", Start: secs(0), End: secs(1), Rows: 2, Duration: 2 * time.Second},
		{Label: "B", Start: secs(2), End: secs(3), Rows: 2, Duration: 2 * time.Second},
		{Label: "A", Start: secs(4), End: secs(4), Rows: 1, Duration: 0},
	}, runs)

	assert.Empty(t, labelRuns(nil, nil))
}
