package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/sensorlabel/internal/contract"
)

func TestHistogram(t *testing.T) {
	bins, total, err := histogram([][]float64{{0, 1, 2}, {3, 4}}, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, bins, 2)
	assert.Equal(t, 0.0, bins[0].Lower)
	assert.Equal(t, 2.0, bins[0].Upper)
	assert.Equal(t, 4.0, bins[1].Upper)
	assert.Equal(t, []int{2, 0}, bins[0].Counts)
	assert.Equal(t, []int{1, 2}, bins[1].Counts, "upper edge lands in the last bin")
}

func TestHistogramCountsEveryValue(t *testing.T) {
	col := []float64{-3.5, 0.1, 2, 2, 9.99, 10}
	bins, total, err := histogram([][]float64{col}, 7)
	require.NoError(t, err)
	sum := 0
	for _, b := range bins {
		sum += b.Counts[0]
	}
	assert.Equal(t, len(col), sum)
	assert.Equal(t, total, sum)
}

func TestHistogramDegenerate(t *testing.T) {
	bins, _, err := histogram([][]float64{{5, 5}}, 2)
	require.NoError(t, err)
	assert.Equal(t, 4.5, bins[0].Lower)
	assert.Equal(t, 5.5, bins[1].Upper)
	assert.Equal(t, 2, bins[0].Counts[0]+bins[1].Counts[0])
}

func TestHistogramErrors(t *testing.T) {
	_, _, err := histogram([][]float64{{1}}, 1)
	assert.True(t, contract.IsRetryable(err))
	_, _, err = histogram([][]float64{{1}}, 101)
	assert.True(t, contract.IsRetryable(err))
	_, _, err = histogram([][]float64{{}}, 10)
	assert.True(t, contract.IsRetryable(err))
}
