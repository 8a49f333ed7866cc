package core

import (
	"math"
	"time"

	"github.com/huangsam/sensorlabel/schema"
)

// distinctTimes returns up to limit distinct timestamps in row order.
func distinctTimes(rows []schema.Row, limit int) []time.Time {
	var out []time.Time
	for _, r := range rows {
		if len(out) > 0 && out[len(out)-1].Equal(r.Time) {
			continue
		}
		out = append(out, r.Time)
		if len(out) == limit {
			break
		}
	}
	return out
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// columnValues collects the numeric values of one field across rows, skipping non-numeric cells.
func columnValues(rows []schema.Row, col int) []float64 {
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.Value(col); ok {
			values = append(values, v)
		}
	}
	return values
}

// majority returns the most frequent value, preferring the first one encountered on ties.
func majority[T comparable](values []T) T {
	var zero T
	if len(values) == 0 {
		return zero
	}
	counts := make(map[T]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best := values[0]
	for _, v := range values {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}
