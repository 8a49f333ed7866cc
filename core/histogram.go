package core

import (
	"math"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// histogram buckets each column into equal-width bins spanning the shared min and max.
// The last bin includes its upper edge.
func histogram(columns [][]float64, bins int) ([]schema.HistogramBin, int, error) {
	if bins < contract.MinBins || bins > contract.MaxBins {
		return nil, 0, contract.InvalidSelection("bins", "", "must be between %d and %d", contract.MinBins, contract.MaxBins)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	total := 0
	for _, col := range columns {
		for _, v := range col {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			total++
		}
	}
	if total == 0 {
		return nil, 0, contract.InvalidSelection("columns", "", "no numeric values to bucket")
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	width := (hi - lo) / float64(bins)
	out := make([]schema.HistogramBin, bins)
	for i := range out {
		out[i] = schema.HistogramBin{
			Lower:  lo + float64(i)*width,
			Upper:  lo + float64(i+1)*width,
			Counts: make([]int, len(columns)),
		}
	}
	out[bins-1].Upper = hi

	for c, col := range columns {
		for _, v := range col {
			idx := min(int((v-lo)/width), bins-1)
			out[idx].Counts[c]++
		}
	}
	return out, total, nil
}
