package core

import (
	"math/rand/v2"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// minDownsampleFrequency is the lowest per-second frequency that may be thinned.
const minDownsampleFrequency = 5

// robustScale centres each numeric column on its median and divides by the interquartile range.
// Columns with a zero range are only centred.
func robustScale(s *schema.Series) *schema.Series {
	out := s.Clone()
	for _, col := range out.NumericCols {
		values := columnValues(out.Rows, col)
		if len(values) == 0 {
			continue
		}
		median, err := stats.Median(values)
		if err != nil {
			continue
		}
		iqr := 0.0
		if len(values) > 1 {
			if q, err := stats.InterQuartileRange(values); err == nil {
				iqr = q
			}
		}
		for i := range out.Rows {
			v, ok := out.Rows[i].Value(col)
			if !ok {
				continue
			}
			scaled := v - median
			if iqr != 0 {
				scaled /= iqr
			}
			out.Rows[i].SetValue(col, scaled)
		}
	}
	return out
}

// keepPerSecond thins second-granular data to at most perSec rows per timestamp,
// choosing rows at random while keeping their order.
func keepPerSecond(s *schema.Series, perSec int, rng *rand.Rand) (*schema.Series, error) {
	if s.Granularity != schema.SecondGranularity || s.Frequency <= minDownsampleFrequency {
		return s, nil
	}
	if perSec < contract.MinPerSecond || perSec > s.Frequency {
		return nil, contract.InvalidSelection("per-second", strconv.Itoa(perSec), "must be between %d and %d", contract.MinPerSecond, s.Frequency)
	}

	var rows []schema.Row
	for start := 0; start < s.Len(); {
		end := start
		for end < s.Len() && s.Rows[end].Time.Equal(s.Rows[start].Time) {
			end++
		}
		group := s.Rows[start:end]
		if len(group) <= perSec {
			rows = append(rows, group...)
		} else {
			picked := rng.Perm(len(group))[:perSec]
			sort.Ints(picked)
			for _, p := range picked {
				rows = append(rows, group[p])
			}
		}
		start = end
	}

	out := s.WithRows(rows)
	out.Frequency = perSec
	return out, nil
}
