package core

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// physioOptions controls block-based spike replacement.
type physioOptions struct {
	Mode      schema.BlockMode
	BlockSize int     // Seconds or records, depending on Mode
	Percent   float64 // Change threshold between a block and the one two before it
	Column    int     // Field index of the signal
}

// physioBlocks splits rows into consecutive index ranges [start, end).
func physioBlocks(rows []schema.Row, mode schema.BlockMode, size int) [][2]int {
	var blocks [][2]int
	start := 0
	for i := 1; i <= len(rows); i++ {
		if i < len(rows) && sameBlock(rows[start], rows[i], i-start, mode, size) {
			continue
		}
		blocks = append(blocks, [2]int{start, i})
		start = i
	}
	return blocks
}

func sameBlock(first, cur schema.Row, n int, mode schema.BlockMode, size int) bool {
	switch mode {
	case schema.SecondsBlocks:
		return cur.Time.Sub(first.Time) < time.Duration(size)*time.Second
	case schema.RecordBlocks:
		return n < size
	default:
		return cur.Time.Truncate(time.Minute).Equal(first.Time.Truncate(time.Minute))
	}
}

// preprocessPhysio compares each block's mean with the block two before it. When the relative
// change exceeds the threshold, the block in between is overwritten with the current block's
// values, row by row. Means are taken from the unmodified data.
func preprocessPhysio(s *schema.Series, opts physioOptions) (*schema.Series, []schema.PhysioChange, error) {
	if opts.Percent < contract.MinPercent || opts.Percent > contract.MaxPercent {
		return nil, nil, contract.InvalidSelection("percent", "", "must be between %.0f and %.0f", contract.MinPercent, contract.MaxPercent)
	}
	if s.Len() == 0 {
		return nil, nil, contract.Malformed(s.Name, "no rows to preprocess")
	}
	if _, ok := s.Rows[0].Value(opts.Column); !ok {
		return nil, nil, contract.InvalidSelection("target column", s.Header[min(opts.Column+1, len(s.Header)-1)], "column is not numeric")
	}

	blocks := physioBlocks(s.Rows, opts.Mode, opts.BlockSize)
	means := make([]float64, len(blocks))
	for i, b := range blocks {
		m, err := stats.Mean(columnValues(s.Rows[b[0]:b[1]], opts.Column))
		if err != nil {
			m = math.NaN()
		}
		means[i] = m
	}

	out := s.Clone()
	var changes []schema.PhysioChange
	for b := 2; b < len(blocks); b++ {
		ref, cur := means[b-2], means[b]
		if !(ref > 0) || math.IsNaN(cur) {
			continue
		}
		pct := math.Abs(cur-ref) / ref * 100
		if pct <= opts.Percent {
			continue
		}
		prev, now := blocks[b-1], blocks[b]
		for j := prev[0]; j < prev[1]; j++ {
			src := min(now[0]+(j-prev[0]), now[1]-1)
			if v, ok := s.Rows[src].Value(opts.Column); ok {
				out.Rows[j].SetValue(opts.Column, v)
			}
		}
		changes = append(changes, schema.PhysioChange{
			BlockIndex:    b - 1,
			BlockStart:    s.Rows[prev[0]].Time,
			Rows:          prev[1] - prev[0],
			PercentChange: round2(pct),
		})
	}
	if len(changes) == 0 {
		return out, nil, contract.ErrNoChange
	}
	return out, changes, nil
}
