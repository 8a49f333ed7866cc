package core

import (
	"math"

	"github.com/huangsam/sensorlabel/schema"
)

// emitOptions controls derived columns during labelling.
type emitOptions struct {
	RMSCols []int // Field indices combined into an RMS column; empty disables it
}

// emitLabelled walks rows and intervals together and produces labelled output rows.
//
// Rows in Other intervals are dropped. The first row emitted after a dropped span is
// stamped one unit after the last emitted row; from then on rows advance by one unit
// whenever their raw timestamp changes, so the output timeline has no gaps.
func emitLabelled(s *schema.Series, intervals []schema.Interval, opts emitOptions) schema.EmitResult {
	res := schema.EmitResult{Header: labelledHeader(s.Header, len(opts.RMSCols) > 0)}
	if len(intervals) == 0 {
		res.Transitions = schema.TransitionIndex{0, schema.TransitionSentinel}
		return res
	}

	unit := s.Granularity.Unit()
	trans := schema.TransitionIndex{0}
	iv := 0
	rebasing, inSkip := false, false
	var lastEmitted, prevRaw = s.First(), s.First()

	for _, row := range s.Rows {
		for iv < len(intervals)-1 && !row.Time.Before(intervals[iv].End) {
			iv++
		}
		label := intervals[iv].Label

		if label == schema.OtherLabel {
			if len(res.Rows) > 0 {
				inSkip, rebasing = true, true
			}
			res.Dropped++
			prevRaw = row.Time
			continue
		}

		ts := row.Time
		switch {
		case len(res.Rows) == 0:
		case inSkip:
			ts = lastEmitted.Add(unit)
		case rebasing && row.Time.Equal(prevRaw):
			ts = lastEmitted
		case rebasing:
			ts = lastEmitted.Add(unit)
		}
		if !ts.Equal(row.Time) {
			res.Rebased++
		}
		inSkip = false

		out := schema.OutputRow{
			Time:   ts,
			Fields: row.Fields,
			Values: row.Values,
			Label:  label,
		}
		if len(opts.RMSCols) > 0 {
			rms := rowRMS(row, opts.RMSCols)
			out.RMS = &rms
		}

		if n := len(res.Rows); n > 0 && res.Rows[n-1].Label != label {
			trans = append(trans, n)
		}
		res.Rows = append(res.Rows, out)
		lastEmitted, prevRaw = ts, row.Time
	}

	res.Transitions = append(trans, schema.TransitionSentinel)
	return res
}

// rowRMS is the square root of the sum of squares of the given fields, rounded to 2 decimals.
func rowRMS(row schema.Row, cols []int) float64 {
	sum := 0.0
	for _, c := range cols {
		if v, ok := row.Value(c); ok {
			sum += v * v
		}
	}
	return round2(math.Sqrt(sum))
}

func labelledHeader(header []string, withRMS bool) []string {
	out := append([]string(nil), header...)
	if withRMS {
		out = append(out, schema.RMSColumn)
	}
	return append(out, schema.LabelColumn)
}

// transitionsOf rebuilds a transition index from a sequence of labels.
func transitionsOf(labels []string) schema.TransitionIndex {
	trans := schema.TransitionIndex{0}
	for i := 1; i < len(labels); i++ {
		if labels[i] != labels[i-1] {
			trans = append(trans, i)
		}
	}
	return append(trans, schema.TransitionSentinel)
}
