package core

import (
	"time"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// combineStep records how one appended file was shifted.
type combineStep struct {
	Name  string
	Rows  int
	Shift time.Duration
}

// combineSeries appends each series after the previous one. Every later series is shifted
// so that its first row lands one unit after the last row written so far.
func combineSeries(series []*schema.Series) (*schema.Series, []combineStep, error) {
	if len(series) < 2 {
		return nil, nil, contract.InvalidSelection("files", "", "combine needs at least two files, got %d", len(series))
	}
	base := series[0]
	unit := base.Granularity.Unit()
	out := base.Clone()
	steps := []combineStep{{Name: base.Name, Rows: base.Len()}}

	for _, next := range series[1:] {
		if len(next.Header) != len(base.Header) {
			return nil, nil, contract.Malformed(next.Name, "has %d columns, expected %d like %s", len(next.Header), len(base.Header), base.Name)
		}
		if next.Len() == 0 {
			steps = append(steps, combineStep{Name: next.Name})
			continue
		}
		units := int64(out.Last().Sub(next.First())/unit) + 1
		shift := time.Duration(units) * unit
		for _, r := range next.Rows {
			c := r.Clone()
			c.Time = c.Time.Add(shift)
			out.Rows = append(out.Rows, c)
		}
		steps = append(steps, combineStep{Name: next.Name, Rows: next.Len(), Shift: shift})
	}
	return out, steps, nil
}
