package core

import (
	"math/rand/v2"
	"sort"
	"strconv"
	"time"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

const (
	swapSampleSize = 20
	correctionStep = 30 * time.Minute
	maxCorrections = 48
)

// monthDayAmbiguous samples rows and reports whether every month and day field is at most 12.
// A single value above 12 proves the current reading is correct.
func monthDayAmbiguous(s *schema.Series, rng *rand.Rand) bool {
	if s.Len() == 0 {
		return false
	}
	check := func(r schema.Row) bool {
		txt := r.Time.Format(schema.CanonicalLayout)
		month, _ := strconv.Atoi(txt[5:7])
		day, _ := strconv.Atoi(txt[8:10])
		return month <= 12 && day <= 12
	}
	if s.Len() <= swapSampleSize {
		for _, r := range s.Rows {
			if !check(r) {
				return false
			}
		}
		return true
	}
	for range swapSampleSize {
		if !check(s.Rows[rng.IntN(s.Len())]) {
			return false
		}
	}
	return true
}

// swappedLiteral exchanges the month and day fields of a canonical timestamp string.
func swappedLiteral(canonical string) string {
	return canonical[0:5] + canonical[8:10] + canonical[4:7] + canonical[10:]
}

// swapMonthDay returns a copy of the series with month and day exchanged on every row.
// Each new timestamp is corrected until it renders exactly as the swapped literal.
func swapMonthDay(s *schema.Series) (*schema.Series, error) {
	out := s.Clone()
	if out.Len() == 0 {
		return out, nil
	}
	loc := out.Rows[0].Time.Location()
	render := func(t time.Time) string { return t.In(loc).Format(schema.CanonicalLayout) }

	var prevRaw, prevSwapped time.Time
	for i := range out.Rows {
		raw := out.Rows[i].Time
		if i > 0 && raw.Equal(prevRaw) {
			out.Rows[i].Time = prevSwapped
			continue
		}
		target := swappedLiteral(render(raw))
		parsed, err := time.ParseInLocation(schema.CanonicalLayout, target, loc)
		if err != nil {
			return nil, contract.Malformed(s.Name, "row %d: swapping month and day of %s gives an invalid date", i+1, render(raw))
		}
		fixed, err := correctToLiteral(parsed, target, render)
		if err != nil {
			return nil, err
		}
		out.Rows[i].Time = fixed
		prevRaw, prevSwapped = raw, fixed
	}

	sort.SliceStable(out.Rows, func(i, j int) bool { return out.Rows[i].Time.Before(out.Rows[j].Time) })
	out.MonthDaySwapped = !s.MonthDaySwapped
	return out, nil
}

// correctToLiteral nudges ts in half-hour steps until render(ts) equals target.
// It steps forward while the rendering is earlier, then back while it is later.
func correctToLiteral(ts time.Time, target string, render func(time.Time) string) (time.Time, error) {
	steps := 0
	for render(ts) < target {
		if steps >= maxCorrections {
			return time.Time{}, &contract.FixedPointNotFoundError{Target: target, Last: render(ts), Iterations: steps}
		}
		ts = ts.Add(correctionStep)
		steps++
	}
	for render(ts) > target {
		if steps >= maxCorrections {
			return time.Time{}, &contract.FixedPointNotFoundError{Target: target, Last: render(ts), Iterations: steps}
		}
		ts = ts.Add(-correctionStep)
		steps++
	}
	if got := render(ts); got != target {
		return time.Time{}, &contract.FixedPointNotFoundError{Target: target, Last: got, Iterations: steps}
	}
	return ts, nil
}
