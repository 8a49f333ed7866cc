package core

import (
	"time"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

const mergeWindow = time.Minute

// mergeOptions controls the merge walk.
type mergeOptions struct {
	Synchronized   bool
	From, To       time.Time // Primary range; zero values mean the primary's own bounds
	SecondaryStart time.Time // Unsynchronized only; zero means the secondary's first row
	OnMismatch     func(*contract.FrequencyMismatchWarning)
}

// selectPrimary orders two series so that the one with strictly more rows per minute
// comes first. Ties keep the given order.
func selectPrimary(a, b *schema.Series) (primary, secondary *schema.Series, swapped bool) {
	if b.RowsPerMinute() > a.RowsPerMinute() {
		return b, a, true
	}
	return a, b, false
}

// overlap returns the shared time range of two series.
func overlap(a, b *schema.Series) (time.Time, time.Time, bool) {
	start := a.First()
	if b.First().After(start) {
		start = b.First()
	}
	end := a.Last()
	if b.Last().Before(end) {
		end = b.Last()
	}
	return start, end, !start.After(end)
}

// mergeSeries walks the primary in one-minute windows and attaches secondary fields to
// every primary row. A secondary clock advances in lockstep, starting either at the
// primary start (synchronized) or at an independent start time.
func mergeSeries(primary, secondary *schema.Series, opts mergeOptions) (*schema.MergeResult, error) {
	res := &schema.MergeResult{
		Header:       append(append([]string(nil), primary.Header...), secondary.FieldHeader()...),
		Primary:      primary.Name,
		Secondary:    secondary.Name,
		Synchronized: opts.Synchronized,
	}

	from, to := primary.First(), primary.Last()
	if !opts.From.IsZero() {
		from = opts.From
	}
	if !opts.To.IsZero() {
		to = opts.To
	}
	if to.Before(from) {
		return nil, contract.InvalidSelection("merge range", "", "end %s is before start %s", to.Format(time.DateTime), from.Format(time.DateTime))
	}

	secStart := from
	if !opts.Synchronized {
		secStart = secondary.First()
		if !opts.SecondaryStart.IsZero() {
			secStart = opts.SecondaryStart
		}
	}

	pi := firstAtOrAfter(primary.Rows, from)
	si := firstAtOrAfter(secondary.Rows, secStart)
	if si >= secondary.Len() {
		return nil, contract.Malformed(secondary.Name, "no rows at or after %s", secStart.Format(time.DateTime))
	}
	carry := []schema.Row{secondary.Rows[si]}

	secWin := secStart
	for win := from; !win.After(to); win, secWin = win.Add(mergeWindow), secWin.Add(mergeWindow) {
		winEnd := win.Add(mergeWindow)
		var prim []schema.Row
		for pi < primary.Len() && primary.Rows[pi].Time.Before(winEnd) && !primary.Rows[pi].Time.After(to) {
			prim = append(prim, primary.Rows[pi])
			pi++
		}

		secEnd := secWin.Add(mergeWindow)
		if opts.Synchronized && secEnd.After(to) {
			// One clock: the secondary is clipped to the same range as the primary.
			secEnd = to.Add(time.Nanosecond)
		}
		var sec []schema.Row
		for si < secondary.Len() && secondary.Rows[si].Time.Before(secEnd) {
			if !secondary.Rows[si].Time.Before(secWin) {
				sec = append(sec, secondary.Rows[si])
			}
			si++
		}

		if len(prim) == 0 {
			continue
		}
		if len(sec) == 0 {
			sec = carry
			res.CarriedWindow++
		}
		carry = []schema.Row{sec[len(sec)-1]}

		plan, discarded := InterleavePlan(len(prim), len(sec))
		if discarded > 0 {
			res.Mismatches = append(res.Mismatches, schema.MismatchRecord{
				PrimaryWindow:   win,
				SecondaryWindow: secWin,
				PrimaryRows:     len(prim),
				SecondaryRows:   len(sec),
				Discarded:       discarded,
			})
			if opts.OnMismatch != nil {
				opts.OnMismatch(&contract.FrequencyMismatchWarning{PrimaryWindow: win, PrimaryRows: len(prim), SecondaryRows: len(sec)})
			}
		}

		for k, p := range prim {
			s := sec[plan[k]]
			res.Rows = append(res.Rows, schema.OutputRow{
				Time:   p.Time,
				Fields: append(append([]string(nil), p.Fields...), s.Fields...),
				Values: append(append([]float64(nil), p.Values...), s.Values...),
			})
		}
		res.Windows++
	}
	return res, nil
}

// firstAtOrAfter returns the index of the first row not before t.
func firstAtOrAfter(rows []schema.Row, t time.Time) int {
	for i, r := range rows {
		if !r.Time.Before(t) {
			return i
		}
	}
	return len(rows)
}
