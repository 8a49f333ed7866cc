package schema

import (
	"strings"
	"time"
)

// UniqueLabels returns the distinct labels in first-seen order.
func UniqueLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	var out []string
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// SplitList splits a comma-separated flag value, trimming blanks.
func SplitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FormatDuration renders a duration as H:MM:SS.
func FormatDuration(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}
	total := int64(d.Round(time.Second) / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	out := strings.Join([]string{itoa(h), pad2(m), pad2(s)}, ":")
	if neg {
		return "-" + out
	}
	return out
}

// ToSliceRecords converts summary records into run-store slice records.
func ToSliceRecords(runID int64, records []SummaryRecord) []SliceRecord {
	out := make([]SliceRecord, 0, len(records))
	for _, r := range records {
		rec := SliceRecord{
			RunID:      runID,
			SliceIndex: int32(r.Index),
			Label:      r.Label,
			SliceStart: r.Start,
			DurationMs: r.Duration.Milliseconds(),
			RowCount:   int32(r.Rows),
		}
		if r.Subject != "" {
			s := r.Subject
			rec.Subject = &s
		}
		if r.Location != "" {
			l := r.Location
			rec.Location = &l
		}
		out = append(out, rec)
	}
	return out
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}
