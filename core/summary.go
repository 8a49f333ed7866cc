package core

import (
	"sort"
	"strconv"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/huangsam/sensorlabel/schema"
)

// summaryMeta carries identifying columns and the numeric columns to aggregate.
type summaryMeta struct {
	Subject  string
	Location string
	Columns  []int    // Field indices to aggregate
	Names    []string // Display names, parallel to Columns
	WithRMS  bool
}

// summarize aggregates each slice delimited by the transition index.
// A slice runs from t[i] up to t[i+1]; its duration ends at the timestamp of row t[i+1],
// or at the last row for the final slice, so durations add up to the whole span.
func summarize(rows []schema.OutputRow, trans schema.TransitionIndex, meta summaryMeta) *schema.SummaryReport {
	names := append([]string(nil), meta.Names...)
	if meta.WithRMS {
		names = append(names, schema.RMSColumn)
	}
	report := &schema.SummaryReport{Columns: names}
	if len(rows) == 0 || len(trans) < 2 {
		return report
	}

	seen := map[string]struct{}{}
	recurring := false
	for i := 0; i < len(trans)-1; i++ {
		start := trans[i]
		end := trans[i+1]
		if end == schema.TransitionSentinel || end > len(rows) {
			end = len(rows)
		}
		if start >= end {
			continue
		}
		durationEnd := end
		if durationEnd >= len(rows) {
			durationEnd = len(rows) - 1
		}

		slice := rows[start:end]
		label := slice[0].Label
		if _, ok := seen[label]; ok {
			recurring = true
		}
		seen[label] = struct{}{}

		rec := schema.SummaryRecord{
			Index:    len(report.Chronological),
			Subject:  meta.Subject,
			Location: meta.Location,
			Label:    label,
			Start:    slice[0].Time,
			Duration: rows[durationEnd].Time.Sub(slice[0].Time),
			Rows:     len(slice),
		}
		for _, col := range meta.Columns {
			mean, std := meanStd(outputColumn(slice, col))
			rec.Means = append(rec.Means, mean)
			rec.Stds = append(rec.Stds, std)
		}
		if meta.WithRMS {
			mean, std := meanStd(rmsColumn(slice))
			rec.Means = append(rec.Means, mean)
			rec.Stds = append(rec.Stds, std)
		}
		report.Chronological = append(report.Chronological, rec)
	}

	if recurring {
		byLabel := append([]schema.SummaryRecord(nil), report.Chronological...)
		sort.SliceStable(byLabel, func(i, j int) bool {
			if byLabel[i].Label != byLabel[j].Label {
				return byLabel[i].Label < byLabel[j].Label
			}
			return byLabel[i].Subject < byLabel[j].Subject
		})
		report.ByLabel = byLabel
	}
	return report
}

// meanStd returns the mean and sample standard deviation. Fewer than two values give a zero deviation.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return 0, 0
	}
	if len(values) < 2 {
		return mean, 0
	}
	std, err := stats.StandardDeviationSample(values)
	if err != nil {
		return mean, 0
	}
	return mean, std
}

func outputColumn(rows []schema.OutputRow, col int) []float64 {
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.Value(col); ok {
			values = append(values, v)
		}
	}
	return values
}

func rmsColumn(rows []schema.OutputRow) []float64 {
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.RMS != nil {
			values = append(values, *r.RMS)
		}
	}
	return values
}

// summaryTable renders a report as cells: chronological records, then a blank row and
// the label-grouped records when present.
func summaryTable(report *schema.SummaryReport, precision int) ([]string, [][]string) {
	header := []string{"Subject", "Location", "Label", "Start", "Duration"}
	for _, c := range report.Columns {
		header = append(header, "mean_"+c)
	}
	for _, c := range report.Columns {
		header = append(header, "std_"+c)
	}

	render := func(r schema.SummaryRecord) []string {
		row := []string{r.Subject, r.Location, r.Label, r.Start.Format(time.DateTime), schema.FormatDuration(r.Duration)}
		for _, v := range r.Means {
			row = append(row, strconv.FormatFloat(v, 'f', precision, 64))
		}
		for _, v := range r.Stds {
			row = append(row, strconv.FormatFloat(v, 'f', precision, 64))
		}
		return row
	}

	var rows [][]string
	for _, r := range report.Chronological {
		rows = append(rows, render(r))
	}
	if len(report.ByLabel) > 0 {
		rows = append(rows, make([]string, len(header)))
		for _, r := range report.ByLabel {
			rows = append(rows, render(r))
		}
	}
	return header, rows
}
