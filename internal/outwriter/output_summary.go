package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/internal/parquet"
	"github.com/huangsam/sensorlabel/schema"
)

// printSummary outputs a summary report, dispatching based on the output format configured.
func (ow *OutWriter) printSummary(report *schema.SummaryReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON summary"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryCSV(w, report, fmtFloat, intFmt)
		}, "Wrote CSV summary"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.WriteSummaryParquet(parquet.ConvertSummaryReport(report), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryTable(w, report, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// summaryHeader returns Subject, Location, Label, Start, Duration and Rows followed by
// one mean and one std column per aggregated column.
func summaryHeader(report *schema.SummaryReport) []string {
	header := []string{"Subject", "Location", "Label", "Start", "Duration", "Rows"}
	for _, c := range report.Columns {
		header = append(header, "mean_"+c)
	}
	for _, c := range report.Columns {
		header = append(header, "std_"+c)
	}
	return header
}

func summaryRow(r schema.SummaryRecord, fmtFloat func(float64) string, intFmt string) []string {
	row := []string{
		r.Subject,
		r.Location,
		r.Label,
		r.Start.Format(time.DateTime),
		schema.FormatDuration(r.Duration),
		fmt.Sprintf(intFmt, r.Rows),
	}
	for _, v := range r.Means {
		row = append(row, fmtFloat(v))
	}
	for _, v := range r.Stds {
		row = append(row, fmtFloat(v))
	}
	return row
}

// writeSummaryTable generates and writes the human-readable table.
// Label-grouped records follow the chronological ones after a separator.
func writeSummaryTable(w io.Writer, report *schema.SummaryReport, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header(summaryHeader(report))
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range report.Chronological {
		row := summaryRow(r, fmtFloat, "%d")
		row[2] = contract.GetColorLabel(r.Label)
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(report.ByLabel) > 0 {
		if _, err := fmt.Fprintln(w, "\nGrouped by label:"); err != nil {
			return err
		}
		grouped := tablewriter.NewWriter(w)
		grouped.Header(summaryHeader(report))
		grouped.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
		data = data[:0]
		for _, r := range report.ByLabel {
			row := summaryRow(r, fmtFloat, "%d")
			row[2] = contract.GetColorLabel(r.Label)
			data = append(data, row)
		}
		if err := grouped.Bulk(data); err != nil {
			return err
		}
		if err := grouped.Render(); err != nil {
			return err
		}
	}

	var total time.Duration
	rows := 0
	for _, r := range report.Chronological {
		total += r.Duration
		rows += r.Rows
	}
	_, err := fmt.Fprintf(w, "Summarized %d slices (%d rows, %s) in %v\n",
		len(report.Chronological), rows, schema.FormatDuration(total), duration.Round(time.Millisecond))
	return err
}

// writeSummaryCSV writes the report in CSV format, with a group column
// telling chronological and label-grouped records apart.
func writeSummaryCSV(w io.Writer, report *schema.SummaryReport, fmtFloat func(float64) string, intFmt string) error {
	header := append([]string{"group", "index"}, summaryHeader(report)...)
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		groups := []struct {
			name    string
			records []schema.SummaryRecord
		}{
			{parquet.ChronologicalGroup, report.Chronological},
			{parquet.ByLabelGroup, report.ByLabel},
		}
		for _, g := range groups {
			for _, r := range g.records {
				rec := append([]string{g.name, strconv.Itoa(r.Index)}, summaryRow(r, fmtFloat, intFmt)...)
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
