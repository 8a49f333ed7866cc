package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// printLabelRuns outputs predicted label runs, dispatching based on the output format configured.
func (ow *OutWriter) printLabelRuns(runs []schema.LabelRun, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON label runs"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeLabelRunsCSV(w, runs)
		}, "Wrote CSV label runs"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errUnsupported("label runs", cfg.Output)
	default:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeLabelRunsTable(w, runs, duration)
		}, "Wrote table")
	}
	return nil
}

// writeLabelRunsTable lists every run as "label - duration" in time order.
func writeLabelRunsTable(w io.Writer, runs []schema.LabelRun, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Label", "Start", "End", "Rows", "Duration"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i, r := range runs {
		data = append(data, []string{
			fmt.Sprintf("%d", i+1),
			contract.GetColorLabel(r.Label),
			r.Start.Format(time.DateTime),
			r.End.Format(time.DateTime),
			fmt.Sprintf("%d", r.Rows),
			schema.FormatDuration(r.Duration),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Found %d label runs in %v\n", len(runs), duration.Round(time.Millisecond))
	return err
}

func writeLabelRunsCSV(w io.Writer, runs []schema.LabelRun) error {
	header := []string{"label", "start", "end", "rows", "duration", "duration_seconds"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range runs {
			rec := []string{
				r.Label,
				r.Start.Format(time.DateTime),
				r.End.Format(time.DateTime),
				fmt.Sprintf("%d", r.Rows),
				schema.FormatDuration(r.Duration),
				fmt.Sprintf("%d", int64(r.Duration/time.Second)),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
