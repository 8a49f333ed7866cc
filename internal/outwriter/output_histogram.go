package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

const barGlyph = "█"

// printHistogram outputs histogram buckets, dispatching based on the output format configured.
func (ow *OutWriter) printHistogram(result schema.HistogramResult, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON histogram"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistogramCSV(w, result, fmtFloat)
		}, "Wrote CSV histogram"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errUnsupported("histogram", cfg.Output)
	default:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistogramTable(w, result, fmtFloat, getMaxBarWidth(cfg, len(result.Columns)))
		}, "Wrote table")
	}
	return nil
}

// histogramBar scales count against the largest count to at most width glyphs.
// Non-zero counts always get at least one glyph.
func histogramBar(count, largest, width int) string {
	if count <= 0 || largest <= 0 {
		return ""
	}
	n := max(count*width/largest, 1)
	return strings.Repeat(barGlyph, n)
}

func writeHistogramTable(w io.Writer, result schema.HistogramResult, fmtFloat func(float64) string, barWidth int) error {
	largest := 0
	for _, b := range result.Bins {
		for _, c := range b.Counts {
			largest = max(largest, c)
		}
	}

	table := tablewriter.NewWriter(w)
	header := []string{"Range"}
	for _, c := range result.Columns {
		header = append(header, c)
	}
	table.Header(header)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, b := range result.Bins {
		row := []string{fmt.Sprintf("%s to %s", fmtFloat(b.Lower), fmtFloat(b.Upper))}
		for _, c := range b.Counts {
			row = append(row, fmt.Sprintf("%s %d", histogramBar(c, largest, barWidth), c))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d values in %d bins from %s\n", result.Total, len(result.Bins), result.Source)
	return err
}

func writeHistogramCSV(w io.Writer, result schema.HistogramResult, fmtFloat func(float64) string) error {
	header := append([]string{"lower", "upper"}, result.Columns...)
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, b := range result.Bins {
			rec := []string{fmtFloat(b.Lower), fmtFloat(b.Upper)}
			for _, c := range b.Counts {
				rec = append(rec, fmt.Sprintf("%d", c))
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
