package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// printProfile outputs a file profile, dispatching based on the output format configured.
func (ow *OutWriter) printProfile(profile schema.FileProfile, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, profile)
		}, "Wrote JSON profile"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"key", "value"}, func(cw *csv.Writer) error {
				return cw.WriteAll(profilePairs(profile, 0))
			})
		}, "Wrote CSV profile"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errUnsupported("file profile", cfg.Output)
	default:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Property", "Value"})
			if err := table.Bulk(profilePairs(profile, GetMaxTablePathWidth(cfg))); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote table")
	}
	return nil
}

// profilePairs renders the profile as key/value rows. A positive pathWidth truncates the path.
func profilePairs(p schema.FileProfile, pathWidth int) [][]string {
	path := p.Path
	if pathWidth > 0 {
		path = contract.TruncatePath(path, pathWidth)
	}
	ambiguous := "no"
	if p.MonthDayAmbiguous {
		ambiguous = "yes"
	}
	return [][]string{
		{"Path", path},
		{"Kind", string(p.Kind)},
		{"Rows", humanize.Comma(int64(p.Rows))},
		{"Columns", strings.Join(p.Header, ", ")},
		{"Numeric columns", strings.Join(p.NumericColumns, ", ")},
		{"Timestamp format", p.Format},
		{"Granularity", string(p.Granularity)},
		{"Frequency", fmt.Sprintf("%d per %s", p.Frequency, p.Granularity)},
		{"Rows per minute", fmt.Sprintf("%d", p.RowsPerMinute)},
		{"First", p.First.Format(time.DateTime)},
		{"Last", p.Last.Format(time.DateTime)},
		{"Span", schema.FormatDuration(p.Last.Sub(p.First))},
		{"Month/day ambiguous", ambiguous},
	}
}
