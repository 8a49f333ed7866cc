package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// printMerge outputs a merge report, dispatching based on the output format configured.
func (ow *OutWriter) printMerge(result *schema.MergeResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON merge report"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMismatchCSV(w, result.Mismatches)
		}, "Wrote CSV merge report"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errUnsupported("merge report", cfg.Output)
	default:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMergeText(w, result, GetMaxTablePathWidth(cfg), duration)
		}, "Wrote merge report")
	}
	return nil
}

func writeMergeText(w io.Writer, result *schema.MergeResult, pathWidth int, duration time.Duration) error {
	mode := "unsynchronized"
	if result.Synchronized {
		mode = "synchronized"
	}
	lines := []string{
		fmt.Sprintf("Primary:   %s", contract.TruncatePath(result.Primary, pathWidth)),
		fmt.Sprintf("Secondary: %s", contract.TruncatePath(result.Secondary, pathWidth)),
		fmt.Sprintf("Mode:      %s", mode),
		fmt.Sprintf("Rows:      %s over %d windows (%d carried forward)", humanize.Comma(int64(len(result.Rows))), result.Windows, result.CarriedWindow),
	}
	if result.Swapped {
		lines = append(lines, "The second file has the higher frequency and was used as primary")
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}

	if len(result.Mismatches) > 0 {
		if _, err := fmt.Fprintf(w, "%s %d windows had more secondary rows than primary rows:\n",
			contract.WarnColor.Sprint("Warn"), len(result.Mismatches)); err != nil {
			return err
		}
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Primary window", "Secondary window", "Primary rows", "Secondary rows", "Discarded"})
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
		var data [][]string
		for _, m := range result.Mismatches {
			data = append(data, []string{
				m.PrimaryWindow.Format(time.DateTime),
				m.SecondaryWindow.Format(time.DateTime),
				fmt.Sprintf("%d", m.PrimaryRows),
				fmt.Sprintf("%d", m.SecondaryRows),
				fmt.Sprintf("%d", m.Discarded),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Merge completed in %v\n", duration.Round(time.Millisecond))
	return err
}

func writeMismatchCSV(w io.Writer, mismatches []schema.MismatchRecord) error {
	header := []string{"primary_window", "secondary_window", "primary_rows", "secondary_rows", "discarded"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, m := range mismatches {
			rec := []string{
				m.PrimaryWindow.Format(time.DateTime),
				m.SecondaryWindow.Format(time.DateTime),
				fmt.Sprintf("%d", m.PrimaryRows),
				fmt.Sprintf("%d", m.SecondaryRows),
				fmt.Sprintf("%d", m.Discarded),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// printPhysio outputs the replaced physio blocks, dispatching based on the output format configured.
func (ow *OutWriter) printPhysio(changes []schema.PhysioChange, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, changes)
		}, "Wrote JSON physio changes"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"block", "block_start", "rows", "percent_change"}, func(cw *csv.Writer) error {
				for _, c := range changes {
					rec := []string{fmt.Sprintf(intFmt, c.BlockIndex), c.BlockStart.Format(time.DateTime), fmt.Sprintf(intFmt, c.Rows), fmtFloat(c.PercentChange)}
					if err := cw.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV physio changes"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errUnsupported("physio changes", cfg.Output)
	default:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Block", "Start", "Rows", "Change %"})
			table.Configure(func(cfg *tablewriter.Config) {
				cfg.Row.Alignment.Global = tw.AlignRight
			})
			var data [][]string
			for _, c := range changes {
				data = append(data, []string{fmt.Sprintf(intFmt, c.BlockIndex), c.BlockStart.Format(time.DateTime), fmt.Sprintf(intFmt, c.Rows), fmtFloat(c.PercentChange)})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			if err := table.Render(); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "Replaced %d blocks in %v\n", len(changes), duration.Round(time.Millisecond))
			return err
		}, "Wrote table")
	}
	return nil
}
