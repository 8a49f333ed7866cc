package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/internal/parquet"
)

// ExportPaths returns the two Parquet files written for an export prefix.
func ExportPaths(outputFile string) (runs, slices string) {
	return outputFile + ".runs.parquet", outputFile + ".slices.parquet"
}

// ExecuteRunExport exports the run history to Parquet files named after outputFile.
func ExecuteRunExport(store contract.RunStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %s\n", humanize.Comma(int64(status.TotalRuns)))
	_, _ = fmt.Fprintf(w, "Total slice records: %s\n", humanize.Comma(status.TableSizes[slicesTable]))

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	slices, err := store.GetAllSlices()
	if err != nil {
		return fmt.Errorf("failed to retrieve slices: %w", err)
	}

	runsFile, slicesFile := ExportPaths(outputFile)
	parquetRuns := parquet.ConvertRunRecords(runs)
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	parquetSlices := parquet.ConvertSliceRecords(slices)
	if err := parquet.WriteRunSlicesParquet(parquetSlices, slicesFile); err != nil {
		return fmt.Errorf("failed to write slices: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d slices to: %s\n", len(parquetSlices), slicesFile)
	return nil
}
