// Package parquet exports run history, labelled rows, summaries and datasets
// to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/sensorlabel/schema"
)

// Run maps to the sensorlabel_runs table.
type Run struct {
	RunID         int64      `parquet:"run_id,snappy"`
	RunUUID       string     `parquet:"run_uuid,snappy"`
	Operation     string     `parquet:"operation,snappy,dict"`
	InputFile     string     `parquet:"input_file,snappy"`
	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`
	RowsIn        int32      `parquet:"rows_in,snappy"`
	RowsOut       int32      `parquet:"rows_out,snappy"`
	ConfigParams  *string    `parquet:"config_params,optional,snappy"`
}

// RunSlice maps to the sensorlabel_run_slices table.
type RunSlice struct {
	RunID      int64     `parquet:"run_id,snappy"`
	SliceIndex int32     `parquet:"slice_index,snappy"`
	Label      string    `parquet:"label,snappy,dict"`
	SliceStart time.Time `parquet:"slice_start,snappy"`
	DurationMs int64     `parquet:"duration_ms,snappy"`
	RowCount   int32     `parquet:"row_count,snappy"`
	Subject    *string   `parquet:"subject,optional,snappy"`
	Location   *string   `parquet:"location,optional,snappy"`
}

// LabelledRow is one emitted output row. Values follow the column order of the source header.
type LabelledRow struct {
	Index  int64     `parquet:"row_index,snappy"`
	Time   time.Time `parquet:"time,snappy"`
	Label  string    `parquet:"label,snappy,dict"`
	RMS    *float64  `parquet:"rms,optional,snappy"`
	Values []float64 `parquet:"values,list,snappy"`
}

// SummaryRow is one aggregated slice. Group is "chronological" or "by_label".
type SummaryRow struct {
	Group      string    `parquet:"group,snappy,dict"`
	Subject    string    `parquet:"subject,snappy"`
	Location   string    `parquet:"location,snappy"`
	Label      string    `parquet:"label,snappy,dict"`
	Start      time.Time `parquet:"start,snappy"`
	DurationMs int64     `parquet:"duration_ms,snappy"`
	Rows       int32     `parquet:"rows,snappy"`
	Means      []float64 `parquet:"means,list,snappy"`
	Stds       []float64 `parquet:"stds,list,snappy"`
}

// DatasetWindow is one training window with its row-major feature values flattened.
type DatasetWindow struct {
	Index    int32     `parquet:"window_index,snappy"`
	Start    time.Time `parquet:"start,snappy"`
	End      time.Time `parquet:"end,snappy"`
	Label    string    `parquet:"label,snappy,dict"`
	Rows     int32     `parquet:"rows,snappy"`
	Features int32     `parquet:"features,snappy"`
	Values   []float64 `parquet:"values,list,snappy"`
}

// Summary groups.
const (
	ChronologicalGroup = "chronological"
	ByLabelGroup       = "by_label"
)

// writeFile writes rows of T to outputPath with a schema inferred from struct tags.
func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// WriteRunsParquet writes run records to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteRunSlicesParquet writes slice records to a Parquet file.
func WriteRunSlicesParquet(data []RunSlice, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteLabelledRowsParquet writes emitted rows to a Parquet file.
func WriteLabelledRowsParquet(data []LabelledRow, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteSummaryParquet writes summary rows to a Parquet file.
func WriteSummaryParquet(data []SummaryRow, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteDatasetParquet writes dataset windows to a Parquet file.
func WriteDatasetParquet(data []DatasetWindow, outputPath string) error {
	return writeFile(data, outputPath)
}

// ReadFile reads every row of a Parquet file written by this package.
func ReadFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}
	return rows, nil
}

// ConvertRunRecords converts stored runs for export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			RunUUID:       record.RunUUID,
			Operation:     record.Operation,
			InputFile:     record.InputFile,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			RowsIn:        record.RowsIn,
			RowsOut:       record.RowsOut,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertSliceRecords converts stored slices for export.
func ConvertSliceRecords(records []schema.SliceRecord) []RunSlice {
	result := make([]RunSlice, len(records))
	for i, record := range records {
		result[i] = RunSlice{
			RunID:      record.RunID,
			SliceIndex: record.SliceIndex,
			Label:      record.Label,
			SliceStart: record.SliceStart,
			DurationMs: record.DurationMs,
			RowCount:   record.RowCount,
			Subject:    record.Subject,
			Location:   record.Location,
		}
	}
	return result
}

// ConvertOutputRows converts emitted rows. Non-numeric fields become NaN.
func ConvertOutputRows(rows []schema.OutputRow) []LabelledRow {
	result := make([]LabelledRow, len(rows))
	for i, r := range rows {
		result[i] = LabelledRow{
			Index:  int64(i),
			Time:   r.Time,
			Label:  r.Label,
			RMS:    r.RMS,
			Values: append([]float64(nil), r.Values...),
		}
	}
	return result
}

// ConvertSummaryReport flattens the chronological and label-grouped records.
func ConvertSummaryReport(report *schema.SummaryReport) []SummaryRow {
	var result []SummaryRow
	add := func(group string, records []schema.SummaryRecord) {
		for _, r := range records {
			result = append(result, SummaryRow{
				Group:      group,
				Subject:    r.Subject,
				Location:   r.Location,
				Label:      r.Label,
				Start:      r.Start,
				DurationMs: r.Duration.Milliseconds(),
				Rows:       int32(r.Rows),
				Means:      append([]float64(nil), r.Means...),
				Stds:       append([]float64(nil), r.Stds...),
			})
		}
	}
	add(ChronologicalGroup, report.Chronological)
	add(ByLabelGroup, report.ByLabel)
	return result
}

// ConvertDatasetWindows flattens each window's values row by row.
func ConvertDatasetWindows(windows []schema.DatasetWindow) []DatasetWindow {
	result := make([]DatasetWindow, len(windows))
	for i, w := range windows {
		features := 0
		if len(w.Values) > 0 {
			features = len(w.Values[0])
		}
		flat := make([]float64, 0, len(w.Values)*features)
		for _, row := range w.Values {
			flat = append(flat, row...)
		}
		result[i] = DatasetWindow{
			Index:    int32(w.Index),
			Start:    w.Start,
			End:      w.End,
			Label:    w.Label,
			Rows:     int32(len(w.Values)),
			Features: int32(features),
			Values:   flat,
		}
	}
	return result
}
