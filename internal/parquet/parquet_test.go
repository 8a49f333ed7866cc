package parquet

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/sensorlabel/schema"
)

var start = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"run", new(Run), []string{"run_id", "run_uuid", "operation", "input_file", "start_time", "end_time", "run_duration_ms", "rows_in", "rows_out", "config_params"}},
		{"slice", new(RunSlice), []string{"run_id", "slice_index", "label", "slice_start", "duration_ms", "row_count", "subject", "location"}},
		{"labelled", new(LabelledRow), []string{"row_index", "time", "label", "rms", "values"}},
		{"summary", new(SummaryRow), []string{"group", "subject", "location", "label", "start", "duration_ms", "rows", "means", "stds"}},
		{"dataset", new(DatasetWindow), []string{"window_index", "start", "end", "label", "rows", "features", "values"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			require.NotNil(t, s)
			for _, col := range tt.columns {
				_, ok := s.Lookup(col)
				assert.True(t, ok, "column %s should exist", col)
			}
		})
	}
}

func TestWriteAndReadRuns(t *testing.T) {
	end := start.Add(time.Minute)
	duration := int32(60000)
	params := `{"operation":"label"}`
	records := []schema.RunRecord{
		{RunID: 1, RunUUID: "a", Operation: "label", InputFile: "in.csv", StartTime: start, EndTime: &end, RunDurationMs: &duration, RowsIn: 10, RowsOut: 8, ConfigParams: &params},
		{RunID: 2, RunUUID: "b", Operation: "merge", InputFile: "x.csv", StartTime: start},
	}
	path := filepath.Join(t.TempDir(), "runs.parquet")
	require.NoError(t, WriteRunsParquet(ConvertRunRecords(records), path))

	got, err := ReadFile[Run](path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].RunID)
	assert.True(t, got[0].StartTime.Equal(start))
	require.NotNil(t, got[0].EndTime)
	assert.True(t, got[0].EndTime.Equal(end))
	assert.Equal(t, int32(60000), *got[0].RunDurationMs)
	assert.Equal(t, params, *got[0].ConfigParams)
	assert.Nil(t, got[1].EndTime)
	assert.Nil(t, got[1].RunDurationMs)
	assert.Nil(t, got[1].ConfigParams)
}

func TestWriteRunSlices(t *testing.T) {
	subject := "s1"
	records := []schema.SliceRecord{
		{RunID: 1, SliceIndex: 0, Label: "Walk", SliceStart: start, DurationMs: 30000, RowCount: 30, Subject: &subject},
		{RunID: 1, SliceIndex: 1, Label: "Sit", SliceStart: start.Add(30 * time.Second), DurationMs: 1000, RowCount: 1},
	}
	path := filepath.Join(t.TempDir(), "slices.parquet")
	require.NoError(t, WriteRunSlicesParquet(ConvertSliceRecords(records), path))

	got, err := ReadFile[RunSlice](path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Walk", got[0].Label)
	assert.Equal(t, "s1", *got[0].Subject)
	assert.Nil(t, got[1].Subject)
	assert.Nil(t, got[1].Location)
}

func TestWriteLabelledRows(t *testing.T) {
	rms := 5.0
	rows := []schema.OutputRow{
		{Time: start, Fields: []string{"3", "4"}, Values: []float64{3, 4}, RMS: &rms, Label: "Walk"},
		{Time: start.Add(time.Second), Fields: []string{"1", "0"}, Values: []float64{1, 0}, Label: "Sit"},
	}
	converted := ConvertOutputRows(rows)
	assert.Equal(t, int64(1), converted[1].Index)

	path := filepath.Join(t.TempDir(), "rows.parquet")
	require.NoError(t, WriteLabelledRowsParquet(converted, path))
	got, err := ReadFile[LabelledRow](path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []float64{3, 4}, got[0].Values)
	assert.Equal(t, 5.0, *got[0].RMS)
	assert.Nil(t, got[1].RMS)
	assert.Equal(t, "Sit", got[1].Label)
}

func TestConvertSummaryReport(t *testing.T) {
	walk := schema.SummaryRecord{Label: "Walk", Start: start, Duration: 90 * time.Second, Rows: 90, Means: []float64{1}, Stds: []float64{0.5}}
	sit := schema.SummaryRecord{Label: "Sit", Start: start.Add(90 * time.Second), Duration: time.Second, Rows: 1, Means: []float64{2}, Stds: []float64{0}}
	report := &schema.SummaryReport{
		Columns:       []string{"x"},
		Chronological: []schema.SummaryRecord{walk, sit, walk},
		ByLabel:       []schema.SummaryRecord{sit, walk, walk},
	}

	rows := ConvertSummaryReport(report)
	require.Len(t, rows, 6)
	assert.Equal(t, ChronologicalGroup, rows[0].Group)
	assert.Equal(t, ByLabelGroup, rows[3].Group)
	assert.Equal(t, "Sit", rows[3].Label)
	assert.Equal(t, int64(90000), rows[0].DurationMs)

	path := filepath.Join(t.TempDir(), "summary.parquet")
	require.NoError(t, WriteSummaryParquet(rows, path))
	got, err := ReadFile[SummaryRow](path)
	require.NoError(t, err)
	assert.Len(t, got, 6)
}

func TestConvertDatasetWindows(t *testing.T) {
	windows := []schema.DatasetWindow{
		{Index: 0, Start: start, End: start.Add(time.Second), Label: "A", Values: [][]float64{{1, 2}, {3, 4}}},
		{Index: 1, Start: start, End: start, Label: "B"},
	}
	got := ConvertDatasetWindows(windows)
	assert.Equal(t, []float64{1, 2, 3, 4}, got[0].Values)
	assert.Equal(t, int32(2), got[0].Rows)
	assert.Equal(t, int32(2), got[0].Features)
	assert.Equal(t, int32(0), got[1].Features)
	assert.Empty(t, got[1].Values)

	path := filepath.Join(t.TempDir(), "dataset.parquet")
	require.NoError(t, WriteDatasetParquet(got, path))
}

func TestWriteToMissingDirectory(t *testing.T) {
	err := WriteRunsParquet(nil, filepath.Join(t.TempDir(), "missing", "runs.parquet"))
	assert.Error(t, err)
}
