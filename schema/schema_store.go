package schema

import "time"

// LoadProfile is the cached outcome of format, frequency and month/day inference for a file.
type LoadProfile struct {
	Layout          string      `json:"layout"`
	DisplayFormat   string      `json:"display_format"`
	HasSeconds      bool        `json:"has_seconds"`
	Granularity     Granularity `json:"granularity"`
	Frequency       int         `json:"frequency"`
	MonthDaySwapped bool        `json:"month_day_swapped"`
}

// RunRecord represents a row from the sensorlabel_runs table.
type RunRecord struct {
	RunID         int64
	RunUUID       string
	Operation     string
	InputFile     string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	RowsIn        int32
	RowsOut       int32
	ConfigParams  *string
}

// SliceRecord represents a row from the sensorlabel_run_slices table.
type SliceRecord struct {
	RunID      int64
	SliceIndex int32
	Label      string
	SliceStart time.Time
	DurationMs int64
	RowCount   int32
	Subject    *string
	Location   *string
}
