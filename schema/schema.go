package schema

import (
	"math"
	"strconv"
	"time"
)

// Row is one record of a tabular sensor file.
// Fields holds every non-timestamp value as read; Values mirrors it with NaN for non-numeric cells.
type Row struct {
	Time   time.Time
	Fields []string
	Values []float64
}

// NewRow builds a Row and parses every field that looks numeric.
func NewRow(ts time.Time, fields []string) Row {
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			v = math.NaN()
		}
		values[i] = v
	}
	return Row{Time: ts, Fields: fields, Values: values}
}

// Value returns the numeric value of field i and whether it is numeric.
func (r Row) Value(i int) (float64, bool) {
	if i < 0 || i >= len(r.Values) || math.IsNaN(r.Values[i]) {
		return 0, false
	}
	return r.Values[i], true
}

// SetValue overwrites field i with a numeric value.
func (r *Row) SetValue(i int, v float64) {
	r.Values[i] = v
	r.Fields[i] = strconv.FormatFloat(v, 'f', -1, 64)
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	return Row{
		Time:   r.Time,
		Fields: append([]string(nil), r.Fields...),
		Values: append([]float64(nil), r.Values...),
	}
}

// Series is an ordered table of rows sharing one timestamp layout.
type Series struct {
	Name            string      // Source path
	Kind            FileKind    // csv or xlsx
	Header          []string    // Header[0] is the time column
	Rows            []Row       // Sorted ascending by Time
	Layout          string      // Go layout used to render timestamps
	DisplayFormat   string      // Human-readable form of Layout
	HasSeconds      bool        // Whether the source timestamps carry a seconds field
	Granularity     Granularity // Inferred resolution
	Frequency       int         // Rows per unit at Granularity
	NumericCols     []int       // Indices into Row.Fields that hold numbers
	MonthDaySwapped bool        // Whether month and day were exchanged after load
}

// Len returns the number of rows.
func (s *Series) Len() int {
	return len(s.Rows)
}

// First returns the timestamp of the first row.
func (s *Series) First() time.Time {
	if len(s.Rows) == 0 {
		return time.Time{}
	}
	return s.Rows[0].Time
}

// Last returns the timestamp of the last row.
func (s *Series) Last() time.Time {
	if len(s.Rows) == 0 {
		return time.Time{}
	}
	return s.Rows[len(s.Rows)-1].Time
}

// RowsPerMinute returns the series frequency normalized to rows per minute.
func (s *Series) RowsPerMinute() int {
	return RowsPerMinute(s.Granularity, s.Frequency)
}

// WithRows returns a shallow copy of the series metadata carrying the given rows.
func (s *Series) WithRows(rows []Row) *Series {
	out := *s
	out.Header = append([]string(nil), s.Header...)
	out.NumericCols = append([]int(nil), s.NumericCols...)
	out.Rows = rows
	return &out
}

// Clone returns a deep copy of the series.
func (s *Series) Clone() *Series {
	rows := make([]Row, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = r.Clone()
	}
	return s.WithRows(rows)
}

// Between returns the rows whose timestamps fall within [start, end].
func (s *Series) Between(start, end time.Time) *Series {
	var rows []Row
	for _, r := range s.Rows {
		if r.Time.Before(start) || r.Time.After(end) {
			continue
		}
		rows = append(rows, r)
	}
	return s.WithRows(rows)
}

// FieldHeader returns the header names of the non-timestamp fields.
func (s *Series) FieldHeader() []string {
	if len(s.Header) == 0 {
		return nil
	}
	return s.Header[1:]
}

// Interval is a labelled half-open time slice [Start, End).
// The final interval of a selection also includes its End.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// IsOther reports whether the interval is collapsed out of labelled output.
func (iv Interval) IsOther() bool {
	return iv.Label == OtherLabel
}

// TransitionIndex lists output row positions where the label changes.
// It starts with 0 and ends with TransitionSentinel.
type TransitionIndex []int

// Slices returns the number of labelled slices described by the index.
func (t TransitionIndex) Slices() int {
	if len(t) < 2 {
		return 0
	}
	return len(t) - 1
}

// OutputRow is an emitted row of a labelled or merged file.
type OutputRow struct {
	Time   time.Time
	Fields []string
	Values []float64
	RMS    *float64
	Label  string
}

// Value returns the numeric value of field i and whether it is numeric.
func (r OutputRow) Value(i int) (float64, bool) {
	if i < 0 || i >= len(r.Values) || math.IsNaN(r.Values[i]) {
		return 0, false
	}
	return r.Values[i], true
}

// EmitResult is the labelled output of a series walk.
type EmitResult struct {
	Header      []string        `json:"header"`
	Rows        []OutputRow     `json:"-"`
	Transitions TransitionIndex `json:"transitions"`
	Dropped     int             `json:"dropped"`
	Rebased     int             `json:"rebased"`
}

// SummaryRecord describes one labelled slice.
type SummaryRecord struct {
	Index    int           `json:"index"`
	Subject  string        `json:"subject"`
	Location string        `json:"location"`
	Label    string        `json:"label"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
	Rows     int           `json:"rows"`
	Means    []float64     `json:"means"`
	Stds     []float64     `json:"stds"`
}

// SummaryReport holds the per-slice summaries of a labelled file.
type SummaryReport struct {
	Columns       []string        `json:"columns"`
	Chronological []SummaryRecord `json:"chronological"`
	ByLabel       []SummaryRecord `json:"by_label,omitempty"`
}

// MergeResult is the output of merging two series.
type MergeResult struct {
	Header        []string         `json:"header"`
	Rows          []OutputRow      `json:"-"`
	Primary       string           `json:"primary"`
	Secondary     string           `json:"secondary"`
	Swapped       bool             `json:"swapped"`
	Synchronized  bool             `json:"synchronized"`
	Windows       int              `json:"windows"`
	CarriedWindow int              `json:"carried_windows"`
	Mismatches    []MismatchRecord `json:"mismatches"`
}

// MismatchRecord notes a merge window where the secondary outnumbered the primary.
type MismatchRecord struct {
	PrimaryWindow   time.Time `json:"primary_window"`
	SecondaryWindow time.Time `json:"secondary_window"`
	PrimaryRows     int       `json:"primary_rows"`
	SecondaryRows   int       `json:"secondary_rows"`
	Discarded       int       `json:"discarded"`
}

// LabelRun is a maximal run of identical predicted labels.
type LabelRun struct {
	Label    string        `json:"label"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration"`
}

// HistogramBin is one bucket of a histogram.
type HistogramBin struct {
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	Counts []int   `json:"counts"`
}

// HistogramResult holds the buckets for a set of columns.
type HistogramResult struct {
	Source  string         `json:"source"`
	Columns []string       `json:"columns"`
	Bins    []HistogramBin `json:"bins"`
	Total   int            `json:"total"`
}

// PhysioChange records a block whose values were replaced.
type PhysioChange struct {
	BlockIndex    int       `json:"block_index"`
	BlockStart    time.Time `json:"block_start"`
	Rows          int       `json:"rows"`
	PercentChange float64   `json:"percent_change"`
}

// DatasetWindow is one fixed-size window of a training dataset.
type DatasetWindow struct {
	Index  int         `json:"index"`
	Start  time.Time   `json:"start"`
	End    time.Time   `json:"end"`
	Label  string      `json:"label"`
	Values [][]float64 `json:"values"`
}

// Activities describes how a dataset was cut, so predictions can be mapped back.
type Activities struct {
	Layout     string   `json:"layout"`
	BlockSize  int      `json:"block_size"`
	Overlap    int      `json:"overlap"`
	Categories []string `json:"categories"`
	Row        []string `json:"row"`
}

// FileProfile describes a loaded tabular file.
type FileProfile struct {
	Path              string      `json:"path"`
	Kind              FileKind    `json:"kind"`
	Rows              int         `json:"rows"`
	Header            []string    `json:"header"`
	Format            string      `json:"format"`
	Granularity       Granularity `json:"granularity"`
	Frequency         int         `json:"frequency"`
	RowsPerMinute     int         `json:"rows_per_minute"`
	NumericColumns    []string    `json:"numeric_columns"`
	First             time.Time   `json:"first"`
	Last              time.Time   `json:"last"`
	MonthDayAmbiguous bool        `json:"month_day_ambiguous"`
}
