package schema

import "time"

// Custom string types for type safety.
type (
	// OutputMode represents the format of the report output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and run history.
	DatabaseBackend string

	// Granularity represents the resolution of timestamps in a tabular file.
	Granularity string

	// FileKind represents the on-disk format of a tabular file.
	FileKind string

	// OperationKind represents a top-level operation the tool can perform.
	OperationKind string

	// ModelKind represents the model family that produced a predictions file.
	ModelKind string

	// BlockMode represents how physiological data is grouped into blocks.
	BlockMode string

	// AnswerMode represents how a yes/no decision is resolved.
	AnswerMode string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All granularities supported.
const (
	SecondGranularity Granularity = "second"
	MinuteGranularity Granularity = "minute"
)

// All file kinds supported.
const (
	CSVFile  FileKind = "csv" // default
	XLSXFile FileKind = "xlsx"
)

// All operations supported.
const (
	HelpOp      OperationKind = "help"
	LabelOp     OperationKind = "label"
	MergeOp     OperationKind = "merge"
	CombineOp   OperationKind = "combine"
	PhysioOp    OperationKind = "physio"
	PredictOp   OperationKind = "predict"
	DatasetOp   OperationKind = "dataset"
	HistogramOp OperationKind = "histogram"
)

// All model kinds supported.
const (
	KMeansModel  ModelKind = "kmeans"
	MachineModel ModelKind = "machine" // default
	NeuralModel  ModelKind = "neural"
)

// All block modes supported.
const (
	MinuteBlocks  BlockMode = "minute" // default
	SecondsBlocks BlockMode = "seconds"
	RecordBlocks  BlockMode = "records"
)

// All answer modes supported.
const (
	AskAnswer AnswerMode = "ask" // default
	YesAnswer AnswerMode = "yes"
	NoAnswer  AnswerMode = "no"
)

const (
	// OtherLabel marks a span that is collapsed out of labelled output.
	OtherLabel = "Other"

	// TimeColumn is the header name of the leading timestamp column.
	TimeColumn = "Time"

	// RMSColumn is the header name of the derived root-mean-square column.
	RMSColumn = "RMS"

	// LabelColumn is the header name of the appended label column.
	LabelColumn = "Label"

	// CanonicalLayout is the fixed-width rendering used for month/day checks.
	CanonicalLayout = "2006/01/02 15:04:05"

	// TransitionSentinel terminates a TransitionIndex.
	TransitionSentinel = -1
)

// AllOperationKinds lists every operation in display order.
var AllOperationKinds = []OperationKind{HelpOp, LabelOp, MergeOp, CombineOp, PhysioOp, PredictOp, DatasetOp, HistogramOp}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidOperationKinds lists all valid operations.
var ValidOperationKinds = map[OperationKind]struct{}{
	HelpOp:      {},
	LabelOp:     {},
	MergeOp:     {},
	CombineOp:   {},
	PhysioOp:    {},
	PredictOp:   {},
	DatasetOp:   {},
	HistogramOp: {},
}

// ValidModelKinds lists all valid model kinds.
var ValidModelKinds = map[ModelKind]struct{}{
	KMeansModel:  {},
	MachineModel: {},
	NeuralModel:  {},
}

// ValidBlockModes lists all valid block modes.
var ValidBlockModes = map[BlockMode]struct{}{
	MinuteBlocks:  {},
	SecondsBlocks: {},
	RecordBlocks:  {},
}

// ValidAnswerModes lists all valid answer modes.
var ValidAnswerModes = map[AnswerMode]struct{}{
	AskAnswer: {},
	YesAnswer: {},
	NoAnswer:  {},
}

// OperationDescriptions gives a one-line summary for each operation.
var OperationDescriptions = map[OperationKind]string{
	HelpOp:      "Show the operation guide",
	LabelOp:     "Label time slices of a sensor file and summarize each slice",
	MergeOp:     "Merge two sensor files recorded at different frequencies",
	CombineOp:   "Concatenate sensor files end to end on a continuous timeline",
	PhysioOp:    "Replace physiological blocks that jump past a percentage threshold",
	PredictOp:   "Turn model predictions into smoothed, labelled activity runs",
	DatasetOp:   "Cut a labelled file into fixed-size windows for model training",
	HistogramOp: "Show the distribution of selected numeric columns",
}

// Unit returns the duration of one timestamp step at this granularity.
func (g Granularity) Unit() time.Duration {
	if g == MinuteGranularity {
		return time.Minute
	}
	return time.Second
}

// RowsPerMinute normalizes a frequency to rows per minute.
func RowsPerMinute(g Granularity, frequency int) int {
	if g == SecondGranularity {
		return frequency * 60
	}
	return frequency
}
