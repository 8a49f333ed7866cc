package contract

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/huangsam/sensorlabel/schema"
)

// Default values for configuration.
const (
	DefaultPrecision     = 2
	DefaultBins          = 10
	MinBins              = 2
	MaxBins              = 100
	DefaultPercent       = 50.0
	MinPercent           = 5.0
	MaxPercent           = 95.0
	DefaultWindowSize    = 60
	DefaultOverlap       = 50
	DefaultPhysioSeconds = 30
	DefaultMaxSamples    = 1000000
	MinPerSecond         = 5
)

// CacheMaxAge is how long a cached load profile is trusted.
const CacheMaxAge = 30 * 24 * time.Hour

// Config holds the runtime configuration for an operation.
// This struct remains the "final, validated" config.
type Config struct {
	InputFiles []string

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	DataFile    string
	SummaryFile string
	ParquetFile string

	Columns      string // Raw column selection, resolved once the header is known
	SwapMonthDay schema.AnswerMode
	PerSecond    int
	Scale        bool
	Subject      string
	Location     string
	Seed         int64
	Batch        bool
	MaxAttempts  int

	Points        []string
	Labels        []string
	AlternateSkip bool
	OtherFirst    bool
	RMS           bool
	RMSColumns    string

	Synchronized     schema.AnswerMode
	SecondaryColumns string // Selection for the second merge file; empty reuses Columns
	MergeFrom        string
	MergeTo          string
	SecondaryStart   string

	BlockMode    schema.BlockMode
	BlockSize    int
	Percent      float64
	TargetColumn int

	PredictionsFile string
	ActivitiesFile  string
	Model           schema.ModelKind
	LabelMap        string
	NoSmooth        bool

	LabelColumn int
	WindowSize  int
	Overlap     int

	Bins int

	VocabFile string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunBackend   schema.DatabaseBackend
	RunDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputFiles []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Precision      int    `mapstructure:"precision"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	DataFile       string `mapstructure:"data-file"`
	ParquetFile    string `mapstructure:"parquet-file"`
	Columns        string `mapstructure:"columns"`
	SwapMonthDay   string `mapstructure:"swap-month-day"`
	PerSecond      int    `mapstructure:"per-second"`
	Scale          bool   `mapstructure:"scale"`
	Subject        string `mapstructure:"subject"`
	Location       string `mapstructure:"location"`
	Seed           int64  `mapstructure:"seed"`
	Batch          bool   `mapstructure:"batch"`
	MaxAttempts    int    `mapstructure:"max-attempts"`
	VocabFile      string `mapstructure:"vocab-file"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	RunBackend     string `mapstructure:"run-backend"`
	RunDBConnect   string `mapstructure:"run-db-connect"`

	// --- Fields from labelCmd.Flags() ---
	Points        string `mapstructure:"points"`
	Labels        string `mapstructure:"labels"`
	AlternateSkip bool   `mapstructure:"alternate-skip"`
	OtherFirst    bool   `mapstructure:"other-first"`
	RMS           bool   `mapstructure:"rms"`
	RMSColumns    string `mapstructure:"rms-columns"`
	SummaryFile   string `mapstructure:"summary-file"`

	// --- Fields from mergeCmd.Flags() ---
	Synchronized     string `mapstructure:"synchronized"`
	SecondaryColumns string `mapstructure:"secondary-columns"`
	MergeFrom        string `mapstructure:"merge-from"`
	MergeTo          string `mapstructure:"merge-to"`
	SecondaryStart   string `mapstructure:"secondary-start"`

	// --- Fields from physioCmd.Flags() ---
	BlockMode    string  `mapstructure:"block-mode"`
	BlockSize    int     `mapstructure:"block-size"`
	Percent      float64 `mapstructure:"percent"`
	TargetColumn int     `mapstructure:"target-column"`

	// --- Fields from predictCmd.Flags() ---
	Predictions string `mapstructure:"predictions"`
	Activities  string `mapstructure:"activities"`
	Model       string `mapstructure:"model"`
	LabelMap    string `mapstructure:"label-map"`
	NoSmooth    bool   `mapstructure:"no-smooth"`

	// --- Fields from datasetCmd.Flags() ---
	LabelColumn int `mapstructure:"label-column"`
	WindowSize  int `mapstructure:"window-size"`
	Overlap     int `mapstructure:"overlap"`

	// --- Fields from histogramCmd.Flags() ---
	Bins int `mapstructure:"bins"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.InputFiles = append([]string(nil), c.InputFiles...)
	clone.Points = append([]string(nil), c.Points...)
	clone.Labels = append([]string(nil), c.Labels...)
	return &clone
}

// Params returns the config values worth recording alongside a run.
func (c *Config) Params() map[string]any {
	params := map[string]any{
		"inputs":         c.InputFiles,
		"columns":        c.Columns,
		"swap_month_day": string(c.SwapMonthDay),
		"per_second":     c.PerSecond,
		"scale":          c.Scale,
	}
	optional := map[string]any{}
	if len(c.Points) > 0 {
		optional["points"] = c.Points
	}
	if len(c.Labels) > 0 {
		optional["labels"] = c.Labels
	}
	if c.Subject != "" {
		optional["subject"] = c.Subject
	}
	if c.Location != "" {
		optional["location"] = c.Location
	}
	maps.Copy(params, optional)
	return params
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processLabelInputs(cfg, input); err != nil {
		return err
	}
	if err := processMergeInputs(cfg, input); err != nil {
		return err
	}
	if err := processPhysioInputs(cfg, input); err != nil {
		return err
	}
	if err := processModelInputs(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and run backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Run Backend Validation ---
	cfg.RunBackend = schema.DatabaseBackend(strings.ToLower(input.RunBackend))
	if cfg.RunBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunBackend]; !ok {
		return fmt.Errorf("invalid run backend '%s'. must be sqlite, mysql, postgresql, none", input.RunBackend)
	}
	cfg.RunDBConnect = input.RunDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunBackend, cfg.RunDBConnect); err != nil {
		return err
	}

	// Cache and run history must not share one SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		runPath := cfg.RunDBConnect
		if runPath == "" {
			runPath = GetRunDBFilePath()
		}
		if cachePath == runPath {
			return fmt.Errorf("cache and run storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the shared, non-operation fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.InputFiles = input.InputFiles
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.DataFile = input.DataFile
	cfg.ParquetFile = input.ParquetFile
	cfg.SummaryFile = input.SummaryFile
	cfg.Columns = input.Columns
	cfg.Scale = input.Scale
	cfg.Subject = strings.TrimSpace(input.Subject)
	cfg.Location = strings.TrimSpace(input.Location)
	cfg.Seed = input.Seed
	cfg.Batch = input.Batch
	cfg.VocabFile = input.VocabFile
	if cfg.VocabFile == "" {
		cfg.VocabFile = GetVocabFilePath()
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 2. Month/Day Policy Validation ---
	mode, err := parseAnswerMode("swap-month-day", input.SwapMonthDay)
	if err != nil {
		return err
	}
	cfg.SwapMonthDay = mode

	// --- 3. Sampling Validation ---
	if input.PerSecond < 0 {
		return fmt.Errorf("per-second must not be negative (received %d)", input.PerSecond)
	}
	if input.PerSecond > 0 && input.PerSecond < MinPerSecond {
		return fmt.Errorf("per-second must be 0 or at least %d (received %d)", MinPerSecond, input.PerSecond)
	}
	cfg.PerSecond = input.PerSecond

	if input.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	} else {
		cfg.MaxAttempts = input.MaxAttempts
	}

	// --- 4. Histogram Validation ---
	bins := input.Bins
	if bins == 0 {
		bins = DefaultBins
	}
	if bins < MinBins || bins > MaxBins {
		return fmt.Errorf("bins must be between %d and %d (received %d)", MinBins, MaxBins, input.Bins)
	}
	cfg.Bins = bins

	return nil
}

// processLabelInputs handles boundary points, labels and derived-column settings.
func processLabelInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Points = schema.SplitList(input.Points)
	cfg.Labels = schema.SplitList(input.Labels)
	cfg.AlternateSkip = input.AlternateSkip
	cfg.OtherFirst = input.OtherFirst
	cfg.RMS = input.RMS || input.RMSColumns != ""
	cfg.RMSColumns = input.RMSColumns

	if len(cfg.Points) == 1 {
		return fmt.Errorf("--points needs at least two boundaries (received %q)", input.Points)
	}
	if cfg.OtherFirst && !cfg.AlternateSkip {
		return fmt.Errorf("--other-first only applies together with --alternate-skip")
	}
	return nil
}

// processMergeInputs handles synchronization policy and explicit merge windows.
func processMergeInputs(cfg *Config, input *ConfigRawInput) error {
	mode, err := parseAnswerMode("synchronized", input.Synchronized)
	if err != nil {
		return err
	}
	cfg.Synchronized = mode
	cfg.SecondaryColumns = strings.TrimSpace(input.SecondaryColumns)
	cfg.MergeFrom = strings.TrimSpace(input.MergeFrom)
	cfg.MergeTo = strings.TrimSpace(input.MergeTo)
	cfg.SecondaryStart = strings.TrimSpace(input.SecondaryStart)
	if cfg.SecondaryStart != "" && cfg.Synchronized == schema.YesAnswer {
		return fmt.Errorf("--secondary-start only applies to unsynchronized files")
	}
	return nil
}

// processPhysioInputs handles the physiological preprocessing knobs.
func processPhysioInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.BlockMode = schema.BlockMode(strings.ToLower(input.BlockMode))
	if cfg.BlockMode == "" {
		cfg.BlockMode = schema.MinuteBlocks
	}
	if _, ok := schema.ValidBlockModes[cfg.BlockMode]; !ok {
		return fmt.Errorf("invalid block mode '%s'. must be minute, seconds, records", input.BlockMode)
	}

	cfg.BlockSize = input.BlockSize
	if cfg.BlockSize == 0 && cfg.BlockMode == schema.SecondsBlocks {
		cfg.BlockSize = DefaultPhysioSeconds
	}
	if cfg.BlockMode != schema.MinuteBlocks && cfg.BlockSize <= 0 {
		return fmt.Errorf("block-size must be greater than 0 for %s blocks (received %d)", cfg.BlockMode, input.BlockSize)
	}

	cfg.Percent = input.Percent
	if cfg.Percent == 0 {
		cfg.Percent = DefaultPercent
	}
	if cfg.Percent < MinPercent || cfg.Percent > MaxPercent {
		return fmt.Errorf("percent must be between %.0f and %.0f (received %.1f)", MinPercent, MaxPercent, input.Percent)
	}

	if input.TargetColumn < 0 {
		return fmt.Errorf("target-column must not be negative (received %d)", input.TargetColumn)
	}
	cfg.TargetColumn = input.TargetColumn
	return nil
}

// processModelInputs handles prediction and dataset settings.
func processModelInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.PredictionsFile = strings.TrimSpace(input.Predictions)
	cfg.ActivitiesFile = strings.TrimSpace(input.Activities)
	cfg.LabelMap = strings.TrimSpace(input.LabelMap)
	cfg.NoSmooth = input.NoSmooth

	cfg.Model = schema.ModelKind(strings.ToLower(input.Model))
	if cfg.Model == "" {
		cfg.Model = schema.MachineModel
	}
	if _, ok := schema.ValidModelKinds[cfg.Model]; !ok {
		return fmt.Errorf("invalid model '%s'. must be kmeans, machine, neural", input.Model)
	}

	if input.LabelColumn < 0 {
		return fmt.Errorf("label-column must not be negative (received %d)", input.LabelColumn)
	}
	cfg.LabelColumn = input.LabelColumn

	cfg.WindowSize = input.WindowSize
	if cfg.WindowSize == 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.WindowSize < 1 {
		return fmt.Errorf("window-size must be greater than 0 (received %d)", input.WindowSize)
	}

	if input.Overlap < 0 || input.Overlap >= 100 {
		return fmt.Errorf("overlap must be between 0 and 99 percent (received %d)", input.Overlap)
	}
	cfg.Overlap = input.Overlap
	return nil
}

func parseAnswerMode(flag, raw string) (schema.AnswerMode, error) {
	mode := schema.AnswerMode(strings.ToLower(strings.TrimSpace(raw)))
	if mode == "" {
		return schema.AskAnswer, nil
	}
	if _, ok := schema.ValidAnswerModes[mode]; ok {
		return mode, nil
	}
	if b, err := ParseBoolString(raw); err == nil {
		if b {
			return schema.YesAnswer, nil
		}
		return schema.NoAnswer, nil
	}
	return "", fmt.Errorf("invalid --%s value '%s'. must be ask, yes, no", flag, raw)
}
