package contract

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/sensorlabel/schema"
)

// validInput returns a raw input that passes validation; tests tweak one field at a time.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		InputFiles:   []string{"walk.csv"},
		Output:       "text",
		Precision:    2,
		Color:        "yes",
		SwapMonthDay: "ask",
		Synchronized: "ask",
		CacheBackend: "none",
		Bins:         10,
		Percent:      50,
		WindowSize:   60,
		Overlap:      50,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{"valid minimal config", func(*ConfigRawInput) {}, false},
		{"invalid output", func(in *ConfigRawInput) { in.Output = "yaml" }, true},
		{"parquet needs output file", func(in *ConfigRawInput) { in.Output = "parquet" }, true},
		{"parquet with output file", func(in *ConfigRawInput) { in.Output = "parquet"; in.OutputFile = "x.parquet" }, false},
		{"precision too high", func(in *ConfigRawInput) { in.Precision = 7 }, true},
		{"invalid color", func(in *ConfigRawInput) { in.Color = "purple" }, true},
		{"swap policy as bool", func(in *ConfigRawInput) { in.SwapMonthDay = "true" }, false},
		{"invalid swap policy", func(in *ConfigRawInput) { in.SwapMonthDay = "sometimes" }, true},
		{"negative per-second", func(in *ConfigRawInput) { in.PerSecond = -1 }, true},
		{"per-second below minimum", func(in *ConfigRawInput) { in.PerSecond = 4 }, true},
		{"per-second at minimum", func(in *ConfigRawInput) { in.PerSecond = 5 }, false},
		{"bins below range", func(in *ConfigRawInput) { in.Bins = 1 }, true},
		{"bins above range", func(in *ConfigRawInput) { in.Bins = 101 }, true},
		{"single point", func(in *ConfigRawInput) { in.Points = "2024-01-01 10:00:00" }, true},
		{"other-first without alternate", func(in *ConfigRawInput) { in.OtherFirst = true }, true},
		{"secondary start with sync", func(in *ConfigRawInput) { in.Synchronized = "yes"; in.SecondaryStart = "10:00" }, true},
		{"percent below range", func(in *ConfigRawInput) { in.Percent = 2 }, true},
		{"percent above range", func(in *ConfigRawInput) { in.Percent = 96 }, true},
		{"invalid block mode", func(in *ConfigRawInput) { in.BlockMode = "hourly" }, true},
		{"records blocks need size", func(in *ConfigRawInput) { in.BlockMode = "records" }, true},
		{"seconds blocks default size", func(in *ConfigRawInput) { in.BlockMode = "seconds" }, false},
		{"invalid model", func(in *ConfigRawInput) { in.Model = "forest" }, true},
		{"overlap too high", func(in *ConfigRawInput) { in.Overlap = 100 }, true},
		{"invalid cache backend", func(in *ConfigRawInput) { in.CacheBackend = "redis" }, true},
		{"mysql missing connect", func(in *ConfigRawInput) { in.CacheBackend = "mysql" }, true},
		{"invalid run backend", func(in *ConfigRawInput) { in.RunBackend = "redis" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	input := validInput()
	input.Points = "2024-01-01 10:00:00, 2024-01-01 10:05:00 ,2024-01-01 10:09:00"
	input.Labels = "Walk,Sit"
	input.RMSColumns = "1-3"
	input.Percent = 0
	input.Bins = 0
	input.WindowSize = 0

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, []string{"2024-01-01 10:00:00", "2024-01-01 10:05:00", "2024-01-01 10:09:00"}, cfg.Points)
	assert.Equal(t, []string{"Walk", "Sit"}, cfg.Labels)
	assert.True(t, cfg.RMS)
	assert.Equal(t, DefaultPercent, cfg.Percent)
	assert.Equal(t, DefaultBins, cfg.Bins)
	assert.Equal(t, DefaultWindowSize, cfg.WindowSize)
	assert.Equal(t, schema.MinuteBlocks, cfg.BlockMode)
	assert.Equal(t, schema.MachineModel, cfg.Model)
	assert.Equal(t, schema.AskAnswer, cfg.SwapMonthDay)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, GetVocabFilePath(), cfg.VocabFile)
}

func TestValidateBackendConfigsSQLiteConflict(t *testing.T) {
	dir := t.TempDir()
	shared := filepath.Join(dir, "shared.db")

	input := validInput()
	input.CacheBackend = "sqlite"
	input.CacheDBConnect = shared
	input.RunBackend = "sqlite"
	input.RunDBConnect = shared
	assert.Error(t, ProcessAndValidate(&Config{}, input))

	input.RunDBConnect = filepath.Join(dir, "runs.db")
	assert.NoError(t, ProcessAndValidate(&Config{}, input))
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{schema.SQLiteBackend, "", false},
		{schema.NoneBackend, "", false},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)/db", false},
		{schema.MySQLBackend, "user:pass@localhost/db", true},
		{schema.MySQLBackend, "", true},
		{schema.PostgreSQLBackend, "host=localhost user=u dbname=db", false},
		{schema.PostgreSQLBackend, "user=u dbname=db", true},
		{schema.PostgreSQLBackend, "host=localhost", true},
	}
	for _, tt := range tests {
		err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
		if tt.wantErr {
			assert.Error(t, err, "%s %q", tt.backend, tt.conn)
		} else {
			assert.NoError(t, err, "%s %q", tt.backend, tt.conn)
		}
	}
}

func TestConfigCloneAndParams(t *testing.T) {
	cfg := &Config{InputFiles: []string{"a.csv"}, Points: []string{"p1", "p2"}, Labels: []string{"Walk"}, Subject: "S01"}
	clone := cfg.Clone()
	clone.InputFiles[0] = "b.csv"
	clone.Labels[0] = "Sit"
	assert.Equal(t, "a.csv", cfg.InputFiles[0])
	assert.Equal(t, "Walk", cfg.Labels[0])

	params := cfg.Params()
	assert.Equal(t, "S01", params["subject"])
	assert.Equal(t, []string{"p1", "p2"}, params["points"])
	_, hasLocation := params["location"]
	assert.False(t, hasLocation)
}
