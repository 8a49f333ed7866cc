// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// OutWriter provides a unified interface for all report output.
// Reports go to cfg.OutputFile when set, otherwise to the writer's console.
type OutWriter struct {
	console io.Writer
}

// NewOutWriter creates an output writer that prints to stdout.
func NewOutWriter() *OutWriter {
	return &OutWriter{console: os.Stdout}
}

// NewOutWriterTo creates an output writer that prints to w instead of stdout.
func NewOutWriterTo(w io.Writer) *OutWriter {
	return &OutWriter{console: w}
}

// WriteSummary prints the per-slice summary of a labelled file.
func (ow *OutWriter) WriteSummary(report *schema.SummaryReport, cfg *contract.Config, duration time.Duration) error {
	return ow.printSummary(report, cfg, duration)
}

// WriteLabelRuns prints the runs of a predicted label sequence.
func (ow *OutWriter) WriteLabelRuns(runs []schema.LabelRun, cfg *contract.Config, duration time.Duration) error {
	return ow.printLabelRuns(runs, cfg, duration)
}

// WriteProfile prints what was inferred about a loaded file.
func (ow *OutWriter) WriteProfile(profile schema.FileProfile, cfg *contract.Config) error {
	return ow.printProfile(profile, cfg)
}

// WriteHistogram prints histogram buckets.
func (ow *OutWriter) WriteHistogram(result schema.HistogramResult, cfg *contract.Config) error {
	return ow.printHistogram(result, cfg)
}

// WriteMerge prints how two files were merged.
func (ow *OutWriter) WriteMerge(result *schema.MergeResult, cfg *contract.Config, duration time.Duration) error {
	return ow.printMerge(result, cfg, duration)
}

// WritePhysio prints the blocks replaced during physiological preprocessing.
func (ow *OutWriter) WritePhysio(changes []schema.PhysioChange, cfg *contract.Config, duration time.Duration) error {
	return ow.printPhysio(changes, cfg, duration)
}

// WriteGuide prints the list of operations.
func (ow *OutWriter) WriteGuide(cfg *contract.Config) error {
	return ow.printGuide(cfg)
}

// GetTerminalWidth returns the configured width, the detected terminal width, or 80.
func GetTerminalWidth(cfg *contract.Config) int {
	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// GetMaxTablePathWidth returns how many characters a file path may take in a two-column table.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	// Key column plus borders and padding
	available := GetTerminalWidth(cfg) - 30
	if available < 15 {
		return 15
	}
	if available > 90 {
		return 90
	}
	return available
}

// getMaxBarWidth returns how many characters the longest histogram bar may take.
func getMaxBarWidth(cfg *contract.Config, columns int) int {
	// Range and count columns take roughly 30 characters
	available := (GetTerminalWidth(cfg) - 30) / max(columns, 1)
	return min(max(available, 10), 60)
}
