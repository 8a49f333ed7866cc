package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/huangsam/sensorlabel/schema"
)

// Color variables for console output.
var (
	LabelColor    = color.New(color.FgCyan, color.Bold)  // LabelColor highlights activity labels.
	OtherColor    = color.New(color.FgHiBlack)           // OtherColor dims collapsed spans.
	WarnColor     = color.New(color.FgYellow)            // WarnColor marks recoverable problems.
	FatalColor    = color.New(color.FgRed, color.Bold)   // FatalColor marks unrecoverable problems.
	QuestionColor = color.New(color.FgMagenta)           // QuestionColor marks interactive prompts.
	SuccessColor  = color.New(color.FgGreen, color.Bold) // SuccessColor marks completed work.
)

// GetColorLabel returns a colored activity label for console output (table).
func GetColorLabel(label string) string {
	if label == schema.OtherLabel {
		return OtherColor.Sprint(label)
	}
	return LabelColor.Sprint(label)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s: %v\n", FatalColor.Sprint("Fatal"), msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s: %v\n", WarnColor.Sprint("Warn"), msg, err)
}

// LogInfo logs a progress line to stderr.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func homeFile(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(homeDir, name)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the load profile cache.
func GetCacheDBFilePath() string {
	return homeFile(".sensorlabel_cache.db")
}

// GetRunDBFilePath returns the path to the SQLite DB file for run history.
func GetRunDBFilePath() string {
	return homeFile(".sensorlabel_runs.db")
}

// GetVocabFilePath returns the path to the label vocabulary file.
func GetVocabFilePath() string {
	return homeFile(".sensorlabel_vocab.yaml")
}

// DerivedPath builds an output path next to input, e.g. data.csv -> data_labelled.csv.
// An empty ext keeps the input extension.
func DerivedPath(input, suffix, ext string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if ext == "" {
		ext = filepath.Ext(input)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return base + "_" + suffix + ext
}

// KindOf returns the file kind implied by a path's extension.
func KindOf(path string) schema.FileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return schema.XLSXFile
	default:
		return schema.CSVFile
	}
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "y", "n", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// ParseColumnSelection parses a selection like "2-4,6,7-9" into sorted, unique column indices.
// Column 0 (the timestamp) is always included. A blank selection keeps every column.
func ParseColumnSelection(raw string, total int) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if total <= 0 {
		return nil, InvalidSelection("columns", raw, "table has no columns")
	}
	if raw == "" {
		all := make([]int, total)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	picked := map[int]struct{}{0: {}}
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, InvalidSelection("columns", raw, "%q is not a column number", part)
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, InvalidSelection("columns", raw, "%q is not a column range", part)
			}
		}
		if start > end {
			return nil, InvalidSelection("columns", raw, "range %q runs backwards", part)
		}
		if start < 0 || end >= total {
			return nil, InvalidSelection("columns", raw, "column out of range 0-%d", total-1)
		}
		for c := start; c <= end; c++ {
			picked[c] = struct{}{}
		}
	}

	cols := make([]int, 0, len(picked))
	for c := range picked {
		cols = append(cols, c)
	}
	sort.Ints(cols)
	return cols, nil
}
