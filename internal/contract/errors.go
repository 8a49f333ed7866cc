package contract

import (
	"errors"
	"fmt"
	"time"
)

// ErrInputExhausted is returned by a Prompter that has no more answers to give.
var ErrInputExhausted = errors.New("no more input available")

// ErrNoChange is returned when an operation finished without modifying anything.
var ErrNoChange = errors.New("no data was changed")

// MalformedInputError reports a file that cannot be read as a sensor table.
type MalformedInputError struct {
	Source string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Source == "" {
		return "malformed input: " + e.Reason
	}
	return fmt.Sprintf("malformed input %s: %s", e.Source, e.Reason)
}

// Malformed builds a MalformedInputError with a formatted reason.
func Malformed(source, format string, args ...any) error {
	return &MalformedInputError{Source: source, Reason: fmt.Sprintf(format, args...)}
}

// AmbiguousEncodingError reports that month and day cannot be told apart from the data.
type AmbiguousEncodingError struct {
	Source string
	Sample string
}

func (e *AmbiguousEncodingError) Error() string {
	return fmt.Sprintf("month and day are ambiguous in %s (sample %q)", e.Source, e.Sample)
}

// FrequencyMismatchWarning reports a merge window where the secondary file had more rows than the primary.
type FrequencyMismatchWarning struct {
	PrimaryWindow time.Time
	PrimaryRows   int
	SecondaryRows int
}

func (e *FrequencyMismatchWarning) Error() string {
	return fmt.Sprintf("secondary has %d rows against %d primary rows in window %s, excess discarded",
		e.SecondaryRows, e.PrimaryRows, e.PrimaryWindow.Format(time.DateTime))
}

// InvalidSelectionError reports operator input that can be retried.
type InvalidSelectionError struct {
	Field  string
	Input  string
	Reason string
}

func (e *InvalidSelectionError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Input, e.Reason)
}

// InvalidSelection builds an InvalidSelectionError with a formatted reason.
func InvalidSelection(field, input, format string, args ...any) error {
	return &InvalidSelectionError{Field: field, Input: input, Reason: fmt.Sprintf(format, args...)}
}

// FixedPointNotFoundError reports a timestamp correction that failed to converge.
type FixedPointNotFoundError struct {
	Target     string
	Last       string
	Iterations int
}

func (e *FixedPointNotFoundError) Error() string {
	return fmt.Sprintf("cannot render %q exactly after %d corrections (last %q)", e.Target, e.Iterations, e.Last)
}

// IsRetryable reports whether err came from operator input that may be asked for again.
func IsRetryable(err error) bool {
	var sel *InvalidSelectionError
	return errors.As(err, &sel)
}

// IsFatal reports whether err must abort the current operation.
func IsFatal(err error) bool {
	var malformed *MalformedInputError
	var fixed *FixedPointNotFoundError
	return errors.As(err, &malformed) || errors.As(err, &fixed)
}
