package contract

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxAttempts bounds how often a retryable answer is asked for.
const DefaultMaxAttempts = 3

// ConsolePrompter reads answers line by line from a terminal.
type ConsolePrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewConsolePrompter creates a prompter reading from in and writing questions to out.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{in: bufio.NewScanner(in), out: out}
}

// Ask prints the question and returns the trimmed reply.
func (p *ConsolePrompter) Ask(question string) (string, error) {
	_, _ = fmt.Fprintf(p.out, "%s ", QuestionColor.Sprint(question))
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", ErrInputExhausted
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// Confirm asks a yes/no question.
func (p *ConsolePrompter) Confirm(question string) (bool, error) {
	return confirmWith(p, question)
}

// CannedPrompter replays a fixed list of answers. It is used in batch runs and tests.
type CannedPrompter struct {
	Answers []string
	Asked   []string
	pos     int
}

// NewCannedPrompter creates a prompter that answers with the given replies in order.
func NewCannedPrompter(answers ...string) *CannedPrompter {
	return &CannedPrompter{Answers: answers}
}

// Ask records the question and returns the next canned answer.
func (p *CannedPrompter) Ask(question string) (string, error) {
	p.Asked = append(p.Asked, question)
	if p.pos >= len(p.Answers) {
		return "", ErrInputExhausted
	}
	answer := p.Answers[p.pos]
	p.pos++
	return strings.TrimSpace(answer), nil
}

// Confirm consumes the next canned answer as a yes/no reply.
func (p *CannedPrompter) Confirm(question string) (bool, error) {
	return confirmWith(p, question)
}

// Remaining returns how many canned answers are unused.
func (p *CannedPrompter) Remaining() int {
	return len(p.Answers) - p.pos
}

func confirmWith(p Prompter, question string) (bool, error) {
	answer, err := p.Ask(question + " [yes/no]")
	if err != nil {
		return false, err
	}
	ok, err := ParseBoolString(answer)
	if err != nil {
		return false, InvalidSelection("answer", answer, "expected yes or no")
	}
	return ok, nil
}

// AskValid asks a question until parse accepts the answer or attempts run out.
// Only retryable errors trigger another attempt.
func AskValid[T any](p Prompter, question string, attempts int, parse func(string) (T, error)) (T, error) {
	var zero T
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	var lastErr error
	for range attempts {
		answer, err := p.Ask(question)
		if err != nil {
			return zero, err
		}
		value, err := parse(answer)
		if err == nil {
			return value, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}
		lastErr = err
		LogWarn("Try again", err)
	}
	return zero, fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
}

// ConfirmValid asks a yes/no question until a valid reply is given or attempts run out.
func ConfirmValid(p Prompter, question string, attempts int) (bool, error) {
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	var lastErr error
	for range attempts {
		ok, err := p.Confirm(question)
		if err == nil {
			return ok, nil
		}
		if !IsRetryable(err) {
			return false, err
		}
		lastErr = err
		LogWarn("Try again", err)
	}
	return false, fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
}
