//go:build integration

// Package integration contains end-to-end tests that build and run the sensorlabel binary.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	bs, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(bs), "\n"), "\n")
}

// TestLabelVerification labels a recording with an Other gap and verifies the written files.
func TestLabelVerification(t *testing.T) {
	home := t.TempDir()
	input := writeRecording(t, home, "wrist.csv", 20)
	data := filepath.Join(home, "wrist_labelled.csv")
	summary := filepath.Join(home, "wrist_summary.csv")

	_, err := runCommand(t, home, nil, "label", input,
		"--points", "10:00:00,10:00:05,10:00:10,10:00:19",
		"--labels", "Walk,Other,Sit",
		"--data-file", data,
		"--summary-file", summary,
		"--batch")
	require.NoError(t, err)

	lines := readLines(t, data)
	assert.Equal(t, "Time,x,y,z,Label", lines[0])
	for _, line := range lines[1:] {
		assert.NotContains(t, line, ",Other")
	}
	assert.True(t, strings.HasSuffix(lines[1], ",Walk"))
	assert.True(t, strings.HasSuffix(lines[len(lines)-1], ",Sit"))

	summaryText := strings.Join(readLines(t, summary), "\n")
	assert.Contains(t, summaryText, "Walk")
	assert.Contains(t, summaryText, "Sit")
}

// TestCombineVerification appends two recordings and checks the continuous timeline.
func TestCombineVerification(t *testing.T) {
	home := t.TempDir()
	first := writeRecording(t, home, "a.csv", 5)
	second := writeRecording(t, home, "b.csv", 5)
	out := filepath.Join(home, "combined.csv")

	_, err := runCommand(t, home, nil, "combine", first, second, "--data-file", out, "--batch")
	require.NoError(t, err)

	lines := readLines(t, out)
	require.Len(t, lines, 11)
	assert.True(t, strings.HasPrefix(lines[6], "2024/03/24 10:00:05,"), lines[6])
}

// TestVersionAndGuide runs the commands that need no input.
func TestVersionAndGuide(t *testing.T) {
	home := t.TempDir()

	out, err := runCommand(t, home, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sensorlabel CLI")

	out, err = runCommand(t, home, nil, "guide")
	require.NoError(t, err)
	assert.Contains(t, out, "label")
}
