package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/internal/iocache"
	"github.com/huangsam/sensorlabel/internal/outwriter"
	"github.com/huangsam/sensorlabel/internal/tabular"
	"github.com/huangsam/sensorlabel/internal/vocab"
	"github.com/huangsam/sensorlabel/schema"
)

// testConfig returns a validated-looking config for the given inputs.
func testConfig(inputs ...string) *contract.Config {
	return &contract.Config{
		InputFiles:   inputs,
		Output:       schema.TextOut,
		Precision:    2,
		MaxAttempts:  3,
		SwapMonthDay: schema.AskAnswer,
		Synchronized: schema.AskAnswer,
		BlockMode:    schema.MinuteBlocks,
		Percent:      contract.DefaultPercent,
		Model:        schema.MachineModel,
		WindowSize:   contract.DefaultWindowSize,
		Bins:         contract.DefaultBins,
	}
}

// newTestPipeline wires a pipeline with canned answers and a buffer for reports.
func newTestPipeline(cfg *contract.Config, mgr contract.CacheManager, answers ...string) (*Pipeline, *contract.CannedPrompter, *bytes.Buffer) {
	var buf bytes.Buffer
	prompter := contract.NewCannedPrompter(answers...)
	if mgr == nil {
		mgr = iocache.NewCacheStoreManager(nil, nil)
	}
	return &Pipeline{
		Cfg:      cfg,
		Mgr:      mgr,
		Prompter: prompter,
		Rand:     testRand(),
		Out:      outwriter.NewOutWriterTo(&buf),
		Vocab:    vocab.Default(),
	}, prompter, &buf
}

// writeSensorFile writes a CSV with a header and one row per (offset, fields) pair.
func writeSensorFile(t *testing.T, name string, start time.Time, header string, rows int, fields func(i int) (time.Duration, string)) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(header + "\n")
	for i := range rows {
		offset, rest := fields(i)
		fmt.Fprintf(&sb, "%s,%s\n", start.Add(offset).Format("2006/01/02 15:04:05"), rest)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

var unambiguousStart = time.Date(2024, 3, 24, 10, 0, 0, 0, time.UTC)

func perSecondFile(t *testing.T, name string, seconds int) string {
	return writeSensorFile(t, name, unambiguousStart, "Time,x,y", seconds, func(i int) (time.Duration, string) {
		return time.Duration(i) * time.Second, fmt.Sprintf("%d,%d", i, i*2)
	})
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	bs, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(bs)), "\n")
}

func TestNewPipeline(t *testing.T) {
	cfg := testConfig()
	cfg.Batch = true
	cfg.Seed = 99
	p := NewPipeline(cfg, nil)
	assert.IsType(t, &contract.CannedPrompter{}, p.Prompter)
	assert.NotNil(t, p.Rand)
	assert.NotNil(t, p.Out)
	assert.Nil(t, p.loadStore())
	assert.Nil(t, p.runStore())

	again := NewPipeline(cfg, nil)
	assert.Equal(t, p.Rand.Uint64(), again.Rand.Uint64(), "same seed gives the same sampling")

	cfg.Batch = false
	assert.IsType(t, &contract.ConsolePrompter{}, NewPipeline(cfg, nil).Prompter)
}

func TestDecide(t *testing.T) {
	p, _, _ := newTestPipeline(testConfig(), nil, "maybe", "y")

	ok, err := p.decide(schema.YesAnswer, "q", false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.decide(schema.NoAnswer, "q", true)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.decide(schema.AskAnswer, "q", false)
	require.NoError(t, err)
	assert.True(t, ok, "an invalid reply is asked again")

	_, err = p.decide(schema.AskAnswer, "q", false)
	assert.ErrorIs(t, err, contract.ErrInputExhausted)

	p.Cfg.Batch = true
	ok, err = p.decide(schema.AskAnswer, "q", true)
	require.NoError(t, err)
	assert.True(t, ok, "batch runs take the fallback")
}

func TestLoadSeriesInfersFrequency(t *testing.T) {
	path := writeSensorFile(t, "acc.csv", unambiguousStart, "Time,x", 20, func(i int) (time.Duration, string) {
		return time.Duration(i/4) * time.Second, fmt.Sprint(i)
	})
	p, prompter, _ := newTestPipeline(testConfig(path), nil)

	s, err := p.loadSeries(context.Background(), path, loadOptions{})
	require.NoError(t, err)
	assert.Equal(t, schema.SecondGranularity, s.Granularity)
	assert.Equal(t, 4, s.Frequency)
	assert.Empty(t, prompter.Asked, "day 24 rules out a month/day swap")
}

func TestLoadSeriesCancelled(t *testing.T) {
	p, _, _ := newTestPipeline(testConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.loadSeries(ctx, "missing.csv", loadOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadSeriesColumnSelection(t *testing.T) {
	path := perSecondFile(t, "acc.csv", 5)
	cfg := testConfig(path)
	cfg.Columns = "2"
	p, _, _ := newTestPipeline(cfg, nil)

	s, err := p.loadSeries(context.Background(), path, loadOptions{Columns: cfg.Columns})
	require.NoError(t, err)
	assert.Equal(t, []string{"Time", "y"}, s.Header)
	assert.Equal(t, "8", s.Rows[4].Fields[0])

	cfg.Columns = "9"
	_, err = p.loadSeries(context.Background(), path, loadOptions{Columns: cfg.Columns})
	assert.True(t, contract.IsRetryable(err))
}

func TestLoadSeriesSamplingAndScale(t *testing.T) {
	path := writeSensorFile(t, "fast.csv", unambiguousStart, "Time,x", 80, func(i int) (time.Duration, string) {
		return time.Duration(i/8) * time.Second, fmt.Sprint(i % 8)
	})
	cfg := testConfig(path)
	cfg.PerSecond = 6
	cfg.Scale = true
	p, _, _ := newTestPipeline(cfg, nil)

	s, err := p.loadSeries(context.Background(), path, loadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 60, s.Len())
	assert.Equal(t, 6, s.Frequency)

	raw, err := p.loadSeries(context.Background(), path, loadOptions{NoSampling: true})
	require.NoError(t, err)
	assert.Equal(t, 80, raw.Len())
	assert.Equal(t, "7", raw.Rows[7].Fields[0])
}

// ambiguousFile has dates where month and day are both at most 12.
func ambiguousFile(t *testing.T) string {
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	return writeSensorFile(t, "amb.csv", start, "Time,x", 6, func(i int) (time.Duration, string) {
		return time.Duration(i) * time.Second, fmt.Sprint(i)
	})
}

func TestLoadSeriesSwapsMonthDayAndCaches(t *testing.T) {
	path := ambiguousFile(t)
	key, err := loadProfileKey(path)
	require.NoError(t, err)

	store := &iocache.MockCacheStore{}
	store.On("Get", key).Return(nil, 0, int64(0), errors.New("miss")).Once()
	store.On("Set", key, mock.MatchedBy(func(b []byte) bool {
		return strings.Contains(string(b), `"month_day_swapped":true`) && strings.Contains(string(b), `"frequency":1`)
	}), currentCacheVersion, mock.AnythingOfType("int64")).Return(nil).Once()

	p, prompter, _ := newTestPipeline(testConfig(path), iocache.NewCacheStoreManager(store, nil), "yes")
	s, err := p.loadSeries(context.Background(), path, loadOptions{})
	require.NoError(t, err)

	assert.Len(t, prompter.Asked, 1)
	assert.True(t, s.MonthDaySwapped)
	assert.Equal(t, time.April, s.First().Month())
	assert.Equal(t, 3, s.First().Day())
	store.AssertExpectations(t)
}

func TestLoadSeriesUsesCachedProfile(t *testing.T) {
	path := ambiguousFile(t)
	key, err := loadProfileKey(path)
	require.NoError(t, err)
	raw, err := tabular.Load(path, tabular.LoadOptions{Rand: testRand()})
	require.NoError(t, err)

	data, err := json.Marshal(schema.LoadProfile{
		Layout:          raw.Layout,
		HasSeconds:      true,
		Granularity:     schema.SecondGranularity,
		Frequency:       1,
		MonthDaySwapped: true,
	})
	require.NoError(t, err)
	store := &iocache.MockCacheStore{}
	store.On("Get", key).Return(data, currentCacheVersion, time.Now().Unix(), nil)

	p, prompter, _ := newTestPipeline(testConfig(path), iocache.NewCacheStoreManager(store, nil))
	s, err := p.loadSeries(context.Background(), path, loadOptions{})
	require.NoError(t, err)

	assert.Empty(t, prompter.Asked, "a cached decision is not asked again")
	assert.True(t, s.MonthDaySwapped)
	assert.Equal(t, time.April, s.First().Month())
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckCacheHit(t *testing.T) {
	good, err := json.Marshal(schema.LoadProfile{Layout: "x", Frequency: 3})
	require.NoError(t, err)
	now := time.Now().Unix()
	stale := time.Now().Add(-contract.CacheMaxAge - time.Hour).Unix()

	tests := []struct {
		name    string
		data    []byte
		version int
		ts      int64
		err     error
		hit     bool
	}{
		{"valid", good, currentCacheVersion, now, nil, true},
		{"old version", good, currentCacheVersion + 1, now, nil, false},
		{"stale", good, currentCacheVersion, stale, nil, false},
		{"corrupt", []byte("{"), currentCacheVersion, now, nil, false},
		{"miss", nil, 0, 0, errors.New("not found"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &iocache.MockCacheStore{}
			store.On("Get", "k").Return(tt.data, tt.version, tt.ts, tt.err)
			got := checkCacheHit(store, "k")
			if tt.hit {
				require.NotNil(t, got)
				assert.Equal(t, 3, got.Frequency)
			} else {
				assert.Nil(t, got)
			}
		})
	}
	assert.Nil(t, checkCacheHit(nil, "k"))
}

func TestLoadProfileKeyChangesWithContent(t *testing.T) {
	path := perSecondFile(t, "acc.csv", 5)
	k1, err := loadProfileKey(path)
	require.NoError(t, err)
	assert.Len(t, k1, 64)

	require.NoError(t, os.WriteFile(path, []byte("Time,x\n"), 0o644))
	k2, err := loadProfileKey(path)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	_, err = loadProfileKey(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestRunTracker(t *testing.T) {
	runs := &iocache.MockRunStore{}
	runs.On("BeginRun", schema.LabelOp, "in.csv", mock.AnythingOfType("time.Time"), mock.Anything).Return(int64(5), nil)
	runs.On("RecordSlices", int64(5), mock.MatchedBy(func(s []schema.SliceRecord) bool { return len(s) == 1 && s[0].RunID == 5 })).Return(nil)
	runs.On("EndRun", int64(5), mock.AnythingOfType("time.Time"), 10, 8).Return(nil)

	p, _, _ := newTestPipeline(testConfig("in.csv"), iocache.NewCacheStoreManager(nil, runs))
	ctx, tracker := p.beginRun(WithQuiet(context.Background()), schema.LabelOp, "in.csv")
	require.NotNil(t, tracker)
	assert.Equal(t, int64(5), runIDFrom(ctx))

	tracker.recordSlices([]schema.SummaryRecord{{Label: "Walk"}})
	tracker.recordSlices(nil)
	tracker.end(10, 8)
	runs.AssertExpectations(t)
}

func TestRunTrackerDisabled(t *testing.T) {
	p, _, _ := newTestPipeline(testConfig(), nil)
	ctx, tracker := p.beginRun(context.Background(), schema.LabelOp, "in.csv")
	assert.Nil(t, tracker)
	assert.Equal(t, int64(0), runIDFrom(ctx))
	tracker.recordSlices([]schema.SummaryRecord{{Label: "Walk"}})
	tracker.end(1, 1)

	failing := &iocache.MockRunStore{}
	failing.On("BeginRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))
	p.Mgr = iocache.NewCacheStoreManager(nil, failing)
	_, tracker = p.beginRun(context.Background(), schema.LabelOp, "in.csv")
	assert.Nil(t, tracker)
}

func TestRequireInputs(t *testing.T) {
	p, _, _ := newTestPipeline(testConfig("a.csv"), nil)
	assert.NoError(t, p.requireInputs(schema.LabelOp, 1, 1))
	assert.ErrorContains(t, p.requireInputs(schema.MergeOp, 2, 2), "merge needs 2 input file(s), got 1")
	assert.ErrorContains(t, p.requireInputs(schema.CombineOp, 2, 0), "at least 2")
}
