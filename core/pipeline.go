package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/internal/outwriter"
	"github.com/huangsam/sensorlabel/internal/tabular"
	"github.com/huangsam/sensorlabel/internal/vocab"
	"github.com/huangsam/sensorlabel/schema"
)

// Pipeline carries everything an operation needs. Nothing in the engine keeps package state.
type Pipeline struct {
	Cfg      *contract.Config
	Mgr      contract.CacheManager
	Prompter contract.Prompter
	Rand     *rand.Rand
	Out      *outwriter.OutWriter
	Vocab    *vocab.Vocabulary // Loaded from Cfg.VocabFile on first use when nil
}

// NewPipeline builds a pipeline for console use. Batch runs get a prompter without answers,
// so every question falls back to its default or fails.
func NewPipeline(cfg *contract.Config, mgr contract.CacheManager) *Pipeline {
	var prompter contract.Prompter = contract.NewConsolePrompter(os.Stdin, os.Stderr)
	if cfg.Batch {
		prompter = contract.NewCannedPrompter()
	}
	seed := uint64(cfg.Seed)
	if cfg.Seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Pipeline{
		Cfg:      cfg,
		Mgr:      mgr,
		Prompter: prompter,
		Rand:     rand.New(rand.NewPCG(seed, seed>>1|1)),
		Out:      outwriter.NewOutWriter(),
	}
}

func (p *Pipeline) loadStore() contract.CacheStore {
	if p.Mgr == nil {
		return nil
	}
	return p.Mgr.GetLoadStore()
}

func (p *Pipeline) runStore() contract.RunStore {
	if p.Mgr == nil {
		return nil
	}
	return p.Mgr.GetRunStore()
}

func (p *Pipeline) vocabulary() (*vocab.Vocabulary, error) {
	if p.Vocab != nil {
		return p.Vocab, nil
	}
	v, err := vocab.Load(p.Cfg.VocabFile)
	if err != nil {
		return nil, err
	}
	p.Vocab = v
	return v, nil
}

// decide resolves a yes/no policy. Ask mode prompts; a batch run that cannot be asked
// takes the fallback.
func (p *Pipeline) decide(mode schema.AnswerMode, question string, fallback bool) (bool, error) {
	switch mode {
	case schema.YesAnswer:
		return true, nil
	case schema.NoAnswer:
		return false, nil
	}
	ok, err := contract.ConfirmValid(p.Prompter, question, p.Cfg.MaxAttempts)
	if errors.Is(err, contract.ErrInputExhausted) && p.Cfg.Batch {
		return fallback, nil
	}
	return ok, err
}

func (p *Pipeline) logf(ctx context.Context, format string, args ...any) {
	if !isQuiet(ctx) {
		contract.LogInfo(format, args...)
	}
}

// loadOptions controls how an input file is prepared.
type loadOptions struct {
	MinColumns int
	Columns    string // Column selection; empty keeps every column
	NoSampling bool   // Skip downsampling and scaling
}

// loadSeries reads a file and resolves its timestamp layout, month/day order and frequency.
// Those inferences are cached per file; the month/day question is only asked on a miss.
func (p *Pipeline) loadSeries(ctx context.Context, path string, opts loadOptions) (*schema.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := tabular.Load(path, tabular.LoadOptions{MinColumns: opts.MinColumns, Rand: p.Rand})
	if err != nil {
		return nil, err
	}

	if opts.Columns != "" {
		cols, err := contract.ParseColumnSelection(opts.Columns, len(s.Header))
		if err != nil {
			return nil, err
		}
		s = tabular.SelectColumns(s, cols)
		if len(s.NumericCols) == 0 {
			return nil, contract.Malformed(path, "no numeric columns among %q", opts.Columns)
		}
	}

	store := p.loadStore()
	key, err := loadProfileKey(path)
	if err != nil {
		key = ""
	}
	if cached := checkCacheHit(store, key); cached != nil && cached.Layout == s.Layout {
		if cached.MonthDaySwapped {
			if s, err = swapMonthDay(s); err != nil {
				return nil, err
			}
		}
		s.Granularity = cached.Granularity
		s.Frequency = cached.Frequency
	} else {
		if s, err = p.resolveMonthDay(s); err != nil {
			return nil, err
		}
		if err := applyFrequency(s); err != nil {
			return nil, err
		}
		storeProfile(store, key, s)
	}

	p.logf(ctx, "Loaded %s rows from %s (%d per %s)", humanize.Comma(int64(s.Len())), path, s.Frequency, s.Granularity)

	if opts.NoSampling {
		return s, nil
	}
	if p.Cfg.PerSecond > 0 {
		before := s.Len()
		if s, err = keepPerSecond(s, p.Cfg.PerSecond, p.Rand); err != nil {
			return nil, err
		}
		if s.Len() != before {
			p.logf(ctx, "Kept %d rows per second (%s of %s rows)", s.Frequency, humanize.Comma(int64(s.Len())), humanize.Comma(int64(before)))
		}
	}
	if p.Cfg.Scale {
		s = robustScale(s)
	}
	return s, nil
}

// resolveMonthDay swaps month and day when the data cannot rule it out and the operator agrees.
func (p *Pipeline) resolveMonthDay(s *schema.Series) (*schema.Series, error) {
	if p.Cfg.SwapMonthDay == schema.NoAnswer || !monthDayAmbiguous(s, p.Rand) {
		return s, nil
	}
	warning := &contract.AmbiguousEncodingError{Source: s.Name, Sample: s.First().Format(s.Layout)}
	if p.Cfg.SwapMonthDay == schema.AskAnswer {
		contract.LogWarn("Check the date order", warning)
	}
	question := fmt.Sprintf("Is %q in the wrong month/day order (format %s)?", warning.Sample, s.DisplayFormat)
	swap, err := p.decide(p.Cfg.SwapMonthDay, question, false)
	if err != nil {
		return nil, err
	}
	if !swap {
		return s, nil
	}
	return swapMonthDay(s)
}

// requireInputs checks the number of positional input files.
func (p *Pipeline) requireInputs(kind schema.OperationKind, lo, hi int) error {
	n := len(p.Cfg.InputFiles)
	if n < lo || (hi > 0 && n > hi) {
		if lo == hi {
			return fmt.Errorf("%s needs %d input file(s), got %d", kind, lo, n)
		}
		return fmt.Errorf("%s needs at least %d input files, got %d", kind, lo, n)
	}
	return nil
}

// runTracker records one operation in the run store. A nil tracker is a no-op.
type runTracker struct {
	store contract.RunStore
	id    int64
}

// beginRun starts tracking when a run store is configured. Failures are logged, never fatal.
func (p *Pipeline) beginRun(ctx context.Context, kind schema.OperationKind, input string) (context.Context, *runTracker) {
	store := p.runStore()
	if store == nil {
		return ctx, nil
	}
	id, err := store.BeginRun(kind, input, time.Now(), p.Cfg.Params())
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return ctx, nil
	}
	ctx = withRunID(ctx, id)
	p.logf(ctx, "Tracking %s as run %d", kind, runIDFrom(ctx))
	return ctx, &runTracker{store: store, id: id}
}

func (t *runTracker) recordSlices(records []schema.SummaryRecord) {
	if t == nil || len(records) == 0 {
		return
	}
	if err := t.store.RecordSlices(t.id, schema.ToSliceRecords(t.id, records)); err != nil {
		contract.LogWarn("Failed to record labelled slices", err)
	}
}

func (t *runTracker) end(rowsIn, rowsOut int) {
	if t == nil {
		return
	}
	if err := t.store.EndRun(t.id, time.Now(), rowsIn, rowsOut); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
