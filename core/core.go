// Package core has the labelling engine: frequency and date inference, interval selection,
// labelled emission, smoothing, merging and summaries, plus the operations built on them.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/internal/parquet"
	"github.com/huangsam/sensorlabel/internal/tabular"
	"github.com/huangsam/sensorlabel/schema"
)

// ExecutorFunc defines the function signature for executing an operation.
type ExecutorFunc func(ctx context.Context, p *Pipeline) error

// Handlers maps every operation kind to the function that runs it.
var Handlers = map[schema.OperationKind]ExecutorFunc{
	schema.HelpOp:      ExecuteHelp,
	schema.LabelOp:     ExecuteLabel,
	schema.MergeOp:     ExecuteMerge,
	schema.CombineOp:   ExecuteCombine,
	schema.PhysioOp:    ExecutePhysio,
	schema.PredictOp:   ExecutePredict,
	schema.DatasetOp:   ExecuteDataset,
	schema.HistogramOp: ExecuteHistogram,
}

// Run dispatches an operation to its handler.
func Run(ctx context.Context, kind schema.OperationKind, p *Pipeline) error {
	handler, ok := Handlers[kind]
	if !ok {
		return fmt.Errorf("unknown operation %q", kind)
	}
	return handler(ctx, p)
}

// ExecuteHelp prints the list of operations.
func ExecuteHelp(_ context.Context, p *Pipeline) error {
	return p.Out.WriteGuide(p.Cfg)
}

// ExecuteLabel labels time ranges of one file, writes the labelled rows and a per-slice summary,
// and prints the summary.
func ExecuteLabel(ctx context.Context, p *Pipeline) error {
	if err := p.requireInputs(schema.LabelOp, 1, 1); err != nil {
		return err
	}
	start := time.Now()
	cfg := p.Cfg
	input := cfg.InputFiles[0]

	s, err := p.loadSeries(ctx, input, loadOptions{Columns: cfg.Columns})
	if err != nil {
		return err
	}
	intervals, err := p.selectIntervals(s)
	if err != nil {
		return err
	}
	location, err := p.resolveLocation()
	if err != nil {
		return err
	}

	var rmsCols []int
	if cfg.RMS {
		if rmsCols, err = rmsColumns(s, cfg.RMSColumns); err != nil {
			return err
		}
	}

	ctx, tracker := p.beginRun(ctx, schema.LabelOp, input)
	clipped := clipToIntervals(s, intervals)
	res := emitLabelled(clipped, intervals, emitOptions{RMSCols: rmsCols})
	if len(res.Rows) == 0 {
		tracker.end(s.Len(), 0)
		return contract.Malformed(input, "no rows fall inside the selected intervals")
	}

	dataFile := cfg.DataFile
	if dataFile == "" {
		dataFile = contract.DerivedPath(input, "labelled", "")
	}
	if err := tabular.WriteTable(dataFile, res.Header, tabular.OutputRecords(s.Layout, res.Rows)); err != nil {
		return fmt.Errorf("cannot write labelled data: %w", err)
	}
	p.logf(ctx, "Wrote %s labelled rows to %s (%s skipped, %s rebased)",
		humanize.Comma(int64(len(res.Rows))), dataFile, humanize.Comma(int64(res.Dropped)), humanize.Comma(int64(res.Rebased)))

	if cfg.ParquetFile != "" {
		if err := parquet.WriteLabelledRowsParquet(parquet.ConvertOutputRows(res.Rows), cfg.ParquetFile); err != nil {
			return fmt.Errorf("cannot write labelled parquet: %w", err)
		}
	}

	names := make([]string, len(s.NumericCols))
	for i, c := range s.NumericCols {
		names[i] = s.Header[c+1]
	}
	report := summarize(res.Rows, res.Transitions, summaryMeta{
		Subject:  cfg.Subject,
		Location: location,
		Columns:  s.NumericCols,
		Names:    names,
		WithRMS:  len(rmsCols) > 0,
	})

	summaryFile := cfg.SummaryFile
	if summaryFile == "" {
		summaryFile = contract.DerivedPath(input, "summary", "")
	}
	header, rows := summaryTable(report, cfg.Precision)
	if err := tabular.WriteTable(summaryFile, header, rows); err != nil {
		return fmt.Errorf("cannot write summary: %w", err)
	}
	p.logf(ctx, "Wrote %d slice summaries to %s", len(report.Chronological), summaryFile)

	tracker.recordSlices(report.Chronological)
	tracker.end(s.Len(), len(res.Rows))
	return p.Out.WriteSummary(report, cfg, time.Since(start))
}

// ExecuteMerge joins a second file onto the one with the higher sampling rate, minute by minute.
func ExecuteMerge(ctx context.Context, p *Pipeline) error {
	if err := p.requireInputs(schema.MergeOp, 2, 2); err != nil {
		return err
	}
	start := time.Now()
	cfg := p.Cfg

	secondaryColumns := cfg.SecondaryColumns
	if secondaryColumns == "" {
		secondaryColumns = cfg.Columns
	}
	first, err := p.loadSeries(ctx, cfg.InputFiles[0], loadOptions{Columns: cfg.Columns})
	if err != nil {
		return err
	}
	second, err := p.loadSeries(ctx, cfg.InputFiles[1], loadOptions{Columns: secondaryColumns})
	if err != nil {
		return err
	}
	primary, secondary, swapped := selectPrimary(first, second)
	if swapped {
		p.logf(ctx, "Using %s as primary (%d rows per minute)", primary.Name, primary.RowsPerMinute())
	}

	opts, err := p.mergeOptions(ctx, primary, secondary)
	if err != nil {
		return err
	}

	ctx, tracker := p.beginRun(ctx, schema.MergeOp, primary.Name)
	res, err := mergeSeries(primary, secondary, opts)
	if err != nil {
		tracker.end(primary.Len()+secondary.Len(), 0)
		return err
	}
	res.Swapped = swapped

	dataFile := cfg.DataFile
	if dataFile == "" {
		dataFile = contract.DerivedPath(primary.Name, "merged", "")
	}
	if err := tabular.WriteTable(dataFile, res.Header, tabular.OutputRecords(primary.Layout, res.Rows)); err != nil {
		return fmt.Errorf("cannot write merged data: %w", err)
	}
	p.logf(ctx, "Wrote %s merged rows to %s", humanize.Comma(int64(len(res.Rows))), dataFile)

	tracker.end(primary.Len()+secondary.Len(), len(res.Rows))
	return p.Out.WriteMerge(res, cfg, time.Since(start))
}

// mergeOptions decides whether the files share a clock and resolves the merge range.
// Files without overlapping time ranges are never treated as synchronized.
func (p *Pipeline) mergeOptions(ctx context.Context, primary, secondary *schema.Series) (mergeOptions, error) {
	cfg := p.Cfg
	var opts mergeOptions

	from, to, overlapping := overlap(primary, secondary)
	if overlapping {
		synced, err := p.decide(cfg.Synchronized, "Were both files recorded with synchronized clocks?", true)
		if err != nil {
			return opts, err
		}
		opts.Synchronized = synced
	} else if cfg.Synchronized == schema.YesAnswer {
		contract.LogWarn("Merging unsynchronized", contract.Malformed(secondary.Name, "time range does not overlap %s", primary.Name))
	}

	format := tabular.FormatOf(primary)
	if opts.Synchronized {
		opts.From, opts.To = from, to
	}
	if cfg.MergeFrom != "" {
		t, err := tabular.ParsePoint(cfg.MergeFrom, format, primary.First())
		if err != nil {
			return opts, err
		}
		opts.From = t
	}
	if cfg.MergeTo != "" {
		t, err := tabular.ParsePoint(cfg.MergeTo, format, primary.First())
		if err != nil {
			return opts, err
		}
		opts.To = t
	}
	if !opts.Synchronized && cfg.SecondaryStart != "" {
		t, err := tabular.ParsePoint(cfg.SecondaryStart, tabular.FormatOf(secondary), secondary.First())
		if err != nil {
			return opts, err
		}
		opts.SecondaryStart = t
	}

	opts.OnMismatch = func(w *contract.FrequencyMismatchWarning) {
		if !isQuiet(ctx) {
			contract.LogWarn("Frequency mismatch", w)
		}
	}
	return opts, nil
}

// ExecuteCombine appends files end to end, shifting each one to continue where the last ended.
func ExecuteCombine(ctx context.Context, p *Pipeline) error {
	if err := p.requireInputs(schema.CombineOp, 2, 0); err != nil {
		return err
	}
	cfg := p.Cfg

	series := make([]*schema.Series, 0, len(cfg.InputFiles))
	rowsIn := 0
	for _, path := range cfg.InputFiles {
		s, err := p.loadSeries(ctx, path, loadOptions{NoSampling: true})
		if err != nil {
			return err
		}
		series = append(series, s)
		rowsIn += s.Len()
	}

	ctx, tracker := p.beginRun(ctx, schema.CombineOp, cfg.InputFiles[0])
	out, steps, err := combineSeries(series)
	if err != nil {
		tracker.end(rowsIn, 0)
		return err
	}
	for _, step := range steps[1:] {
		p.logf(ctx, "Appended %s (%s rows) shifted by %s", step.Name, humanize.Comma(int64(step.Rows)), schema.FormatDuration(step.Shift))
	}

	dataFile := cfg.DataFile
	if dataFile == "" {
		dataFile = contract.DerivedPath(cfg.InputFiles[0], "combined", "")
	}
	if err := tabular.WriteSeries(dataFile, out); err != nil {
		return fmt.Errorf("cannot write combined data: %w", err)
	}
	tracker.end(rowsIn, out.Len())
	p.logf(ctx, "%s Combined %d files into %s (%s rows)",
		contract.SuccessColor.Sprint("Done"), len(series), dataFile, humanize.Comma(int64(out.Len())))
	return nil
}

// ExecutePhysio replaces spikes in a physiological signal block by block.
// When nothing crosses the threshold, a warning is logged and no file is written.
func ExecutePhysio(ctx context.Context, p *Pipeline) error {
	if err := p.requireInputs(schema.PhysioOp, 1, 1); err != nil {
		return err
	}
	start := time.Now()
	cfg := p.Cfg
	input := cfg.InputFiles[0]

	s, err := p.loadSeries(ctx, input, loadOptions{NoSampling: true})
	if err != nil {
		return err
	}
	column := s.NumericCols[len(s.NumericCols)-1]
	if cfg.TargetColumn > 0 {
		if cfg.TargetColumn >= len(s.Header) {
			return contract.InvalidSelection("target column", fmt.Sprint(cfg.TargetColumn), "out of range 1-%d", len(s.Header)-1)
		}
		column = cfg.TargetColumn - 1
	}

	ctx, tracker := p.beginRun(ctx, schema.PhysioOp, input)
	out, changes, err := preprocessPhysio(s, physioOptions{
		Mode:      cfg.BlockMode,
		BlockSize: cfg.BlockSize,
		Percent:   cfg.Percent,
		Column:    column,
	})
	if errors.Is(err, contract.ErrNoChange) {
		tracker.end(s.Len(), 0)
		contract.LogWarn(fmt.Sprintf("No block of %s changed by more than %.0f%%", s.Header[column+1], cfg.Percent), err)
		return nil
	}
	if err != nil {
		tracker.end(s.Len(), 0)
		return err
	}

	dataFile := cfg.DataFile
	if dataFile == "" {
		dataFile = contract.DerivedPath(input, "physio", "")
	}
	if err := tabular.WriteSeries(dataFile, out); err != nil {
		return fmt.Errorf("cannot write preprocessed data: %w", err)
	}
	p.logf(ctx, "Wrote preprocessed data to %s", dataFile)
	tracker.end(s.Len(), out.Len())
	return p.Out.WritePhysio(changes, cfg, time.Since(start))
}

// ExecuteHistogram buckets the selected numeric columns of a file.
func ExecuteHistogram(ctx context.Context, p *Pipeline) error {
	if err := p.requireInputs(schema.HistogramOp, 1, 1); err != nil {
		return err
	}
	input := p.Cfg.InputFiles[0]
	s, err := p.loadSeries(ctx, input, loadOptions{Columns: p.Cfg.Columns})
	if err != nil {
		return err
	}

	columns := make([][]float64, len(s.NumericCols))
	names := make([]string, len(s.NumericCols))
	for i, c := range s.NumericCols {
		columns[i] = columnValues(s.Rows, c)
		names[i] = s.Header[c+1]
	}
	bins, total, err := histogram(columns, p.Cfg.Bins)
	if err != nil {
		return err
	}
	return p.Out.WriteHistogram(schema.HistogramResult{
		Source:  input,
		Columns: names,
		Bins:    bins,
		Total:   total,
	}, p.Cfg)
}

// ProfileFile loads a file and reports what was inferred about it, without asking anything
// and without changing the data.
func ProfileFile(ctx context.Context, p *Pipeline, path string) (schema.FileProfile, error) {
	if err := ctx.Err(); err != nil {
		return schema.FileProfile{}, err
	}
	s, err := tabular.Load(path, tabular.LoadOptions{Rand: p.Rand})
	if err != nil {
		return schema.FileProfile{}, err
	}
	if err := applyFrequency(s); err != nil {
		return schema.FileProfile{}, err
	}
	numeric := make([]string, len(s.NumericCols))
	for i, c := range s.NumericCols {
		numeric[i] = s.Header[c+1]
	}
	return schema.FileProfile{
		Path:              path,
		Kind:              s.Kind,
		Rows:              s.Len(),
		Header:            s.Header,
		Format:            s.DisplayFormat,
		Granularity:       s.Granularity,
		Frequency:         s.Frequency,
		RowsPerMinute:     s.RowsPerMinute(),
		NumericColumns:    numeric,
		First:             s.First(),
		Last:              s.Last(),
		MonthDayAmbiguous: monthDayAmbiguous(s, p.Rand),
	}, nil
}

// ExecuteInspect prints the profile of every input file.
func ExecuteInspect(ctx context.Context, p *Pipeline) error {
	if len(p.Cfg.InputFiles) == 0 {
		return errors.New("inspect needs at least one input file")
	}
	for _, path := range p.Cfg.InputFiles {
		if _, err := os.Stat(path); err != nil {
			return err
		}
		profile, err := ProfileFile(ctx, p, path)
		if err != nil {
			return err
		}
		if err := p.Out.WriteProfile(profile, p.Cfg); err != nil {
			return err
		}
	}
	return nil
}
