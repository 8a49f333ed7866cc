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

// ExecuteDataset cuts a labelled file into overlapping windows for model training. The windows go
// to a Parquet file and the cut parameters to an activities file used later by predict.
func ExecuteDataset(ctx context.Context, p *Pipeline) error {
	if err := p.requireInputs(schema.DatasetOp, 1, 1); err != nil {
		return err
	}
	cfg := p.Cfg
	input := cfg.InputFiles[0]

	s, err := p.loadSeries(ctx, input, loadOptions{MinColumns: 3, NoSampling: true})
	if err != nil {
		return err
	}
	labelCol := len(s.Header) - 2
	if cfg.LabelColumn > 0 {
		if cfg.LabelColumn >= len(s.Header) {
			return contract.InvalidSelection("label column", fmt.Sprint(cfg.LabelColumn), "out of range 1-%d", len(s.Header)-1)
		}
		labelCol = cfg.LabelColumn - 1
	}

	ctx, tracker := p.beginRun(ctx, schema.DatasetOp, input)
	step := windowStep(cfg.WindowSize, cfg.Overlap)
	windows, categories, err := createDataset(s, labelCol, cfg.WindowSize, step)
	if err != nil {
		tracker.end(s.Len(), 0)
		return err
	}

	datasetFile := cfg.ParquetFile
	if datasetFile == "" {
		datasetFile = contract.DerivedPath(input, "dataset", "parquet")
	}
	if err := parquet.WriteDatasetParquet(parquet.ConvertDatasetWindows(windows), datasetFile); err != nil {
		return fmt.Errorf("cannot write dataset: %w", err)
	}

	var features []string
	for _, c := range s.NumericCols {
		if c != labelCol {
			features = append(features, s.Header[c+1])
		}
	}
	activitiesFile := cfg.ActivitiesFile
	if activitiesFile == "" {
		activitiesFile = contract.DerivedPath(input, "activities", "csv")
	}
	file, err := os.Create(activitiesFile)
	if err != nil {
		return err
	}
	if err := writeActivities(file, schema.Activities{
		Layout:     s.DisplayFormat,
		BlockSize:  cfg.WindowSize,
		Overlap:    cfg.Overlap,
		Categories: categories,
		Row:        features,
	}); err != nil {
		_ = file.Close()
		return fmt.Errorf("cannot write activities: %w", err)
	}
	if err := file.Close(); err != nil {
		return err
	}

	tracker.end(s.Len(), len(windows))
	p.logf(ctx, "%s Wrote %s windows of %d rows (step %d, %d categories) to %s and %s",
		contract.SuccessColor.Sprint("Done"), humanize.Comma(int64(len(windows))), cfg.WindowSize, step,
		len(categories), datasetFile, activitiesFile)
	return nil
}

// ExecutePredict attaches model predictions to the rows of a file, smooths them and prints
// the resulting runs of identical labels.
func ExecutePredict(ctx context.Context, p *Pipeline) error {
	if err := p.requireInputs(schema.PredictOp, 1, 1); err != nil {
		return err
	}
	start := time.Now()
	cfg := p.Cfg
	input := cfg.InputFiles[0]
	if cfg.PredictionsFile == "" {
		return errors.New("predict needs --predictions")
	}

	s, err := p.loadSeries(ctx, input, loadOptions{NoSampling: true})
	if err != nil {
		return err
	}

	var activities schema.Activities
	step := 1
	if cfg.ActivitiesFile != "" {
		if activities, err = readActivitiesFile(cfg.ActivitiesFile); err != nil {
			return err
		}
		step = windowStep(activities.BlockSize, activities.Overlap)
	}

	predsFile, err := os.Open(cfg.PredictionsFile)
	if err != nil {
		return err
	}
	preds, err := readPredictions(predsFile)
	_ = predsFile.Close()
	if err != nil {
		return err
	}

	ctx, tracker := p.beginRun(ctx, schema.PredictOp, input)
	codes := expandBlockPredictions(preds, s.Len(), step)
	mapping, err := p.labelMapping(codes, activities.Categories)
	if err != nil {
		tracker.end(s.Len(), 0)
		return err
	}
	labels, err := mapLabels(codes, mapping)
	if err != nil {
		tracker.end(s.Len(), 0)
		return err
	}
	if !cfg.NoSmooth {
		labels = Smooth(labels, s.Frequency, s.Granularity == schema.MinuteGranularity)
	}

	rows := make([]schema.OutputRow, len(labels))
	times := make([]time.Time, len(labels))
	for i, label := range labels {
		r := s.Rows[i]
		rows[i] = schema.OutputRow{Time: r.Time, Fields: r.Fields, Values: r.Values, Label: label}
		times[i] = r.Time
	}
	dataFile := cfg.DataFile
	if dataFile == "" {
		dataFile = contract.DerivedPath(input, string(cfg.Model), "")
	}
	header := append(append([]string(nil), s.Header...), schema.LabelColumn)
	if err := tabular.WriteTable(dataFile, header, tabular.OutputRecords(s.Layout, rows)); err != nil {
		return fmt.Errorf("cannot write predicted labels: %w", err)
	}
	p.logf(ctx, "Wrote %s predicted rows to %s", humanize.Comma(int64(len(rows))), dataFile)

	runs := labelRuns(times, labels)
	tracker.recordSlices(runsToRecords(runs, cfg.Subject, cfg.Location))
	tracker.end(s.Len(), len(rows))
	return p.Out.WriteLabelRuns(runs, cfg, time.Since(start))
}

// labelMapping resolves every distinct model code to a label. An explicit --label-map wins;
// cluster ids are asked for one by one; class codes are read as category names or indices.
func (p *Pipeline) labelMapping(codes []string, categories []string) (map[string]string, error) {
	if p.Cfg.LabelMap != "" {
		return parseLabelMap(p.Cfg.LabelMap, categories)
	}
	distinct := schema.UniqueLabels(codes)
	mapping := make(map[string]string, len(distinct))
	if p.Cfg.Model == schema.KMeansModel && !p.Cfg.Batch && len(categories) > 0 {
		menu := ""
		for i, c := range categories {
			menu += fmt.Sprintf("%d) %s\n", i, c)
		}
		for _, code := range distinct {
			question := fmt.Sprintf("%sActivity for cluster %s:", menu, code)
			label, err := contract.AskValid(p.Prompter, question, p.Cfg.MaxAttempts, func(answer string) (string, error) {
				return resolveCategory(answer, categories)
			})
			if err != nil {
				return nil, err
			}
			mapping[code] = label
		}
		return mapping, nil
	}
	for _, code := range distinct {
		label, err := resolveCategory(code, categories)
		if err != nil {
			return nil, err
		}
		mapping[code] = label
	}
	return mapping, nil
}

func readActivitiesFile(path string) (schema.Activities, error) {
	file, err := os.Open(path)
	if err != nil {
		return schema.Activities{}, err
	}
	defer func() { _ = file.Close() }()
	return readActivities(file)
}

// runsToRecords turns predicted label runs into summary records for run tracking.
func runsToRecords(runs []schema.LabelRun, subject, location string) []schema.SummaryRecord {
	out := make([]schema.SummaryRecord, len(runs))
	for i, r := range runs {
		out[i] = schema.SummaryRecord{
			Index:    i,
			Subject:  subject,
			Location: location,
			Label:    r.Label,
			Start:    r.Start,
			Duration: r.Duration,
			Rows:     r.Rows,
		}
	}
	return out
}
