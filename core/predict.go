package core

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// readPredictions reads one prediction per line from the first CSV column.
// A leading non-data header such as "prediction" is skipped when followed by data.
func readPredictions(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	var preds []string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 {
			continue
		}
		if v := strings.TrimSpace(rec[0]); v != "" {
			preds = append(preds, v)
		}
	}
	if len(preds) > 1 && isPredictionHeader(preds[0]) {
		preds = preds[1:]
	}
	if len(preds) == 0 {
		return nil, contract.Malformed("predictions", "no predictions found")
	}
	return preds, nil
}

func isPredictionHeader(v string) bool {
	switch strings.ToLower(v) {
	case "prediction", "predictions", "label", "labels", "class", "cluster":
		return true
	}
	return false
}

// expandBlockPredictions spreads one prediction per window back onto rows.
// Row r takes the prediction of window r/step; the result never exceeds rows.
func expandBlockPredictions(preds []string, rows, step int) []string {
	if step <= 1 {
		return preds[:min(len(preds), rows)]
	}
	n := min(rows, len(preds)*step)
	out := make([]string, n)
	for r := range out {
		out[r] = preds[r/step]
	}
	return out
}

// parseLabelMap parses "code:label" pairs such as "0:Walk,1:Sit". A label may also be given
// as a 0-based index into categories. Codes and targets must both be unique.
func parseLabelMap(raw string, categories []string) (map[string]string, error) {
	out := map[string]string{}
	used := map[string]struct{}{}
	for _, pair := range schema.SplitList(raw) {
		code, target, ok := strings.Cut(pair, ":")
		code, target = strings.TrimSpace(code), strings.TrimSpace(target)
		if !ok || code == "" || target == "" {
			return nil, contract.InvalidSelection("label map", pair, "expected code:label")
		}
		label, err := resolveCategory(target, categories)
		if err != nil {
			return nil, err
		}
		if _, dup := out[code]; dup {
			return nil, contract.InvalidSelection("label map", pair, "code %s mapped twice", code)
		}
		if _, dup := used[label]; dup {
			return nil, contract.InvalidSelection("label map", pair, "label %s used twice", label)
		}
		out[code] = label
		used[label] = struct{}{}
	}
	return out, nil
}

// resolveCategory accepts a category name or its 0-based index.
func resolveCategory(target string, categories []string) (string, error) {
	if idx, err := strconv.Atoi(target); err == nil && len(categories) > 0 {
		if idx < 0 || idx >= len(categories) {
			return "", contract.InvalidSelection("category", target, "index out of range 0-%d", len(categories)-1)
		}
		return categories[idx], nil
	}
	for _, c := range categories {
		if strings.EqualFold(c, target) {
			return c, nil
		}
	}
	if len(categories) == 0 {
		return target, nil
	}
	return "", contract.InvalidSelection("category", target, "not one of %s", strings.Join(categories, ", "))
}

// mapLabels replaces model codes with labels. Every code must be mapped.
func mapLabels(preds []string, m map[string]string) ([]string, error) {
	out := make([]string, len(preds))
	for i, p := range preds {
		label, ok := m[p]
		if !ok {
			return nil, contract.InvalidSelection("label map", p, "code has no label")
		}
		out[i] = label
	}
	return out, nil
}

// labelRuns collapses a per-row label sequence into maximal runs.
// A run's duration ends at the first row of the next run, or at its own last row.
func labelRuns(times []time.Time, labels []string) []schema.LabelRun {
	var runs []schema.LabelRun
	n := min(len(times), len(labels))
	for start := 0; start < n; {
		end := start
		for end < n && labels[end] == labels[start] {
			end++
		}
		stop := times[end-1]
		if end < n {
			stop = times[end]
		}
		runs = append(runs, schema.LabelRun{
			Label:    labels[start],
			Start:    times[start],
			End:      times[end-1],
			Rows:     end - start,
			Duration: stop.Sub(times[start]),
		})
		start = end
	}
	return runs
}
