package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// Activities file row keys.
const (
	activitiesLayoutKey     = "dForm"
	activitiesBlockSizeKey  = "BlockSize"
	activitiesOverlapKey    = "Overlap"
	activitiesCategoriesKey = "Categories"
	activitiesRowKey        = "Row"
)

// windowStep converts an overlap percentage into the stride between windows.
func windowStep(blockSize, overlap int) int {
	return max(1, blockSize-blockSize*overlap/100)
}

// createDataset cuts the series into windows of blockSize rows every step rows.
// Each window is labelled with the majority value of labelCol; the remaining numeric
// fields become its features.
func createDataset(s *schema.Series, labelCol, blockSize, step int) ([]schema.DatasetWindow, []string, error) {
	if blockSize < 1 || step < 1 {
		return nil, nil, contract.InvalidSelection("window", "", "size and step must be positive")
	}
	if labelCol < 0 || labelCol >= len(s.Header)-1 {
		return nil, nil, contract.InvalidSelection("label column", strconv.Itoa(labelCol), "out of range 0-%d", len(s.Header)-2)
	}
	if s.Len() <= blockSize {
		return nil, nil, contract.Malformed(s.Name, "%d rows cannot fill a window of %d", s.Len(), blockSize)
	}

	labels := make([]string, s.Len())
	for i, r := range s.Rows {
		labels[i] = r.Fields[labelCol]
	}
	categories := schema.UniqueLabels(labels)
	if len(categories) < 2 {
		return nil, nil, contract.Malformed(s.Name, "label column needs at least two categories, found %d", len(categories))
	}

	var features []int
	for _, c := range s.NumericCols {
		if c != labelCol {
			features = append(features, c)
		}
	}
	if len(features) == 0 {
		return nil, nil, contract.Malformed(s.Name, "no numeric feature columns besides the label")
	}

	var windows []schema.DatasetWindow
	for i := 0; i < s.Len()-blockSize; i += step {
		block := s.Rows[i : i+blockSize]
		values := make([][]float64, len(block))
		for j, r := range block {
			row := make([]float64, len(features))
			for k, c := range features {
				row[k] = r.Values[c]
			}
			values[j] = row
		}
		windows = append(windows, schema.DatasetWindow{
			Index:  len(windows),
			Start:  block[0].Time,
			End:    block[len(block)-1].Time,
			Label:  majority(labels[i : i+blockSize]),
			Values: values,
		})
	}
	return windows, categories, nil
}

// writeActivities stores how a dataset was cut so predictions can be mapped back later.
func writeActivities(w io.Writer, a schema.Activities) error {
	writer := csv.NewWriter(w)
	rows := [][]string{
		{activitiesLayoutKey, a.Layout},
		{activitiesBlockSizeKey, strconv.Itoa(a.BlockSize)},
		{activitiesOverlapKey, strconv.Itoa(a.Overlap)},
		{activitiesCategoriesKey, formatList(a.Categories)},
		{activitiesRowKey, formatList(a.Row)},
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

// readActivities parses a file written by writeActivities. Unknown rows are ignored.
func readActivities(r io.Reader) (schema.Activities, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	var a schema.Activities
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return a, err
		}
		if len(rec) < 2 {
			continue
		}
		switch rec[0] {
		case activitiesLayoutKey:
			a.Layout = rec[1]
		case activitiesBlockSizeKey:
			if a.BlockSize, err = strconv.Atoi(strings.TrimSpace(rec[1])); err != nil {
				return a, contract.Malformed("activities", "block size %q is not a number", rec[1])
			}
		case activitiesOverlapKey:
			if a.Overlap, err = strconv.Atoi(strings.TrimSpace(rec[1])); err != nil {
				return a, contract.Malformed("activities", "overlap %q is not a number", rec[1])
			}
		case activitiesCategoriesKey:
			a.Categories = parseList(rec[1])
		case activitiesRowKey:
			a.Row = parseList(rec[1])
		}
	}
	if len(a.Categories) == 0 {
		return a, contract.Malformed("activities", "no categories listed")
	}
	return a, nil
}

func formatList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("'%s'", it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.Trim(strings.TrimSpace(part), `'"`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
