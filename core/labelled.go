package core

import (
	"context"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// SummarizeFile reads a file written by the label operation and summarizes each run of
// identical labels. The last column must be the label column.
func SummarizeFile(ctx context.Context, p *Pipeline, path, subject, location string) (*schema.SummaryReport, error) {
	s, err := p.loadSeries(ctx, path, loadOptions{NoSampling: true})
	if err != nil {
		return nil, err
	}
	if s.Header[len(s.Header)-1] != schema.LabelColumn {
		return nil, contract.Malformed(path, "last column is %q, expected %q", s.Header[len(s.Header)-1], schema.LabelColumn)
	}
	labelField := len(s.Header) - 2

	rows := make([]schema.OutputRow, s.Len())
	labels := make([]string, s.Len())
	for i, r := range s.Rows {
		labels[i] = r.Fields[labelField]
		rows[i] = schema.OutputRow{Time: r.Time, Fields: r.Fields, Values: r.Values, Label: labels[i]}
	}

	var cols []int
	var names []string
	for _, c := range s.NumericCols {
		if c == labelField {
			continue
		}
		cols = append(cols, c)
		names = append(names, s.Header[c+1])
	}
	return summarize(rows, transitionsOf(labels), summaryMeta{
		Subject:  subject,
		Location: location,
		Columns:  cols,
		Names:    names,
	}), nil
}
