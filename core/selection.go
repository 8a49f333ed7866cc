package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/internal/tabular"
	"github.com/huangsam/sensorlabel/internal/vocab"
	"github.com/huangsam/sensorlabel/schema"
)

// parsePoints reads boundary times written in the file's format, ISO form or as a time of day
// on the date of the first row.
func parsePoints(raw []string, s *schema.Series) ([]time.Time, error) {
	if len(raw) < 2 {
		return nil, contract.InvalidSelection("boundaries", strings.Join(raw, ","), "need at least two times")
	}
	f := tabular.FormatOf(s)
	points := make([]time.Time, len(raw))
	for i, r := range raw {
		t, err := tabular.ParsePoint(r, f, s.First())
		if err != nil {
			return nil, err
		}
		points[i] = t
	}
	return points, nil
}

// selectIntervals turns boundary points and labels into intervals. Values missing from the
// configuration are asked for; invalid answers are asked again a bounded number of times.
func (p *Pipeline) selectIntervals(s *schema.Series) ([]schema.Interval, error) {
	cfg := p.Cfg

	var points []time.Time
	var err error
	if len(cfg.Points) > 0 {
		points, err = parsePoints(cfg.Points, s)
	} else {
		question := fmt.Sprintf("Boundary times, comma-separated (data runs %s to %s):",
			s.First().Format(s.Layout), s.Last().Format(s.Layout))
		points, err = contract.AskValid(p.Prompter, question, cfg.MaxAttempts, func(answer string) ([]time.Time, error) {
			pts, err := parsePoints(schema.SplitList(answer), s)
			if err != nil {
				return nil, err
			}
			placeholders := make([]string, len(pts)-1)
			for i := range placeholders {
				placeholders[i] = schema.OtherLabel
			}
			if _, err := buildIntervals(pts, placeholders); err != nil {
				return nil, err
			}
			return pts, nil
		})
	}
	if err != nil {
		return nil, err
	}

	n := len(points) - 1
	slots := labelSlots(n, cfg.AlternateSkip, cfg.OtherFirst)
	chosen := cfg.Labels
	if len(chosen) == 0 {
		if chosen, err = p.askLabels(slots); err != nil {
			return nil, err
		}
	}

	labels := chosen
	if cfg.AlternateSkip {
		if labels, err = alternateLabels(chosen, n, cfg.OtherFirst); err != nil {
			return nil, err
		}
	} else if len(chosen) != n {
		return nil, contract.InvalidSelection("labels", strings.Join(chosen, ","), "%d intervals need %d labels", n, n)
	}
	return buildIntervals(points, labels)
}

// askLabels offers the vocabulary as a numbered menu and reads one choice per interval.
func (p *Pipeline) askLabels(slots int) ([]string, error) {
	v, err := p.vocabulary()
	if err != nil {
		return nil, err
	}
	question := fmt.Sprintf("%sLabels for %d interval(s), numbers or names:", vocab.Menu(v.Labels), slots)
	return contract.AskValid(p.Prompter, question, p.Cfg.MaxAttempts, func(answer string) ([]string, error) {
		picked, err := vocab.PickMany(v.Labels, answer)
		if err != nil {
			return nil, err
		}
		if len(picked) != slots {
			return nil, contract.InvalidSelection("labels", answer, "expected %d labels, got %d", slots, len(picked))
		}
		return picked, nil
	})
}

// resolveLocation returns the configured sensor location, asking for one in interactive runs.
// A blank answer leaves the location empty.
func (p *Pipeline) resolveLocation() (string, error) {
	if p.Cfg.Location != "" || p.Cfg.Batch {
		return p.Cfg.Location, nil
	}
	v, err := p.vocabulary()
	if err != nil {
		return "", err
	}
	question := fmt.Sprintf("%sSensor location (blank to skip):", vocab.Menu(v.Locations))
	return contract.AskValid(p.Prompter, question, p.Cfg.MaxAttempts, func(answer string) (string, error) {
		if answer == "" {
			return "", nil
		}
		return vocab.Pick(v.Locations, answer)
	})
}

// rmsColumns resolves the fields combined into the RMS column. A blank selection uses every
// numeric field.
func rmsColumns(s *schema.Series, raw string) ([]int, error) {
	if raw == "" {
		return append([]int(nil), s.NumericCols...), nil
	}
	cols, err := contract.ParseColumnSelection(raw, len(s.Header))
	if err != nil {
		return nil, err
	}
	var fields []int
	for _, c := range cols {
		if c == 0 {
			continue
		}
		if _, ok := s.Rows[0].Value(c - 1); !ok {
			return nil, contract.InvalidSelection("rms columns", raw, "column %d (%s) is not numeric", c, s.Header[c])
		}
		fields = append(fields, c-1)
	}
	if len(fields) == 0 {
		return nil, contract.InvalidSelection("rms columns", raw, "no data columns selected")
	}
	return fields, nil
}
