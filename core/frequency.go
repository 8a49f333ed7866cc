package core

import (
	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// inferFrequency determines the timestamp granularity and the number of rows per unit.
// Frequency is the count of rows sharing the first timestamp. Files whose timestamps carry
// seconds are minute-granular only when the second and third distinct timestamps both
// fall on :00.
func inferFrequency(s *schema.Series) (schema.Granularity, int, error) {
	if s.Len() == 0 {
		return "", 0, contract.Malformed(s.Name, "no rows to infer a frequency from")
	}
	first := s.Rows[0].Time
	freq := 0
	for _, r := range s.Rows {
		if !r.Time.Equal(first) {
			break
		}
		freq++
	}
	if freq == s.Len() {
		return "", 0, contract.Malformed(s.Name, "every row shares the timestamp %s", first.Format(s.Layout))
	}

	if !s.HasSeconds {
		return schema.MinuteGranularity, freq, nil
	}

	distinct := distinctTimes(s.Rows, 3)
	if len(distinct) < 3 {
		return "", 0, contract.Malformed(s.Name, "needs at least 3 distinct timestamps, found %d", len(distinct))
	}
	if distinct[1].Second() == 0 && distinct[2].Second() == 0 {
		return schema.MinuteGranularity, freq, nil
	}
	return schema.SecondGranularity, freq, nil
}

// applyFrequency infers and stores granularity and frequency on the series.
func applyFrequency(s *schema.Series) error {
	g, freq, err := inferFrequency(s)
	if err != nil {
		return err
	}
	s.Granularity = g
	s.Frequency = freq
	return nil
}
