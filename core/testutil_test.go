package core

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/huangsam/sensorlabel/schema"
)

var t0 = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(42, 7))
}

// newSeries builds a second-granular series with one numeric column holding the row number.
func newSeries(times ...time.Time) *schema.Series {
	s := &schema.Series{
		Name:        "test.csv",
		Kind:        schema.CSVFile,
		Header:      []string{schema.TimeColumn, "x"},
		Layout:      schema.CanonicalLayout,
		HasSeconds:  true,
		Granularity: schema.SecondGranularity,
		Frequency:   1,
		NumericCols: []int{0},
	}
	for i, ts := range times {
		s.Rows = append(s.Rows, schema.NewRow(ts, []string{strconv.Itoa(i)}))
	}
	return s
}

// regularSeries builds n seconds of data with freq rows per second.
func regularSeries(start time.Time, seconds, freq int) *schema.Series {
	var times []time.Time
	for i := range seconds {
		for range freq {
			times = append(times, start.Add(time.Duration(i)*time.Second))
		}
	}
	s := newSeries(times...)
	s.Frequency = freq
	return s
}

// minuteSeries builds n minutes of data with freq rows per minute.
func minuteSeries(start time.Time, minutes, freq int) *schema.Series {
	var times []time.Time
	for i := range minutes {
		for range freq {
			times = append(times, start.Add(time.Duration(i)*time.Minute))
		}
	}
	s := newSeries(times...)
	s.Granularity = schema.MinuteGranularity
	s.Frequency = freq
	return s
}

func secs(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Second)
}
