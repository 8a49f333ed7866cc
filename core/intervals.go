package core

import (
	"time"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// buildIntervals pairs n+1 strictly increasing boundaries with n labels.
func buildIntervals(points []time.Time, labels []string) ([]schema.Interval, error) {
	if len(points) < 2 {
		return nil, contract.InvalidSelection("points", "", "need at least two boundaries, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !points[i].After(points[i-1]) {
			return nil, contract.InvalidSelection("points", points[i].Format(time.DateTime), "boundaries must be strictly increasing")
		}
	}
	if len(labels) != len(points)-1 {
		return nil, contract.InvalidSelection("labels", "", "need %d labels for %d boundaries, got %d", len(points)-1, len(points), len(labels))
	}

	intervals := make([]schema.Interval, len(labels))
	for i, label := range labels {
		if label == "" {
			return nil, contract.InvalidSelection("labels", "", "label %d is empty", i+1)
		}
		intervals[i] = schema.Interval{Start: points[i], End: points[i+1], Label: label}
	}
	return intervals, nil
}

// alternateLabels spreads the chosen labels over n intervals with Other in every second slot.
// With otherFirst the first interval is Other, otherwise the first chosen label is.
func alternateLabels(chosen []string, n int, otherFirst bool) ([]string, error) {
	slots := (n + 1) / 2
	if otherFirst {
		slots = n / 2
	}
	if len(chosen) != slots {
		return nil, contract.InvalidSelection("labels", "", "alternating %d intervals needs %d labels, got %d", n, slots, len(chosen))
	}

	out := make([]string, n)
	next := 0
	for i := range out {
		isOther := i%2 == 1
		if otherFirst {
			isOther = i%2 == 0
		}
		if isOther {
			out[i] = schema.OtherLabel
			continue
		}
		out[i] = chosen[next]
		next++
	}
	return out, nil
}

// labelSlots returns how many intervals need an operator-chosen label.
func labelSlots(n int, alternate, otherFirst bool) int {
	switch {
	case !alternate:
		return n
	case otherFirst:
		return n / 2
	default:
		return (n + 1) / 2
	}
}

// clipToIntervals keeps only rows between the first boundary and the last, inclusive.
func clipToIntervals(s *schema.Series, intervals []schema.Interval) *schema.Series {
	if len(intervals) == 0 {
		return s.WithRows(nil)
	}
	return s.Between(intervals[0].Start, intervals[len(intervals)-1].End)
}
