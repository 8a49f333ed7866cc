// Package tabular reads and writes the CSV and XLSX sensor tables the tool works on.
package tabular

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/huangsam/sensorlabel/internal/contract"
)

// Format describes how the timestamps of a file are written.
type Format struct {
	Layout     string // Go layout used to parse and render
	Display    string // strftime-style description, e.g. %Y/%m/%d %H:%M:%S
	HasSeconds bool
	Fractional bool // Source carries sub-second digits; parsed values are rounded to the second
}

// dateOrders are tried in this order; the first one that parses wins.
var dateOrders = []string{"Ymd", "dmY", "mdY", "Ybd", "dbY", "bdY"}

var timePattern = regexp.MustCompile(`^(\d{1,2})([:.])(\d{2})(?:([:.])(\d{2})([.,]\d+)?)?$`)

// DetectFormat infers the timestamp format from a sample value such as "03.04.2024 10:15:00".
func DetectFormat(sample string) (Format, error) {
	sample = normalizeSpace(sample)
	datePart, timePart, ok := strings.Cut(sample, " ")
	if !ok {
		return Format{}, fmt.Errorf("%q has no time of day", sample)
	}

	dateLayout, dateDisplay, err := detectDate(datePart)
	if err != nil {
		return Format{}, err
	}

	m := timePattern.FindStringSubmatch(timePart)
	if m == nil {
		return Format{}, fmt.Errorf("%q is not a time of day", timePart)
	}
	timeLayout := "15" + m[2] + "04"
	timeDisplay := "%H" + m[2] + "%M"
	f := Format{}
	if m[5] != "" {
		timeLayout += m[4] + "05"
		timeDisplay += m[4] + "%S"
		f.HasSeconds = true
		f.Fractional = m[6] != ""
	}
	f.Layout = dateLayout + " " + timeLayout
	f.Display = dateDisplay + " " + timeDisplay
	if f.Fractional {
		f.Display += ".%f"
	}

	if _, err := f.Parse(sample); err != nil {
		return Format{}, err
	}
	return f, nil
}

// Parse reads a timestamp written in this format.
func (f Format) Parse(s string) (time.Time, error) {
	t, err := time.Parse(f.Layout, normalizeSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	if f.Fractional {
		t = t.Round(time.Second)
	}
	return t, nil
}

// Render writes a timestamp in this format.
func (f Format) Render(t time.Time) string {
	return t.Format(f.Layout)
}

// ParsePoint reads an operator-supplied boundary time. It accepts the file's own format,
// common ISO forms, and a bare time of day which is placed on the date of day.
func ParsePoint(raw string, f Format, day time.Time) (time.Time, error) {
	raw = normalizeSpace(raw)
	if raw == "" {
		return time.Time{}, contract.InvalidSelection("time", raw, "empty value")
	}
	if f.Layout != "" {
		if t, err := f.Parse(raw); err == nil {
			return t, nil
		}
	}
	for _, layout := range []string{time.DateTime, "2006/01/02 15:04:05", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range []string{time.TimeOnly, "15:04", "15.04.05", "15.04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			y, mo, d := day.Date()
			return time.Date(y, mo, d, t.Hour(), t.Minute(), t.Second(), 0, day.Location()), nil
		}
	}
	return time.Time{}, contract.InvalidSelection("time", raw, "expected a timestamp like %q", "2006-01-02 15:04:05")
}

func detectDate(datePart string) (string, string, error) {
	sepIdx := strings.IndexFunc(datePart, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if sepIdx < 0 {
		return "", "", fmt.Errorf("%q has no date separator", datePart)
	}
	sep := string(datePart[sepIdx])
	tokens := strings.Split(datePart, sep)
	if len(tokens) != 3 {
		return "", "", fmt.Errorf("%q is not a three-part date", datePart)
	}

	for _, order := range dateOrders {
		layout, display, ok := buildDateLayout(order, tokens, sep)
		if !ok {
			continue
		}
		if _, err := time.Parse(layout, datePart); err == nil {
			return layout, display, nil
		}
	}
	return "", "", fmt.Errorf("%q matches no known date order", datePart)
}

func buildDateLayout(order string, tokens []string, sep string) (string, string, bool) {
	layouts := make([]string, 3)
	displays := make([]string, 3)
	for i, kind := range order {
		tok := tokens[i]
		switch kind {
		case 'Y':
			if len(tok) != 4 || !isDigits(tok) {
				return "", "", false
			}
			layouts[i], displays[i] = "2006", "%Y"
		case 'm':
			if !isDigits(tok) || len(tok) > 2 {
				return "", "", false
			}
			layouts[i], displays[i] = padded(tok, "01", "1"), "%m"
		case 'd':
			if !isDigits(tok) || len(tok) > 2 {
				return "", "", false
			}
			layouts[i], displays[i] = padded(tok, "02", "2"), "%d"
		case 'b':
			if len(tok) != 3 || isDigits(tok) {
				return "", "", false
			}
			layouts[i], displays[i] = "Jan", "%b"
		}
	}
	return strings.Join(layouts, sep), strings.Join(displays, sep), true
}

func padded(tok, two, one string) string {
	if len(tok) == 2 {
		return two
	}
	return one
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
