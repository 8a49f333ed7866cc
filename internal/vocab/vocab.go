// Package vocab persists the user-editable lists of activity labels and sensor locations.
package vocab

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// Vocabulary holds the choices offered when labelling a file.
type Vocabulary struct {
	Labels    []string `yaml:"labels"`
	Locations []string `yaml:"locations"`
}

// Default returns the built-in vocabulary used when no file exists yet.
func Default() *Vocabulary {
	return &Vocabulary{
		Labels: []string{
			"Walk Up/down stairs",
			"Walk on level",
			"Drive",
			"Light house activity",
			"Heavy house activity",
			"Run on level",
			"Sit",
			"Clap",
			"Jump",
			schema.OtherLabel,
		},
		Locations: []string{
			"Left Wrist (LW)",
			"Right Wrist (RW)",
			"Left Ankle (LA)",
			"Right Ankle (RA)",
			"Waist (WA)",
		},
	}
}

// Load reads a vocabulary file. A missing file yields the defaults.
func Load(path string) (*Vocabulary, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var v Vocabulary
	if err := yaml.Unmarshal(bs, &v); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	if len(v.Labels) == 0 {
		v.Labels = Default().Labels
	}
	if len(v.Locations) == 0 {
		v.Locations = Default().Locations
	}
	v.Normalize()
	return &v, nil
}

// Save writes the vocabulary to path, creating parent directories as needed.
func Save(path string, v *Vocabulary) error {
	if v == nil {
		return errors.New("nil vocabulary")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	v.Normalize()
	bs, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bs, 0o644)
}

// Normalize trims entries, drops blanks and duplicates, and keeps "Other" as the last label.
func (v *Vocabulary) Normalize() {
	v.Labels = dedupe(v.Labels, schema.OtherLabel)
	v.Labels = append(v.Labels, schema.OtherLabel)
	v.Locations = dedupe(v.Locations, "")
}

func dedupe(items []string, skip string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		key := strings.ToLower(it)
		if it == "" || (skip != "" && strings.EqualFold(it, skip)) {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}

// AddLabels appends new labels, ignoring ones already present. It returns how many were added.
func (v *Vocabulary) AddLabels(labels ...string) int {
	before := len(v.Labels)
	v.Labels = append(v.Labels[:len(v.Labels):len(v.Labels)], labels...)
	v.Normalize()
	return len(v.Labels) - before
}

// RemoveLabels deletes labels by name or 1-based number. "Other" cannot be removed.
func (v *Vocabulary) RemoveLabels(selectors ...string) ([]string, error) {
	drop := map[string]struct{}{}
	for _, sel := range selectors {
		label, err := Pick(v.Labels, sel)
		if err != nil {
			return nil, err
		}
		if label == schema.OtherLabel {
			return nil, contract.InvalidSelection("label", sel, "%s is always available", schema.OtherLabel)
		}
		drop[label] = struct{}{}
	}
	var kept, removed []string
	for _, l := range v.Labels {
		if _, ok := drop[l]; ok {
			removed = append(removed, l)
			continue
		}
		kept = append(kept, l)
	}
	v.Labels = kept
	v.Normalize()
	return removed, nil
}

// AddLocations appends new sensor locations. It returns how many were added.
func (v *Vocabulary) AddLocations(locations ...string) int {
	before := len(v.Locations)
	v.Locations = append(v.Locations[:len(v.Locations):len(v.Locations)], locations...)
	v.Normalize()
	return len(v.Locations) - before
}

// Pick resolves a 1-based menu number or a case-insensitive name against options.
func Pick(options []string, selector string) (string, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return "", contract.InvalidSelection("choice", selector, "nothing entered")
	}
	if n, err := strconv.Atoi(selector); err == nil {
		if n < 1 || n > len(options) {
			return "", contract.InvalidSelection("choice", selector, "enter a number from 1 to %d", len(options))
		}
		return options[n-1], nil
	}
	for _, o := range options {
		if strings.EqualFold(o, selector) {
			return o, nil
		}
	}
	return "", contract.InvalidSelection("choice", selector, "not in the list")
}

// PickMany resolves a comma-separated list of selectors.
func PickMany(options []string, raw string) ([]string, error) {
	parts := schema.SplitList(raw)
	if len(parts) == 0 {
		return nil, contract.InvalidSelection("choice", raw, "nothing entered")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		o, err := Pick(options, p)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// Menu renders options as a numbered list.
func Menu(options []string) string {
	var sb strings.Builder
	for i, o := range options {
		fmt.Fprintf(&sb, "%d) %s\n", i+1, o)
	}
	return sb.String()
}
