// Package preset loads and saves sound definitions as JSON files.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cwbudde/algo-sfx/curve"
	"github.com/cwbudde/algo-sfx/params"
)

// File is the JSON schema for presets. Params is a partial override on top
// of the defaults; Note, when set, replaces the frequency.
type File struct {
	Name   string       `json:"name,omitempty"`
	Note   string       `json:"note,omitempty"`
	Params params.Patch `json:"params"`
}

type saved struct {
	Name   string        `json:"name,omitempty"`
	Params params.Params `json:"params"`
}

// LoadJSON loads a preset file and applies it on top of the default sound.
// The result is clamped to the parameter ranges.
func LoadJSON(path string) (params.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return params.Params{}, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return params.Params{}, fmt.Errorf("%s: %w", path, err)
	}

	p := params.Default()
	if err := ApplyFile(&p, &f); err != nil {
		return params.Params{}, fmt.Errorf("%s: %w", path, err)
	}
	return params.Sanitize(p), nil
}

// SaveJSON writes p as a complete preset.
func SaveJSON(path string, name string, p params.Params) error {
	b, err := json.MarshalIndent(saved{Name: name, Params: p}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// ApplyFile applies a parsed preset onto dst. Enumerations and curves are
// validated; numeric ranges are left to params.Sanitize.
func ApplyFile(dst *params.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	if w := f.Params.Waveform; w != nil && !w.Valid() {
		return fmt.Errorf("unknown waveform %q", *w)
	}
	if a := f.Params.ArpPattern; a != nil {
		switch *a {
		case params.ArpUp, params.ArpDown, params.ArpRandom:
		default:
			return fmt.Errorf("unknown arpPattern %q", *a)
		}
	}

	targets := make([]string, 0, len(f.Params.Curves))
	for k := range f.Params.Curves {
		targets = append(targets, string(k))
	}
	sort.Strings(targets)
	for _, k := range targets {
		target := params.CurveTarget(k)
		if !target.Valid() {
			return fmt.Errorf("invalid curve target %q (use frequency, lpfCutoff or hpfCutoff)", k)
		}
		if err := curve.Validate(f.Params.Curves[target]); err != nil {
			return fmt.Errorf("curves[%s]: %w", k, err)
		}
	}

	f.Params.Apply(dst)

	if note := strings.TrimSpace(f.Note); note != "" {
		hz, err := params.NoteToFrequency(note)
		if err != nil {
			return err
		}
		dst.Frequency = hz
	}
	return nil
}
