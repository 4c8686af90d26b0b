// Package params defines the serializable sound configuration shared by the
// live synthesizer and the offline exporter.
package params

import (
	"github.com/cwbudde/algo-sfx/curve"
)

// Waveform selects the voice source.
type Waveform string

const (
	Square   Waveform = "square"
	Sawtooth Waveform = "sawtooth"
	Sine     Waveform = "sine"
	Noise    Waveform = "noise"
)

// Valid reports whether w is a known waveform.
func (w Waveform) Valid() bool {
	switch w {
	case Square, Sawtooth, Sine, Noise:
		return true
	}
	return false
}

// ArpPattern orders the arpeggio steps.
type ArpPattern string

const (
	ArpUp     ArpPattern = "up"
	ArpDown   ArpPattern = "down"
	ArpRandom ArpPattern = "random"
)

// CurveTarget names a parameter that accepts bezier automation.
type CurveTarget string

const (
	CurveFrequency CurveTarget = "frequency"
	CurveLPFCutoff CurveTarget = "lpfCutoff"
	CurveHPFCutoff CurveTarget = "hpfCutoff"
)

// CurveTargets lists every automatable parameter in scheduling order.
var CurveTargets = []CurveTarget{CurveFrequency, CurveLPFCutoff, CurveHPFCutoff}

// Valid reports whether c is an automatable parameter.
func (c CurveTarget) Valid() bool {
	switch c {
	case CurveFrequency, CurveLPFCutoff, CurveHPFCutoff:
		return true
	}
	return false
}

// Params holds a complete sound definition.
type Params struct {
	Waveform  Waveform `json:"waveform"`
	Frequency float64  `json:"frequency"`
	Detune    float64  `json:"detune"`

	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`

	DutyCycle float64 `json:"dutyCycle"`

	VibratoRate  float64 `json:"vibratoRate"`
	VibratoDepth float64 `json:"vibratoDepth"`

	ArpSpeed   float64    `json:"arpSpeed"`
	ArpSteps   []float64  `json:"arpSteps"`
	ArpPattern ArpPattern `json:"arpPattern"`

	FlangerRate     float64 `json:"flangerRate"`
	FlangerDepth    float64 `json:"flangerDepth"`
	FlangerFeedback float64 `json:"flangerFeedback"`
	FlangerWet      float64 `json:"flangerWet"`

	LPFCutoff    float64 `json:"lpfCutoff"`
	LPFResonance float64 `json:"lpfResonance"`
	HPFCutoff    float64 `json:"hpfCutoff"`
	HPFResonance float64 `json:"hpfResonance"`

	BitDepth            float64 `json:"bitDepth"`
	SampleRateReduction float64 `json:"sampleRateReduction"`

	RetriggerRate float64 `json:"retriggerRate"`

	// Duration is the playback length in milliseconds.
	Duration float64 `json:"duration"`

	Curves map[CurveTarget]curve.Curve `json:"curves"`
}

// Default returns the stock square-wave blip.
func Default() Params {
	return Params{
		Waveform:            Square,
		Frequency:           440,
		Detune:              0,
		Attack:              0.01,
		Decay:               0.1,
		Sustain:             0.5,
		Release:             0.2,
		DutyCycle:           0.5,
		VibratoRate:         4,
		VibratoDepth:        0,
		ArpSpeed:            0,
		ArpSteps:            []float64{0, 4, 7},
		ArpPattern:          ArpUp,
		FlangerRate:         0,
		FlangerDepth:        0,
		FlangerFeedback:     0,
		FlangerWet:          0,
		LPFCutoff:           20000,
		LPFResonance:        1,
		HPFCutoff:           20,
		HPFResonance:        1,
		BitDepth:            16,
		SampleRateReduction: 1,
		RetriggerRate:       0,
		Duration:            300,
		Curves:              map[CurveTarget]curve.Curve{},
	}
}

// Clone returns a deep copy of p.
func (p Params) Clone() Params {
	out := p
	if p.ArpSteps != nil {
		out.ArpSteps = append([]float64(nil), p.ArpSteps...)
	}
	out.Curves = make(map[CurveTarget]curve.Curve, len(p.Curves))
	for k, c := range p.Curves {
		out.Curves[k] = c
	}
	return out
}

// Curve returns the automation curve for target, if any.
func (p Params) Curve(target CurveTarget) (curve.Curve, bool) {
	c, ok := p.Curves[target]
	return c, ok
}

// DurationSeconds returns Duration converted to seconds.
func (p Params) DurationSeconds() float64 {
	return p.Duration / 1000
}

// ArpEnabled reports whether the arpeggiator drives playback.
func (p Params) ArpEnabled() bool {
	return p.ArpSpeed > 0
}

// RetriggerEnabled reports whether the retrigger loop drives playback.
func (p Params) RetriggerEnabled() bool {
	return p.RetriggerRate > 0
}

// Sequenced reports whether playback runs through a step sequencer.
func (p Params) Sequenced() bool {
	return p.ArpEnabled() || p.RetriggerEnabled()
}

// ResolveModes applies the arpeggio/retrigger mutual exclusion: an active
// arpeggio always forces the retrigger rate to zero.
func (p *Params) ResolveModes() {
	if p.ArpEnabled() {
		p.RetriggerRate = 0
	}
}
