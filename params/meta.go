package params

import (
	"math"
	"sort"
)

// Section groups parameters for display.
type Section string

const (
	SectionOscillator Section = "oscillator"
	SectionEnvelope   Section = "envelope"
	SectionDutyCycle  Section = "dutyCycle"
	SectionEffects    Section = "effects"
	SectionFilters    Section = "filters"
	SectionBitCrusher Section = "bitCrusher"
	SectionRetrigger  Section = "retrigger"
	SectionPlayback   Section = "playback"
)

// Meta describes the legal range of a numeric parameter.
type Meta struct {
	Min     float64
	Max     float64
	Step    float64
	Unit    string
	Section Section
}

// Key identifies a numeric parameter by its JSON name.
type Key string

const (
	KeyFrequency           Key = "frequency"
	KeyDetune              Key = "detune"
	KeyAttack              Key = "attack"
	KeyDecay               Key = "decay"
	KeySustain             Key = "sustain"
	KeyRelease             Key = "release"
	KeyDutyCycle           Key = "dutyCycle"
	KeyVibratoRate         Key = "vibratoRate"
	KeyVibratoDepth        Key = "vibratoDepth"
	KeyArpSpeed            Key = "arpSpeed"
	KeyFlangerRate         Key = "flangerRate"
	KeyFlangerDepth        Key = "flangerDepth"
	KeyFlangerFeedback     Key = "flangerFeedback"
	KeyFlangerWet          Key = "flangerWet"
	KeyLPFCutoff           Key = "lpfCutoff"
	KeyLPFResonance        Key = "lpfResonance"
	KeyHPFCutoff           Key = "hpfCutoff"
	KeyHPFResonance        Key = "hpfResonance"
	KeyBitDepth            Key = "bitDepth"
	KeySampleRateReduction Key = "sampleRateReduction"
	KeyRetriggerRate       Key = "retriggerRate"
	KeyDuration            Key = "duration"
)

// Table holds the static range of every numeric parameter.
var Table = map[Key]Meta{
	KeyFrequency:           {Min: 20, Max: 2000, Step: 1, Unit: "Hz", Section: SectionOscillator},
	KeyDetune:              {Min: -100, Max: 100, Step: 1, Unit: "c", Section: SectionOscillator},
	KeyAttack:              {Min: 0.001, Max: 2, Step: 0.001, Section: SectionEnvelope},
	KeyDecay:               {Min: 0.001, Max: 2, Step: 0.001, Section: SectionEnvelope},
	KeySustain:             {Min: 0, Max: 1, Step: 0.01, Section: SectionEnvelope},
	KeyRelease:             {Min: 0.001, Max: 5, Step: 0.001, Section: SectionEnvelope},
	KeyDutyCycle:           {Min: 0, Max: 1, Step: 0.01, Section: SectionDutyCycle},
	KeyVibratoRate:         {Min: 0, Max: 20, Step: 0.1, Unit: "Hz", Section: SectionEffects},
	KeyVibratoDepth:        {Min: 0, Max: 1, Step: 0.01, Section: SectionEffects},
	KeyArpSpeed:            {Min: 0, Max: 20, Step: 0.1, Unit: "Hz", Section: SectionEffects},
	KeyFlangerRate:         {Min: 0, Max: 20, Step: 0.1, Unit: "Hz", Section: SectionEffects},
	KeyFlangerDepth:        {Min: 0, Max: 1, Step: 0.01, Section: SectionEffects},
	KeyFlangerFeedback:     {Min: 0, Max: 0.95, Step: 0.01, Section: SectionEffects},
	KeyFlangerWet:          {Min: 0, Max: 1, Step: 0.01, Section: SectionEffects},
	KeyLPFCutoff:           {Min: 20, Max: 20000, Step: 1, Unit: "Hz", Section: SectionFilters},
	KeyLPFResonance:        {Min: 0.1, Max: 20, Step: 0.1, Section: SectionFilters},
	KeyHPFCutoff:           {Min: 20, Max: 20000, Step: 1, Unit: "Hz", Section: SectionFilters},
	KeyHPFResonance:        {Min: 0.1, Max: 20, Step: 0.1, Section: SectionFilters},
	KeyBitDepth:            {Min: 1, Max: 16, Step: 1, Section: SectionBitCrusher},
	KeySampleRateReduction: {Min: 1, Max: 32, Step: 1, Section: SectionBitCrusher},
	KeyRetriggerRate:       {Min: 0, Max: 20, Step: 0.1, Section: SectionRetrigger},
	KeyDuration:            {Min: 50, Max: 2000, Step: 10, Unit: "ms", Section: SectionPlayback},
}

// Keys returns every numeric key in sorted order.
func Keys() []Key {
	keys := make([]Key, 0, len(Table))
	for k := range Table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Clamp limits v to the range of key. NaN maps to the minimum; unknown keys
// pass v through.
func Clamp(key Key, v float64) float64 {
	m, ok := Table[key]
	if !ok {
		return v
	}
	if math.IsNaN(v) {
		return m.Min
	}
	return clamp(v, m.Min, m.Max)
}

// Field returns a pointer to the numeric field named by key, or nil.
func (p *Params) Field(key Key) *float64 {
	switch key {
	case KeyFrequency:
		return &p.Frequency
	case KeyDetune:
		return &p.Detune
	case KeyAttack:
		return &p.Attack
	case KeyDecay:
		return &p.Decay
	case KeySustain:
		return &p.Sustain
	case KeyRelease:
		return &p.Release
	case KeyDutyCycle:
		return &p.DutyCycle
	case KeyVibratoRate:
		return &p.VibratoRate
	case KeyVibratoDepth:
		return &p.VibratoDepth
	case KeyArpSpeed:
		return &p.ArpSpeed
	case KeyFlangerRate:
		return &p.FlangerRate
	case KeyFlangerDepth:
		return &p.FlangerDepth
	case KeyFlangerFeedback:
		return &p.FlangerFeedback
	case KeyFlangerWet:
		return &p.FlangerWet
	case KeyLPFCutoff:
		return &p.LPFCutoff
	case KeyLPFResonance:
		return &p.LPFResonance
	case KeyHPFCutoff:
		return &p.HPFCutoff
	case KeyHPFResonance:
		return &p.HPFResonance
	case KeyBitDepth:
		return &p.BitDepth
	case KeySampleRateReduction:
		return &p.SampleRateReduction
	case KeyRetriggerRate:
		return &p.RetriggerRate
	case KeyDuration:
		return &p.Duration
	}
	return nil
}

// Sanitize returns a clamped deep copy of p: numeric fields are limited to
// their ranges, unknown enum values fall back to defaults and curves on
// non-automatable targets are dropped.
func Sanitize(p Params) Params {
	out := p.Clone()
	for key := range Table {
		if f := out.Field(key); f != nil {
			*f = Clamp(key, *f)
		}
	}
	if !out.Waveform.Valid() {
		out.Waveform = Square
	}
	switch out.ArpPattern {
	case ArpUp, ArpDown, ArpRandom:
	default:
		out.ArpPattern = ArpUp
	}
	if out.ArpSteps == nil {
		out.ArpSteps = []float64{0, 4, 7}
	}
	for target := range out.Curves {
		if !target.Valid() {
			delete(out.Curves, target)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
