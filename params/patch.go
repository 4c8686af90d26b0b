package params

import (
	"github.com/cwbudde/algo-sfx/curve"
)

// Patch is a partial update. Nil fields are left unchanged; a non-nil Curves
// map (even an empty one) replaces the whole curve set.
type Patch struct {
	Waveform  *Waveform `json:"waveform,omitempty"`
	Frequency *float64  `json:"frequency,omitempty"`
	Detune    *float64  `json:"detune,omitempty"`

	Attack  *float64 `json:"attack,omitempty"`
	Decay   *float64 `json:"decay,omitempty"`
	Sustain *float64 `json:"sustain,omitempty"`
	Release *float64 `json:"release,omitempty"`

	DutyCycle *float64 `json:"dutyCycle,omitempty"`

	VibratoRate  *float64 `json:"vibratoRate,omitempty"`
	VibratoDepth *float64 `json:"vibratoDepth,omitempty"`

	ArpSpeed   *float64    `json:"arpSpeed,omitempty"`
	ArpSteps   []float64   `json:"arpSteps,omitempty"`
	ArpPattern *ArpPattern `json:"arpPattern,omitempty"`

	FlangerRate     *float64 `json:"flangerRate,omitempty"`
	FlangerDepth    *float64 `json:"flangerDepth,omitempty"`
	FlangerFeedback *float64 `json:"flangerFeedback,omitempty"`
	FlangerWet      *float64 `json:"flangerWet,omitempty"`

	LPFCutoff    *float64 `json:"lpfCutoff,omitempty"`
	LPFResonance *float64 `json:"lpfResonance,omitempty"`
	HPFCutoff    *float64 `json:"hpfCutoff,omitempty"`
	HPFResonance *float64 `json:"hpfResonance,omitempty"`

	BitDepth            *float64 `json:"bitDepth,omitempty"`
	SampleRateReduction *float64 `json:"sampleRateReduction,omitempty"`

	RetriggerRate *float64 `json:"retriggerRate,omitempty"`
	Duration      *float64 `json:"duration,omitempty"`

	Curves map[CurveTarget]curve.Curve `json:"curves,omitempty"`
}

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 {
	return &v
}

// WaveformOf returns a pointer to w, for building patches.
func WaveformOf(w Waveform) *Waveform {
	return &w
}

// PatternOf returns a pointer to a, for building patches.
func PatternOf(a ArpPattern) *ArpPattern {
	return &a
}

// Apply merges the set fields of patch into dst. Values are copied as given;
// callers clamp afterwards.
func (patch Patch) Apply(dst *Params) {
	if dst == nil {
		return
	}
	if patch.Waveform != nil {
		dst.Waveform = *patch.Waveform
	}
	if patch.ArpPattern != nil {
		dst.ArpPattern = *patch.ArpPattern
	}
	if patch.ArpSteps != nil {
		dst.ArpSteps = append([]float64(nil), patch.ArpSteps...)
	}
	if patch.Curves != nil {
		dst.Curves = make(map[CurveTarget]curve.Curve, len(patch.Curves))
		for k, c := range patch.Curves {
			dst.Curves[k] = c
		}
	}
	for key, v := range patch.numeric() {
		if v == nil {
			continue
		}
		if f := dst.Field(key); f != nil {
			*f = *v
		}
	}
}

// Touches reports whether the patch sets the numeric field key.
func (patch Patch) Touches(key Key) bool {
	return patch.numeric()[key] != nil
}

// Set stores v for the numeric field key. It reports false for unknown keys.
func (patch *Patch) Set(key Key, v float64) bool {
	ref, ok := patch.refs()[key]
	if !ok {
		return false
	}
	*ref = &v
	return true
}

func (patch Patch) numeric() map[Key]*float64 {
	out := make(map[Key]*float64, len(Table))
	for key, ref := range patch.refs() {
		out[key] = *ref
	}
	return out
}

func (patch *Patch) refs() map[Key]**float64 {
	return map[Key]**float64{
		KeyFrequency:           &patch.Frequency,
		KeyDetune:              &patch.Detune,
		KeyAttack:              &patch.Attack,
		KeyDecay:               &patch.Decay,
		KeySustain:             &patch.Sustain,
		KeyRelease:             &patch.Release,
		KeyDutyCycle:           &patch.DutyCycle,
		KeyVibratoRate:         &patch.VibratoRate,
		KeyVibratoDepth:        &patch.VibratoDepth,
		KeyArpSpeed:            &patch.ArpSpeed,
		KeyFlangerRate:         &patch.FlangerRate,
		KeyFlangerDepth:        &patch.FlangerDepth,
		KeyFlangerFeedback:     &patch.FlangerFeedback,
		KeyFlangerWet:          &patch.FlangerWet,
		KeyLPFCutoff:           &patch.LPFCutoff,
		KeyLPFResonance:        &patch.LPFResonance,
		KeyHPFCutoff:           &patch.HPFCutoff,
		KeyHPFResonance:        &patch.HPFResonance,
		KeyBitDepth:            &patch.BitDepth,
		KeySampleRateReduction: &patch.SampleRateReduction,
		KeyRetriggerRate:       &patch.RetriggerRate,
		KeyDuration:            &patch.Duration,
	}
}
