package dsp

import "math"

// Shape selects the oscillator waveform.
type Shape uint8

const (
	ShapeSine Shape = iota
	ShapeSawtooth
	ShapePulse
)

// Oscillator is a naive phase-accumulating oscillator. Aliasing is part of
// the lo-fi sound and is not suppressed.
type Oscillator struct {
	Shape Shape
	// Duty is the high fraction of a pulse period. Ignored by other shapes.
	Duty  float64
	phase float64
}

// Next returns the current sample and advances the phase by freq/sampleRate.
func (o *Oscillator) Next(freq, sampleRate float64) float64 {
	var out float64
	switch o.Shape {
	case ShapeSawtooth:
		out = 2*o.phase - 1
	case ShapePulse:
		if o.phase < o.Duty {
			out = 1
		} else {
			out = -1
		}
	default:
		out = math.Sin(2 * math.Pi * o.phase)
	}
	o.phase += freq / sampleRate
	o.phase -= math.Floor(o.phase)
	return out
}

// Reset moves the phase back to zero.
func (o *Oscillator) Reset() {
	o.phase = 0
}
