package dsp

import "math"

const (
	MinBitDepth  = 1
	MaxBitDepth  = 16
	MinReduction = 1
)

// CrusherState is the whole persistent state of a bit-crusher: the
// sample-and-hold phase counter and the last quantized sample.
type CrusherState struct {
	Phase int
	Held  float64
}

// Quantize advances the crusher by one input sample.
//
// The phase counter is incremented on every call. Until it reaches reduction
// the previously held sample is emitted and the input is ignored. When it
// reaches reduction the phase resets and the current input is rounded to the
// grid k/2^(bitDepth-1), which becomes both the output and the new held value.
func Quantize(sample, bitDepth, reduction float64, st CrusherState) (float64, CrusherState) {
	st.Phase++
	if float64(st.Phase) < clampReduction(reduction) {
		return st.Held, st
	}
	st.Phase = 0
	st.Held = QuantizeAmplitude(sample, bitDepth)
	return st.Held, st
}

// QuantizeAmplitude rounds sample to the mid-tread grid for bitDepth. Zero
// always maps to zero.
func QuantizeAmplitude(sample, bitDepth float64) float64 {
	steps := math.Ldexp(1, int(clampBitDepth(bitDepth))-1)
	return math.Round(sample*steps) / steps
}

func clampBitDepth(d float64) float64 {
	if math.IsNaN(d) || d < MinBitDepth {
		return MinBitDepth
	}
	if d > MaxBitDepth {
		return MaxBitDepth
	}
	return math.Round(d)
}

func clampReduction(r float64) float64 {
	if math.IsNaN(r) || r < MinReduction {
		return MinReduction
	}
	return r
}

// Crusher carries a CrusherState across calls. One instance per channel.
type Crusher struct {
	state CrusherState
}

// Process runs one sample through the crusher.
func (c *Crusher) Process(sample, bitDepth, reduction float64) float64 {
	var out float64
	out, c.state = Quantize(sample, bitDepth, reduction, c.state)
	return out
}

// State returns a copy of the current state.
func (c *Crusher) State() CrusherState {
	return c.state
}
