package dsp

import "math"

// ADSR holds envelope times in seconds and the sustain level in [0,1].
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// Held is passed as releaseAt while the gate is still open.
var Held = math.Inf(1)

// Level returns the gate envelope t seconds after the attack started, with the
// gate closed releaseAt seconds after the attack. The release ramps linearly
// from whatever level the envelope had reached when the gate closed.
func (e ADSR) Level(t, releaseAt float64) float64 {
	if t < 0 {
		return 0
	}
	if t < releaseAt {
		return e.held(t)
	}
	start := e.held(releaseAt)
	if e.Release <= 0 {
		return 0
	}
	since := t - releaseAt
	if since >= e.Release {
		return 0
	}
	return start * (1 - since/e.Release)
}

func (e ADSR) held(t float64) float64 {
	s := clamp01(e.Sustain)
	switch {
	case t < e.Attack:
		return t / e.Attack
	case t < e.Attack+e.Decay:
		return 1 - (1-s)*(t-e.Attack)/e.Decay
	default:
		return s
	}
}

// Breakpoints is an ADSR fitted into a fixed total length: a ramp to 1 at
// AttackEnd, a ramp to Sustain at DecayEnd, a hold until ReleaseStart, and a
// ramp to 0 at End.
type Breakpoints struct {
	AttackEnd    float64
	DecayEnd     float64
	ReleaseStart float64
	End          float64
	Sustain      float64
}

// Clip fits the envelope into total seconds. The attack takes at most half of
// the clip and the release starts no earlier than 80% of it.
func (e ADSR) Clip(total float64) Breakpoints {
	attackEnd := math.Min(math.Max(e.Attack, 0), total*0.5)
	decayEnd := math.Min(attackEnd+math.Max(e.Decay, 0), total*0.8)
	releaseStart := math.Max(decayEnd, total*0.8)
	return Breakpoints{
		AttackEnd:    attackEnd,
		DecayEnd:     decayEnd,
		ReleaseStart: releaseStart,
		End:          total,
		Sustain:      clamp01(e.Sustain),
	}
}

// Level evaluates the clipped envelope at t seconds.
func (b Breakpoints) Level(t float64) float64 {
	switch {
	case t < 0:
		return 0
	case t < b.AttackEnd:
		return t / b.AttackEnd
	case t < b.DecayEnd:
		return lerp(1, b.Sustain, (t-b.AttackEnd)/(b.DecayEnd-b.AttackEnd))
	case t < b.ReleaseStart:
		return b.Sustain
	case t < b.End:
		return lerp(b.Sustain, 0, (t-b.ReleaseStart)/(b.End-b.ReleaseStart))
	default:
		return 0
	}
}

func lerp(a, b, frac float64) float64 {
	return a + (b-a)*frac
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
