package synth

import (
	"math/rand/v2"
	"slices"

	"github.com/cwbudde/algo-sfx/dsp"
	"github.com/cwbudde/algo-sfx/graph"
	"github.com/cwbudde/algo-sfx/params"
)

// UpdateParams merges patch into the current parameters. Values are clamped
// and the arpeggio wins over the retrigger loop. A waveform change swaps the
// voice; everything else is written to the existing nodes in place.
func (s *Synth) UpdateParams(patch params.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.params
	next := prev.Clone()
	patch.Apply(&next)
	next = params.Sanitize(next)
	next.ResolveModes()
	s.params = next

	if next.Waveform != prev.Waveform {
		s.swapVoice(next.Waveform)
	}
	if !slices.Equal(next.ArpSteps, prev.ArpSteps) || next.ArpPattern != prev.ArpPattern {
		s.steps = orderSteps(next.ArpSteps, next.ArpPattern, s.rng)
	}
	if patch.Touches(params.KeyFrequency) {
		s.note = next.Frequency
	}
	s.apply(next)

	// A running sequence whose mode was switched off ends here.
	switch {
	case s.state == PlayingArpeggio && !next.ArpEnabled(),
		s.state == PlayingRetrigger && !next.RetriggerEnabled():
		s.stopLocked()
	}
}

func (s *Synth) swapVoice(w params.Waveform) {
	var rng *rand.Rand
	if w == params.Noise {
		rng = rand.New(rand.NewPCG(s.rng.Uint64(), s.rng.Uint64()))
	}
	v := graph.NewVoice(w, rng)
	s.g.SwapVoice(v)
	s.log.Debug("voice swapped", "waveform", string(w))
	if s.state == PreviewHeld {
		s.attackHeld(s.clk.Now())
	}
}

// apply writes p into the graph nodes.
func (s *Synth) apply(p params.Params) {
	env := dsp.ADSR{Attack: p.Attack, Decay: p.Decay, Sustain: p.Sustain, Release: p.Release}
	switch v := s.g.Voice().(type) {
	case *graph.TonalVoice:
		v.SetTone(graph.ToneFor(p.Waveform, p.DutyCycle))
		v.Frequency.SetValue(s.currentFrequency(p))
		v.Detune.SetValue(p.Detune)
		v.SetEnvelope(env)
		if _, ok := p.Curve(params.CurveFrequency); !ok {
			v.Frequency.CancelScheduled()
		}
	case *graph.NoiseVoice:
		v.SetEnvelope(env)
	}

	g := s.g
	g.Crusher.BitDepth.SetValue(p.BitDepth)
	g.Crusher.SampleRateReduction.SetValue(p.SampleRateReduction)
	g.Vibrato.Rate.SetValue(p.VibratoRate)
	g.Vibrato.Depth.SetValue(p.VibratoDepth)
	g.Chorus.Rate.SetValue(p.FlangerRate)
	g.Chorus.Depth.SetValue(p.FlangerDepth)
	g.Chorus.Feedback.SetValue(p.FlangerFeedback)
	g.Chorus.Wet.SetValue(p.FlangerWet)
	g.Lowpass.Cutoff.SetValue(p.LPFCutoff)
	g.Lowpass.Q.SetValue(p.LPFResonance)
	g.Highpass.Cutoff.SetValue(p.HPFCutoff)
	g.Highpass.Q.SetValue(p.HPFResonance)
	if _, ok := p.Curve(params.CurveLPFCutoff); !ok {
		g.Lowpass.Cutoff.CancelScheduled()
	}
	if _, ok := p.Curve(params.CurveHPFCutoff); !ok {
		g.Highpass.Cutoff.CancelScheduled()
	}

	storeInterval(&s.arpInterval, p.ArpSpeed)
	storeInterval(&s.retrigInterval, p.RetriggerRate)
}

// currentFrequency is the pitch the tonal voice should hold outside of
// scheduled automation: the parameter while idle, the requested note
// otherwise.
func (s *Synth) currentFrequency(p params.Params) float64 {
	if s.state == Idle {
		return p.Frequency
	}
	return s.note
}

// orderSteps sorts the arpeggio steps for pattern. The random order is
// drawn once here and cached by the caller until the steps or the pattern
// change.
func orderSteps(steps []float64, pattern params.ArpPattern, rng *rand.Rand) []float64 {
	out := slices.Clone(steps)
	if out == nil {
		out = []float64{}
	}
	switch pattern {
	case params.ArpDown:
		slices.SortFunc(out, func(a, b float64) int {
			switch {
			case a > b:
				return -1
			case a < b:
				return 1
			}
			return 0
		})
	case params.ArpRandom:
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	default:
		slices.Sort(out)
	}
	return out
}
