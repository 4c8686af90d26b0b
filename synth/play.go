package synth

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-sfx/curve"
	"github.com/cwbudde/algo-sfx/graph"
	"github.com/cwbudde/algo-sfx/params"
	"github.com/cwbudde/algo-sfx/transport"
)

// Play starts a note for the configured duration. Depending on the
// parameters it runs the arpeggiator, the retrigger loop or a single
// attack-release with automation curves. A held preview is released first.
func (s *Synth) Play(note Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}
	freq, err := note.resolve(s.params.Frequency)
	if err != nil {
		return fmt.Errorf("play: %w", err)
	}

	s.releasePreview()
	s.haltSequence()
	s.note = freq
	now := s.clk.Now()

	switch {
	case s.params.ArpEnabled():
		s.startSequence(PlayingArpeggio, now, &s.arpInterval, s.arpTick)
	case s.params.RetriggerEnabled():
		s.startSequence(PlayingRetrigger, now, &s.retrigInterval, s.retriggerTick)
	default:
		s.playOneShot(freq, now)
	}
	s.log.Debug("play", "mode", s.state.String(), "frequency", freq, "duration_ms", s.params.Duration)
	return nil
}

// StartPreview holds a note until StopPreview, Play or Stop.
func (s *Synth) StartPreview(note Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}
	freq, err := note.resolve(s.params.Frequency)
	if err != nil {
		return fmt.Errorf("start preview: %w", err)
	}
	if s.state != Idle && s.state != PreviewHeld {
		s.haltSequence()
	}
	// A held preview plays the static parameters, not a one-shot's ramps.
	for _, p := range s.automatable() {
		p.CancelScheduled()
	}
	s.note = freq
	s.attackHeld(s.clk.Now())
	s.state = PreviewHeld
	return nil
}

// StopPreview releases a held preview. Other states are left alone.
func (s *Synth) StopPreview() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releasePreview()
}

// Stop cancels every scheduled event and automation, releases the voice and
// stops the clock. It works in every state, including before the first Play.
func (s *Synth) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Synth) stopLocked() {
	s.clk.Cancel(math.Inf(-1))
	for _, p := range s.automatable() {
		p.CancelScheduled()
	}
	s.g.Voice().TriggerRelease(s.clk.Now())
	s.gen++
	s.stepIdx = 0
	s.state = Idle
	s.clk.Stop()
}

// automatable lists every parameter that can carry scheduled values.
func (s *Synth) automatable() []*graph.Param {
	ps := []*graph.Param{
		s.g.Vibrato.Rate,
		s.g.Vibrato.Depth,
		s.g.Lowpass.Cutoff,
		s.g.Highpass.Cutoff,
	}
	if v, ok := s.g.Voice().(*graph.TonalVoice); ok {
		ps = append(ps, v.Frequency, v.Detune)
	}
	return ps
}

func (s *Synth) releasePreview() {
	if s.state != PreviewHeld {
		return
	}
	s.g.Voice().TriggerRelease(s.clk.Now())
	s.state = Idle
}

// haltSequence drops every pending event of an earlier play request.
func (s *Synth) haltSequence() {
	s.clk.Cancel(math.Inf(-1))
	s.gen++
	s.stepIdx = 0
	if s.state != PreviewHeld {
		s.state = Idle
	}
}

func (s *Synth) attackHeld(at float64) {
	switch v := s.g.Voice().(type) {
	case *graph.TonalVoice:
		v.TriggerAttack(s.note, at)
	case *graph.NoiseVoice:
		v.TriggerAttack(at)
	}
}

func (s *Synth) playOneShot(freq, now float64) {
	dur := s.params.DurationSeconds()
	switch v := s.g.Voice().(type) {
	case *graph.TonalVoice:
		v.TriggerAttackRelease(freq, dur, now)
		s.scheduleCurves(v, now, dur)
	case *graph.NoiseVoice:
		v.TriggerAttackRelease(dur, now)
	}
	s.state = PlayingOneShot

	gen := s.gen
	s.clk.Schedule(now+dur+s.params.Release, func(float64) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen == gen && s.state == PlayingOneShot {
			s.state = Idle
		}
	})
	s.clk.Start()
}

// scheduleCurves ramps every curved target across the note. Earlier ramps on
// the same target are cancelled first.
func (s *Synth) scheduleCurves(v *graph.TonalVoice, now, dur float64) {
	for _, target := range params.CurveTargets {
		c, ok := s.params.Curve(target)
		if !ok {
			continue
		}
		p := s.curveParam(v, target)
		p.CancelScheduled()
		p.SetValueCurve(curve.Sample(c, curve.DefaultSamples), now, dur)
	}
}

func (s *Synth) curveParam(v *graph.TonalVoice, target params.CurveTarget) *graph.Param {
	switch target {
	case params.CurveLPFCutoff:
		return s.g.Lowpass.Cutoff
	case params.CurveHPFCutoff:
		return s.g.Highpass.Cutoff
	default:
		return v.Frequency
	}
}

func (s *Synth) startSequence(state State, now float64, interval *atomic.Uint64, tick func(gen uint64, at float64)) {
	gen := s.gen
	s.clk.ScheduleRepeat(now, func() float64 { return loadInterval(interval) }, func(at float64) {
		tick(gen, at)
	})
	s.clk.Schedule(now+s.params.DurationSeconds(), func(float64) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen == gen {
			s.log.Debug("sequence finished", "mode", s.state.String())
			s.stopLocked()
		}
	})
	s.state = state
	s.clk.Start()
}

func (s *Synth) arpTick(gen uint64, at float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != PlayingArpeggio {
		return
	}
	step := 0.0
	if len(s.steps) > 0 {
		step = s.steps[s.stepIdx%len(s.steps)]
	}
	s.stepIdx++
	s.trigger(params.Transpose(s.note, step), loadInterval(&s.arpInterval)/2, at)
}

func (s *Synth) retriggerTick(gen uint64, at float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != PlayingRetrigger {
		return
	}
	s.trigger(s.note, loadInterval(&s.retrigInterval)/2, at)
}

func (s *Synth) trigger(freq, dur, at float64) {
	switch v := s.g.Voice().(type) {
	case *graph.TonalVoice:
		v.TriggerAttackRelease(freq, dur, at)
	case *graph.NoiseVoice:
		v.TriggerAttackRelease(dur, at)
	}
}

var _ Transport = (*transport.Clock)(nil)
