package graph

import (
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/cwbudde/algo-sfx/dsp"
	"github.com/cwbudde/algo-sfx/params"
)

// Voice is the sound source at the head of the graph. It is either a
// *TonalVoice or a *NoiseVoice; callers switch on the concrete type for the
// operations that differ (attacks need a frequency only on tonal voices).
type Voice interface {
	TriggerRelease(at float64)
	SetEnvelope(env dsp.ADSR)
	Envelope() dsp.ADSR
	Dispose()
	Disposed() bool

	render(buf []float64, t0, sampleRate float64)
}

// gate is an immutable note-on/note-off pair in graph seconds.
type gate struct {
	on, off float64
}

// envelope is the gate and ADSR state shared by both voice kinds.
type envelope struct {
	adsr     atomic.Pointer[dsp.ADSR]
	gate     atomic.Pointer[gate]
	disposed atomic.Bool
}

func (e *envelope) init() {
	env := dsp.ADSR{Attack: 0.01, Decay: 0.1, Sustain: 0.5, Release: 0.2}
	e.adsr.Store(&env)
}

// SetEnvelope replaces the ADSR times used by subsequent blocks.
func (e *envelope) SetEnvelope(env dsp.ADSR) {
	e.adsr.Store(&env)
}

// Envelope returns the current ADSR settings.
func (e *envelope) Envelope() dsp.ADSR {
	return *e.adsr.Load()
}

// TriggerRelease closes the gate at graph time at. Without an open gate it
// does nothing.
func (e *envelope) TriggerRelease(at float64) {
	g := e.gate.Load()
	if g == nil || !math.IsInf(g.off, 1) {
		return
	}
	e.gate.Store(&gate{on: g.on, off: math.Max(at, g.on)})
}

// Gate reports the last published note-on and note-off times.
func (e *envelope) Gate() (on, off float64, ok bool) {
	g := e.gate.Load()
	if g == nil {
		return 0, 0, false
	}
	return g.on, g.off, true
}

// Dispose silences the voice permanently. Repeated calls are harmless.
func (e *envelope) Dispose() {
	e.disposed.Store(true)
	e.gate.Store(nil)
}

// Disposed reports whether Dispose was called.
func (e *envelope) Disposed() bool {
	return e.disposed.Load()
}

func (e *envelope) open(on, off float64) {
	if e.disposed.Load() {
		return
	}
	e.gate.Store(&gate{on: on, off: off})
}

// Tone selects the oscillator shape of a tonal voice.
type Tone struct {
	Shape dsp.Shape
	Duty  float64
}

// ToneFor maps a waveform onto oscillator settings. Square waves are pulses
// so the duty cycle applies.
func ToneFor(w params.Waveform, duty float64) Tone {
	switch w {
	case params.Sawtooth:
		return Tone{Shape: dsp.ShapeSawtooth}
	case params.Sine:
		return Tone{Shape: dsp.ShapeSine}
	default:
		return Tone{Shape: dsp.ShapePulse, Duty: math.Max(0, math.Min(1, duty))}
	}
}

// TonalVoice is an oscillator with frequency and detune parameters.
type TonalVoice struct {
	envelope

	Frequency *Param
	Detune    *Param

	tone atomic.Pointer[Tone]
	osc  dsp.Oscillator
}

// NewTonalVoice creates a pulse voice at 440 Hz.
func NewTonalVoice() *TonalVoice {
	v := &TonalVoice{
		Frequency: NewParam("frequency", 440, 1, 22050),
		Detune:    NewParam("detune", 0, -100, 100),
	}
	v.init()
	v.SetTone(Tone{Shape: dsp.ShapePulse, Duty: 0.5})
	return v
}

// SetTone changes the oscillator shape.
func (v *TonalVoice) SetTone(t Tone) {
	v.tone.Store(&t)
}

// Tone returns the current oscillator shape.
func (v *TonalVoice) Tone() Tone {
	return *v.tone.Load()
}

// TriggerAttack opens the gate at graph time at and sets the pitch. Any
// automation on the frequency is dropped.
func (v *TonalVoice) TriggerAttack(freq, at float64) {
	v.Frequency.CancelScheduled()
	v.Frequency.SetValue(freq)
	v.open(at, math.Inf(1))
}

// TriggerAttackRelease plays freq for dur seconds starting at at.
func (v *TonalVoice) TriggerAttackRelease(freq, dur, at float64) {
	v.Frequency.CancelScheduled()
	v.Frequency.SetValue(freq)
	v.open(at, at+math.Max(dur, 0))
}

func (v *TonalVoice) render(buf []float64, t0, sampleRate float64) {
	g := v.gate.Load()
	if g == nil || v.disposed.Load() {
		clear(buf)
		return
	}
	env := v.adsr.Load()
	tone := v.tone.Load()
	freq := v.Frequency.ValueAt(t0) * params.CentsToRatio(v.Detune.ValueAt(t0))
	v.osc.Shape = tone.Shape
	v.osc.Duty = tone.Duty
	for i := range buf {
		t := t0 + float64(i)/sampleRate
		buf[i] = v.osc.Next(freq, sampleRate) * env.Level(t-g.on, g.off-g.on)
	}
}

// NoiseVoice is a white-noise source.
type NoiseVoice struct {
	envelope

	rng *rand.Rand
}

// NewNoiseVoice creates a noise voice drawing from rng. rng is owned by the
// render goroutine from then on.
func NewNoiseVoice(rng *rand.Rand) *NoiseVoice {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	v := &NoiseVoice{rng: rng}
	v.init()
	return v
}

// TriggerAttack opens the gate at graph time at.
func (v *NoiseVoice) TriggerAttack(at float64) {
	v.open(at, math.Inf(1))
}

// TriggerAttackRelease plays a burst of dur seconds starting at at.
func (v *NoiseVoice) TriggerAttackRelease(dur, at float64) {
	v.open(at, at+math.Max(dur, 0))
}

func (v *NoiseVoice) render(buf []float64, t0, sampleRate float64) {
	g := v.gate.Load()
	if g == nil || v.disposed.Load() {
		clear(buf)
		return
	}
	env := v.adsr.Load()
	for i := range buf {
		t := t0 + float64(i)/sampleRate
		buf[i] = dsp.NoiseSample(v.rng) * env.Level(t-g.on, g.off-g.on)
	}
}

// NewVoice builds the voice kind for w.
func NewVoice(w params.Waveform, rng *rand.Rand) Voice {
	if w == params.Noise {
		return NewNoiseVoice(rng)
	}
	v := NewTonalVoice()
	v.SetTone(ToneFor(w, 0.5))
	return v
}
