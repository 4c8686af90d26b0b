package export

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-sfx/curve"
	"github.com/cwbudde/algo-sfx/dsp"
	"github.com/cwbudde/algo-sfx/graph"
	"github.com/cwbudde/algo-sfx/params"
)

const (
	// CurvePoints is the automation resolution used offline.
	CurvePoints = 256
	// blockSize is the span over which automated filter and pitch values are
	// held, matching the live graph's control rate.
	blockSize = 128
	// sourceStop is the fraction of the clip after which the source is silent.
	sourceStop = 0.8
)

type options struct {
	sampleRate int
	rng        *rand.Rand
}

// Option configures Render.
type Option func(*options)

// WithSampleRate overrides SampleRate.
func WithSampleRate(rate int) Option {
	return func(o *options) {
		if rate > 0 {
			o.sampleRate = rate
		}
	}
}

// WithRand sets the noise source. Renders of noise voices are reproducible
// only with a seeded generator.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		if rng != nil {
			o.rng = rng
		}
	}
}

// Render builds an isolated chain for p and renders seconds of audio:
// source, crusher, lowpass, highpass and the clipped ADSR gain, in that order.
func Render(ctx context.Context, p params.Params, seconds float64, opts ...Option) (*Buffer, error) {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return nil, ErrInvalidDuration
	}
	o := options{sampleRate: SampleRate}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	p = params.Sanitize(p)
	n := Frames(seconds, o.sampleRate)
	sr := float64(o.sampleRate)

	env := dsp.ADSR{Attack: p.Attack, Decay: p.Decay, Sustain: p.Sustain, Release: p.Release}.Clip(seconds)
	stopAt := seconds * sourceStop

	tonal := p.Waveform != params.Noise
	var (
		osc   dsp.Oscillator
		noise []float64
	)
	if tonal {
		tone := graph.ToneFor(p.Waveform, p.DutyCycle)
		osc.Shape, osc.Duty = tone.Shape, tone.Duty
	} else {
		noise = dsp.NoiseBuffer(o.rng, n)
	}
	detune := params.CentsToRatio(p.Detune)

	var freqCurve []float64
	if c, ok := p.Curve(params.CurveFrequency); ok && tonal {
		freqCurve = curve.Sample(c, CurvePoints)
	}
	lpfCurve := sampled(p, params.CurveLPFCutoff)
	hpfCurve := sampled(p, params.CurveHPFCutoff)

	var crusher dsp.Crusher
	lpf := dsp.NewFilter(dsp.Lowpass, p.LPFCutoff, p.LPFResonance, sr)
	hpf := dsp.NewFilter(dsp.Highpass, p.HPFCutoff, p.HPFResonance, sr)

	out := make([]float64, n)
	for start := 0; start < n; start += blockSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+blockSize, n)
		t0 := float64(start) / sr

		freq := automated(freqCurve, p.Frequency, seconds, t0)
		freq = math.Max(0, math.Min(freq, sr/2)) * detune
		if lpfCurve != nil {
			lpf.Set(automated(lpfCurve, p.LPFCutoff, seconds, t0), p.LPFResonance, sr)
		}
		if hpfCurve != nil {
			hpf.Set(automated(hpfCurve, p.HPFCutoff, seconds, t0), p.HPFResonance, sr)
		}

		for i := start; i < end; i++ {
			t := float64(i) / sr
			var x float64
			if t < stopAt {
				if tonal {
					x = osc.Next(freq, sr)
				} else {
					x = noise[i]
				}
			}
			x = crusher.Process(x, p.BitDepth, p.SampleRateReduction)
			x = lpf.Process(x)
			x = hpf.Process(x)
			out[i] = x * env.Level(t)
		}
	}
	return &Buffer{sampleRate: o.sampleRate, samples: out}, nil
}

func sampled(p params.Params, target params.CurveTarget) []float64 {
	c, ok := p.Curve(target)
	if !ok {
		return nil
	}
	return curve.Sample(c, CurvePoints)
}

// automated returns the curve value at t when a curve spans [0, dur], else
// the static value.
func automated(values []float64, static, dur, t float64) float64 {
	if v, ok := dsp.CurveValueAt(values, 0, dur, t); ok {
		return v
	}
	return static
}
