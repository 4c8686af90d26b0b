// Package export renders a sound offline and encodes it to files.
//
// Rendering builds its own signal chain for every call and shares nothing with
// the live graph, so several exports may run at once.
package export

import "math"

// SampleRate is the export rate.
const SampleRate = 44100

// Buffer is a rendered mono signal. It is immutable once returned by Render.
type Buffer struct {
	sampleRate int
	samples    []float64
}

// NewBuffer copies samples into a Buffer.
func NewBuffer(sampleRate int, samples []float64) *Buffer {
	return &Buffer{sampleRate: sampleRate, samples: append([]float64(nil), samples...)}
}

func (b *Buffer) SampleRate() int { return b.sampleRate }

func (b *Buffer) Len() int { return len(b.samples) }

// Duration is the length in seconds.
func (b *Buffer) Duration() float64 {
	if b.sampleRate <= 0 {
		return 0
	}
	return float64(len(b.samples)) / float64(b.sampleRate)
}

// Samples returns a copy of the signal.
func (b *Buffer) Samples() []float64 {
	return append([]float64(nil), b.samples...)
}

// At returns sample i.
func (b *Buffer) At(i int) float64 {
	return b.samples[i]
}

// PCM16 converts the signal to signed 16-bit samples.
func (b *Buffer) PCM16() []int16 {
	out := make([]int16, len(b.samples))
	for i, s := range b.samples {
		out[i] = PCM16(s)
	}
	return out
}

// Float32 returns the signal as float32, as the Opus encoder wants it.
func (b *Buffer) Float32() []float32 {
	out := make([]float32, len(b.samples))
	for i, s := range b.samples {
		out[i] = float32(s)
	}
	return out
}

// PCM16 maps s in [-1,1] to int16 as round(s*32768), saturating at both ends.
func PCM16(s float64) int16 {
	if math.IsNaN(s) {
		return 0
	}
	v := math.Round(math.Max(-1, math.Min(1, s)) * 32768)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// Frames returns the frame count for seconds at rate: round(rate*seconds),
// at least one.
func Frames(seconds float64, rate int) int {
	n := int(math.Round(seconds * float64(rate)))
	if n < 1 {
		return 1
	}
	return n
}
