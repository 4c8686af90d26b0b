// Package dsp holds the allocation-free signal kernels shared by the live
// voice graph and the offline renderer. Keeping a single implementation here
// is what lets an offline export match what was auditioned.
package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// FilterKind selects the response designed by Filter.Set.
type FilterKind uint8

const (
	Lowpass FilterKind = iota
	Highpass
)

// Filter is an RBJ lowpass or highpass section whose coefficients can be
// redesigned while audio runs through it. State survives Set.
type Filter struct {
	biquad.Section
	kind FilterKind
}

// NewFilter designs a filter of the given kind.
func NewFilter(kind FilterKind, cutoff, q, sampleRate float64) *Filter {
	f := &Filter{kind: kind}
	f.Set(cutoff, q, sampleRate)
	return f
}

// Set redesigns the coefficients. The cutoff is held inside
// [1, 0.49*sampleRate]; design returns an all-zero section at or above Nyquist.
func (f *Filter) Set(cutoff, q, sampleRate float64) {
	cutoff = math.Max(1, math.Min(cutoff, sampleRate*0.49))
	q = math.Max(q, 0.01)
	if f.kind == Highpass {
		f.Coefficients = design.Highpass(cutoff, q, sampleRate)
	} else {
		f.Coefficients = design.Lowpass(cutoff, q, sampleRate)
	}
}

// Process filters one sample.
func (f *Filter) Process(x float64) float64 {
	return dspcore.FlushDenormals(f.ProcessSample(x))
}

// DelayLine implements a circular buffer for delay
type DelayLine struct {
	buffer   []float64
	writePos int
	size     int
}

// NewDelayLine creates a new delay line with the given size
func NewDelayLine(size int) *DelayLine {
	if size < 4 {
		size = 4
	}
	return &DelayLine{
		buffer: make([]float64, size),
		size:   size,
	}
}

// Write writes a sample to the delay line
func (d *DelayLine) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos = (d.writePos + 1) % d.size
}

// Read reads a sample from the delay line at the given delay (in samples).
// A delay of 1 returns the most recently written sample.
func (d *DelayLine) Read(delay int) float64 {
	readPos := ((d.writePos-delay)%d.size + d.size) % d.size
	return d.buffer[readPos]
}

// ReadFractional reads with fractional delay using linear interpolation
func (d *DelayLine) ReadFractional(delay float64) float64 {
	intDelay := int(delay)
	frac := delay - float64(intDelay)

	sample1 := d.Read(intDelay)
	sample2 := d.Read(intDelay + 1)

	return sample1 + frac*(sample2-sample1)
}

// ReadCubic reads with fractional delay using 3rd order Lagrange
// interpolation. delay must be at least 2 samples.
func (d *DelayLine) ReadCubic(delay float64) float64 {
	intDelay := int(delay)
	frac := delay - float64(intDelay)
	return lagrange3(
		d.Read(intDelay-1),
		d.Read(intDelay),
		d.Read(intDelay+1),
		d.Read(intDelay+2),
		frac,
	)
}

// Reset clears the delay line
func (d *DelayLine) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}

// lagrange3 interpolates between s1 and s2 at frac using four neighbours.
func lagrange3(s0, s1, s2, s3, frac float64) float64 {
	c0 := s1
	c1 := s2 - s0/3.0 - s1/2.0 - s3/6.0
	c2 := s0/2.0 - s1 + s2/2.0
	c3 := s1/2.0 - s2/2.0 + (s3-s0)/6.0
	return c0 + frac*(c1+frac*(c2+frac*c3))
}
