package graph

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-sfx/dsp"
)

// Param is an automatable node parameter. The control side writes the static
// value and publishes value curves; the render side reads them once per block
// without locking.
type Param struct {
	name     string
	min, max float64
	bits     atomic.Uint64
	ramp     atomic.Pointer[ramp]
}

type ramp struct {
	values []float64
	start  float64
	dur    float64
}

// NewParam creates a parameter clamped to [min, max].
func NewParam(name string, value, min, max float64) *Param {
	p := &Param{name: name, min: min, max: max}
	p.SetValue(value)
	return p
}

// Name returns the lookup name of the parameter.
func (p *Param) Name() string { return p.name }

// Value returns the static value.
func (p *Param) Value() float64 {
	return math.Float64frombits(p.bits.Load())
}

// SetValue stores a new static value. A scheduled curve keeps precedence
// until it is cancelled.
func (p *Param) SetValue(v float64) {
	p.bits.Store(math.Float64bits(p.clamp(v)))
}

// SetValueCurve schedules values to be spread linearly over
// [start, start+dur] seconds on the graph clock. The slice is copied. After
// the curve ends its last value is held.
func (p *Param) SetValueCurve(values []float64, start, dur float64) {
	if len(values) == 0 {
		return
	}
	p.ramp.Store(&ramp{
		values: append([]float64(nil), values...),
		start:  start,
		dur:    dur,
	})
}

// CancelScheduled drops any scheduled curve so the static value applies again.
func (p *Param) CancelScheduled() {
	p.ramp.Store(nil)
}

// Curve returns a copy of the published curve and its timing.
func (p *Param) Curve() (values []float64, start, dur float64, ok bool) {
	r := p.ramp.Load()
	if r == nil {
		return nil, 0, 0, false
	}
	return append([]float64(nil), r.values...), r.start, r.dur, true
}

// Scheduled reports whether a curve is currently published.
func (p *Param) Scheduled() bool {
	return p.ramp.Load() != nil
}

// ValueAt returns the effective value at graph time t.
func (p *Param) ValueAt(t float64) float64 {
	if r := p.ramp.Load(); r != nil {
		if v, ok := dsp.CurveValueAt(r.values, r.start, r.dur, t); ok {
			return p.clamp(v)
		}
	}
	return p.Value()
}

func (p *Param) clamp(v float64) float64 {
	if math.IsNaN(v) {
		return p.min
	}
	return math.Max(p.min, math.Min(p.max, v))
}
