package graph

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-dsp/dsp/effects"

	"github.com/cwbudde/algo-sfx/dsp"
)

// ErrMissingParam is returned when a node is built without a parameter it
// reads on the render path.
var ErrMissingParam = errors.New("graph: missing node parameter")

type processor interface {
	process(buf []float64, t float64)
}

// CrusherNode reduces bit depth and sample rate. Both parameters are read
// once per block.
type CrusherNode struct {
	BitDepth            *Param
	SampleRateReduction *Param

	crusher dsp.Crusher
}

// CrusherParams returns a fresh parameter set for NewCrusherNode.
func CrusherParams() map[string]*Param {
	return map[string]*Param{
		"bitDepth":            NewParam("bitDepth", 16, 1, 16),
		"sampleRateReduction": NewParam("sampleRateReduction", 1, 1, 32),
	}
}

// NewCrusherNode looks up its parameters by name.
func NewCrusherNode(params map[string]*Param) (*CrusherNode, error) {
	depth, ok := params["bitDepth"]
	if !ok || depth == nil {
		return nil, fmt.Errorf("%w: bitDepth", ErrMissingParam)
	}
	reduction, ok := params["sampleRateReduction"]
	if !ok || reduction == nil {
		return nil, fmt.Errorf("%w: sampleRateReduction", ErrMissingParam)
	}
	return &CrusherNode{BitDepth: depth, SampleRateReduction: reduction}, nil
}

func (n *CrusherNode) process(buf []float64, t float64) {
	depth := n.BitDepth.ValueAt(t)
	reduction := n.SampleRateReduction.ValueAt(t)
	for i, x := range buf {
		buf[i] = n.crusher.Process(x, depth, reduction)
	}
}

const vibratoMaxDelay = 0.005

// VibratoNode modulates pitch with a sine-swept delay.
type VibratoNode struct {
	Rate  *Param
	Depth *Param

	line       *dsp.DelayLine
	phase      float64
	sampleRate float64
	maxDelay   float64
}

func newVibratoNode(sampleRate float64) *VibratoNode {
	maxDelay := vibratoMaxDelay * sampleRate
	return &VibratoNode{
		Rate:       NewParam("vibratoRate", 4, 0, 20),
		Depth:      NewParam("vibratoDepth", 0, 0, 1),
		line:       dsp.NewDelayLine(int(maxDelay) + 8),
		sampleRate: sampleRate,
		maxDelay:   maxDelay,
	}
}

func (n *VibratoNode) process(buf []float64, t float64) {
	rate := n.Rate.ValueAt(t)
	depth := n.Depth.ValueAt(t)
	inc := rate / n.sampleRate
	for i, x := range buf {
		n.line.Write(x)
		n.phase += inc
		n.phase -= math.Floor(n.phase)
		if depth <= 0 {
			continue
		}
		mod := 0.5 + 0.5*math.Sin(2*math.Pi*n.phase)
		buf[i] = n.line.ReadCubic(2 + depth*n.maxDelay*mod)
	}
}

// ChorusNode is the chorus/flanger stage. A zero wet level bypasses it.
type ChorusNode struct {
	Rate     *Param
	Depth    *Param
	Feedback *Param
	Wet      *Param

	fx       *effects.Chorus
	line     *dsp.DelayLine
	fbDelay  float64
	bypassed bool

	rate, depth, wet float64
}

func newChorusNode(sampleRate float64) (*ChorusNode, error) {
	fx, err := effects.NewChorus()
	if err != nil {
		return nil, fmt.Errorf("create chorus: %w", err)
	}
	if err := fx.SetSampleRate(sampleRate); err != nil {
		return nil, fmt.Errorf("chorus sample rate: %w", err)
	}
	if err := fx.SetStages(2); err != nil {
		return nil, fmt.Errorf("chorus stages: %w", err)
	}
	return &ChorusNode{
		Rate:     NewParam("flangerRate", 0, 0, 20),
		Depth:    NewParam("flangerDepth", 0, 0, 1),
		Feedback: NewParam("flangerFeedback", 0, 0, 0.95),
		Wet:      NewParam("flangerWet", 0, 0, 1),
		fx:       fx,
		line:     dsp.NewDelayLine(int(0.01*sampleRate) + 8),
		fbDelay:  0.0035 * sampleRate,
		bypassed: true,
		rate:     -1,
		depth:    -1,
		wet:      -1,
	}, nil
}

// configure pushes changed settings into the chorus. Failed setters keep the
// previous value.
func (n *ChorusNode) configure(rate, depth, wet float64) {
	if wet != n.wet {
		if n.fx.SetMix(wet) == nil {
			n.wet = wet
		}
	}
	if depth != n.depth {
		if n.fx.SetDepth(math.Min(depth*0.01, 0.01)) == nil {
			n.depth = depth
		}
	}
	if rate != n.rate {
		if n.fx.SetSpeedHz(math.Max(0.05, math.Min(rate, 5))) == nil {
			n.rate = rate
		}
	}
}

func (n *ChorusNode) process(buf []float64, t float64) {
	wet := n.Wet.ValueAt(t)
	if wet <= 0 {
		if !n.bypassed {
			n.fx.Reset()
			n.line.Reset()
			n.bypassed = true
		}
		return
	}
	n.bypassed = false
	n.configure(n.Rate.ValueAt(t), n.Depth.ValueAt(t), wet)
	fb := n.Feedback.ValueAt(t)
	for i, x := range buf {
		v := (1-fb)*x + fb*n.line.ReadFractional(n.fbDelay)
		n.line.Write(v)
		buf[i] = n.fx.ProcessSample(v)
	}
}

// FilterNode is a resonant biquad whose coefficients follow its parameters
// once per block.
type FilterNode struct {
	Cutoff *Param
	Q      *Param

	filter     *dsp.Filter
	sampleRate float64
	cutoff, q  float64
}

func newFilterNode(kind dsp.FilterKind, name string, cutoff, sampleRate float64) *FilterNode {
	return &FilterNode{
		Cutoff:     NewParam(name+"Cutoff", cutoff, 20, 20000),
		Q:          NewParam(name+"Resonance", 1, 0.1, 20),
		filter:     dsp.NewFilter(kind, cutoff, 1, sampleRate),
		sampleRate: sampleRate,
		cutoff:     cutoff,
		q:          1,
	}
}

func (n *FilterNode) update(cutoff, q float64) {
	if cutoff == n.cutoff && q == n.q {
		return
	}
	n.cutoff, n.q = cutoff, q
	n.filter.Set(cutoff, q, n.sampleRate)
}

func (n *FilterNode) process(buf []float64, t float64) {
	n.update(n.Cutoff.ValueAt(t), n.Q.ValueAt(t))
	for i, x := range buf {
		buf[i] = n.filter.Process(x)
	}
}

// AnalyzerSize is the number of samples returned by Analyzer.Snapshot.
const AnalyzerSize = 1024

// Analyzer keeps the most recent output samples for an oscilloscope. The
// render side writes with atomics; readers never block it.
type Analyzer struct {
	ring [AnalyzerSize]atomic.Uint32
	pos  atomic.Uint64
}

func (a *Analyzer) process(buf []float64, _ float64) {
	pos := a.pos.Load()
	for _, x := range buf {
		a.ring[pos%AnalyzerSize].Store(math.Float32bits(float32(x)))
		pos++
	}
	a.pos.Store(pos)
}

// Snapshot copies the last AnalyzerSize samples, oldest first, into dst and
// returns it. dst is grown when it is too small.
func (a *Analyzer) Snapshot(dst []float32) []float32 {
	if cap(dst) < AnalyzerSize {
		dst = make([]float32, AnalyzerSize)
	}
	dst = dst[:AnalyzerSize]
	pos := a.pos.Load()
	for i := range dst {
		dst[i] = math.Float32frombits(a.ring[(pos+uint64(i))%AnalyzerSize].Load())
	}
	return dst
}
