// Package synth is the sequencer that drives the live voice graph: one-shot
// notes with automation, held previews, the arpeggiator and the retrigger
// loop.
package synth

import (
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-sfx/graph"
	"github.com/cwbudde/algo-sfx/params"
	"github.com/cwbudde/algo-sfx/transport"
)

// ErrDisposed is returned by operations on a disposed Synth.
var ErrDisposed = errors.New("synth: disposed")

// Transport is the clock the sequencer schedules against. *transport.Clock
// implements it.
type Transport interface {
	Now() float64
	Schedule(at float64, fn transport.Callback) transport.EventID
	ScheduleRepeat(start float64, interval func() float64, fn transport.Callback) transport.EventID
	Clear(id transport.EventID)
	Cancel(after float64)
	Start()
	Stop()
}

// State is the sequencer state.
type State int

const (
	Idle State = iota
	PreviewHeld
	PlayingOneShot
	PlayingArpeggio
	PlayingRetrigger
)

func (s State) String() string {
	switch s {
	case PreviewHeld:
		return "preview-held"
	case PlayingOneShot:
		return "one-shot"
	case PlayingArpeggio:
		return "arpeggio"
	case PlayingRetrigger:
		return "retrigger"
	default:
		return "idle"
	}
}

// Option configures a Synth.
type Option func(*Synth)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synth) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRand sets the random source for arpeggio shuffles and noise voices.
func WithRand(r *rand.Rand) Option {
	return func(s *Synth) {
		if r != nil {
			s.rng = r
		}
	}
}

// Synth is safe for concurrent use by control goroutines. Clock callbacks
// take the same lock, so they must be fired from a goroutine that does not
// hold it.
type Synth struct {
	mu sync.Mutex

	g   *graph.Graph
	clk Transport
	log *slog.Logger
	rng *rand.Rand

	params   params.Params
	state    State
	disposed bool

	// note is the base frequency of the current play request.
	note    float64
	steps   []float64
	stepIdx int
	// gen invalidates callbacks scheduled by an earlier play request.
	gen uint64

	// Read by the clock while it holds its own lock.
	arpInterval    atomic.Uint64
	retrigInterval atomic.Uint64
}

// New wraps g and applies p. The graph voice is replaced when it does not
// match p.Waveform.
func New(g *graph.Graph, clk Transport, p params.Params, opts ...Option) *Synth {
	s := &Synth{
		g:   g,
		clk: clk,
		log: slog.Default(),
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	p = params.Sanitize(p)
	p.ResolveModes()
	s.params = p
	s.note = p.Frequency

	_, noise := g.Voice().(*graph.NoiseVoice)
	if noise != (p.Waveform == params.Noise) {
		s.swapVoice(p.Waveform)
	}
	s.steps = orderSteps(p.ArpSteps, p.ArpPattern, s.rng)
	s.apply(p)
	return s
}

// State returns the current sequencer state.
func (s *Synth) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsPlaying reports whether a one-shot or a sequence is running.
func (s *Synth) IsPlaying() bool {
	switch s.State() {
	case PlayingOneShot, PlayingArpeggio, PlayingRetrigger:
		return true
	}
	return false
}

// IsSequenced reports whether the current parameters select the arpeggiator
// or the retrigger loop.
func (s *Synth) IsSequenced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Sequenced()
}

// Params returns a copy of the current parameters.
func (s *Synth) Params() params.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Clone()
}

// ArpOrder returns the cached arpeggio step order.
func (s *Synth) ArpOrder() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.steps...)
}

// WaveformData returns the latest output snapshot for display.
func (s *Synth) WaveformData() []float32 {
	return s.g.WaveformData()
}

// Dispose stops playback and releases the graph. It is safe to call more
// than once.
func (s *Synth) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.stopLocked()
	s.g.Dispose()
	s.disposed = true
}

func storeInterval(dst *atomic.Uint64, rate float64) {
	interval := 1.0
	if rate > 0 {
		interval = 1 / rate
	}
	dst.Store(math.Float64bits(interval))
}

func loadInterval(src *atomic.Uint64) float64 {
	return math.Float64frombits(src.Load())
}
