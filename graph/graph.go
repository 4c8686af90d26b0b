// Package graph is the live, monophonic voice chain:
// source → crusher → vibrato → chorus → lowpass → highpass → analyzer/output.
//
// The graph is rendered block by block on the audio goroutine. Everything the
// control side changes (parameters, gates, the voice itself, the wiring) is
// published through atomics, so Process never takes a lock.
package graph

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-sfx/dsp"
)

// BlockSize is the number of frames rendered between parameter reads.
const BlockSize = 128

// NodeID names a node in the declared topology.
type NodeID string

const (
	NodeSource      NodeID = "source"
	NodeCrusher     NodeID = "crusher"
	NodeVibrato     NodeID = "vibrato"
	NodeChorus      NodeID = "chorus"
	NodeLowpass     NodeID = "lowpass"
	NodeHighpass    NodeID = "highpass"
	NodeAnalyzer    NodeID = "analyzer"
	NodeDestination NodeID = "destination"
)

// Edge is a directed connection.
type Edge struct {
	From, To NodeID
}

// Topology is the complete wiring of the graph, in signal order.
var Topology = []Edge{
	{NodeSource, NodeCrusher},
	{NodeCrusher, NodeVibrato},
	{NodeVibrato, NodeChorus},
	{NodeChorus, NodeLowpass},
	{NodeLowpass, NodeHighpass},
	{NodeHighpass, NodeAnalyzer},
	{NodeHighpass, NodeDestination},
}

// ErrUnknownNode is returned when an edge names a node the graph lacks.
var ErrUnknownNode = errors.New("graph: unknown node")

type voiceRef struct {
	v Voice
}

// chain is the render order resolved from the current edges.
type chain struct {
	source bool
	nodes  []processor
	output bool
}

// Graph owns every node of the live chain.
type Graph struct {
	Crusher  *CrusherNode
	Vibrato  *VibratoNode
	Chorus   *ChorusNode
	Lowpass  *FilterNode
	Highpass *FilterNode
	Analyzer *Analyzer

	sampleRate float64
	nodes      map[NodeID]processor

	voice    atomic.Pointer[voiceRef]
	chain    atomic.Pointer[chain]
	frames   atomic.Int64
	disposed atomic.Bool

	mu    sync.Mutex // guards edges
	edges []Edge

	block []float64
}

// New builds the graph around v and wires the declared topology.
func New(sampleRate float64, v Voice) (*Graph, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("graph: invalid sample rate %v", sampleRate)
	}
	crusher, err := NewCrusherNode(CrusherParams())
	if err != nil {
		return nil, err
	}
	chorus, err := newChorusNode(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}
	g := &Graph{
		Crusher:    crusher,
		Vibrato:    newVibratoNode(sampleRate),
		Chorus:     chorus,
		Lowpass:    newFilterNode(dsp.Lowpass, "lpf", 20000, sampleRate),
		Highpass:   newFilterNode(dsp.Highpass, "hpf", 20, sampleRate),
		Analyzer:   &Analyzer{},
		sampleRate: sampleRate,
		block:      make([]float64, BlockSize),
	}
	g.nodes = map[NodeID]processor{
		NodeCrusher:  g.Crusher,
		NodeVibrato:  g.Vibrato,
		NodeChorus:   g.Chorus,
		NodeLowpass:  g.Lowpass,
		NodeHighpass: g.Highpass,
		NodeAnalyzer: g.Analyzer,
	}
	g.voice.Store(&voiceRef{v: v})
	if err := g.ConnectAll(Topology); err != nil {
		return nil, err
	}
	return g, nil
}

// SampleRate returns the render rate in Hz.
func (g *Graph) SampleRate() float64 { return g.sampleRate }

// Now returns the rendered time in seconds. It is the time base for gates
// and automation.
func (g *Graph) Now() float64 {
	return float64(g.frames.Load()) / g.sampleRate
}

// Voice returns the current source.
func (g *Graph) Voice() Voice {
	if ref := g.voice.Load(); ref != nil {
		return ref.v
	}
	return nil
}

// SwapVoice installs v, disposes the previous voice and re-asserts the
// declared topology. Existing edges are not duplicated.
func (g *Graph) SwapVoice(v Voice) {
	old := g.voice.Swap(&voiceRef{v: v})
	if old != nil && old.v != nil && old.v != v {
		old.v.Dispose()
	}
	if err := g.ConnectAll(Topology); err != nil {
		panic(fmt.Sprintf("graph: declared topology rejected: %v", err))
	}
}

// Connect adds the edge from → to. Connecting an existing edge is a no-op.
func (g *Graph) Connect(from, to NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.addEdge(Edge{from, to}); err != nil {
		return err
	}
	g.rebuild()
	return nil
}

// ConnectAll connects every edge in edges.
func (g *Graph) ConnectAll(edges []Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, e := range edges {
		if err := g.addEdge(e); err != nil {
			return err
		}
	}
	g.rebuild()
	return nil
}

// Disconnect removes the edge from → to if present.
func (g *Graph) Disconnect(from, to NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool {
		return e.From == from && e.To == to
	})
	g.rebuild()
}

// Edges returns a copy of the current connections.
func (g *Graph) Edges() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.edges)
}

func (g *Graph) known(id NodeID) bool {
	if id == NodeSource || id == NodeDestination {
		return true
	}
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) addEdge(e Edge) error {
	if !g.known(e.From) {
		return fmt.Errorf("%w: %q", ErrUnknownNode, e.From)
	}
	if !g.known(e.To) {
		return fmt.Errorf("%w: %q", ErrUnknownNode, e.To)
	}
	if slices.Contains(g.edges, e) {
		return nil
	}
	g.edges = append(g.edges, e)
	return nil
}

// rebuild resolves the render order by walking the edges from the source and
// publishes it. Callers hold g.mu.
func (g *Graph) rebuild() {
	c := &chain{}
	visited := map[NodeID]bool{NodeSource: true}
	var walk func(id NodeID)
	walk = func(id NodeID) {
		for _, e := range g.edges {
			if e.From != id || visited[e.To] {
				continue
			}
			visited[e.To] = true
			if id == NodeSource {
				c.source = true
			}
			if e.To == NodeDestination {
				c.output = true
				continue
			}
			c.nodes = append(c.nodes, g.nodes[e.To])
			walk(e.To)
		}
	}
	walk(NodeSource)
	g.chain.Store(c)
}

// Process renders len(out) frames and advances the graph clock.
func (g *Graph) Process(out []float32) {
	for off := 0; off < len(out); off += BlockSize {
		n := min(BlockSize, len(out)-off)
		buf := g.block[:n]
		g.renderBlock(buf)
		for i, x := range buf {
			out[off+i] = float32(x)
		}
	}
}

func (g *Graph) renderBlock(buf []float64) {
	t0 := g.Now()
	defer g.frames.Add(int64(len(buf)))

	if g.disposed.Load() {
		clear(buf)
		return
	}
	c := g.chain.Load()
	ref := g.voice.Load()
	if c.source && ref != nil && ref.v != nil {
		ref.v.render(buf, t0, g.sampleRate)
	} else {
		clear(buf)
	}
	for _, n := range c.nodes {
		n.process(buf, t0)
	}
	if !c.output {
		clear(buf)
	}
}

// WaveformData returns the latest analyzer snapshot.
func (g *Graph) WaveformData() []float32 {
	return g.Analyzer.Snapshot(nil)
}

// Dispose silences the graph and disposes the voice. It is safe to call more
// than once.
func (g *Graph) Dispose() {
	if g.disposed.Swap(true) {
		return
	}
	if v := g.Voice(); v != nil {
		v.Dispose()
	}
}

// Disposed reports whether Dispose was called.
func (g *Graph) Disposed() bool {
	return g.disposed.Load()
}
