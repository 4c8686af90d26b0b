package synth

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
	"testing"

	"github.com/cwbudde/algo-sfx/curve"
	"github.com/cwbudde/algo-sfx/graph"
	"github.com/cwbudde/algo-sfx/params"
	"github.com/cwbudde/algo-sfx/transport"
)

type fakeEvent struct {
	id       transport.EventID
	at       float64
	fn       transport.Callback
	interval func() float64
}

// fakeTransport records calls and fires events only when a test asks.
type fakeTransport struct {
	now    float64
	calls  []string
	events []*fakeEvent
	nextID transport.EventID
}

func (f *fakeTransport) Now() float64 { return f.now }

func (f *fakeTransport) Schedule(at float64, fn transport.Callback) transport.EventID {
	f.nextID++
	f.events = append(f.events, &fakeEvent{id: f.nextID, at: at, fn: fn})
	return f.nextID
}

func (f *fakeTransport) ScheduleRepeat(start float64, interval func() float64, fn transport.Callback) transport.EventID {
	f.nextID++
	f.events = append(f.events, &fakeEvent{id: f.nextID, at: start, fn: fn, interval: interval})
	return f.nextID
}

func (f *fakeTransport) Clear(id transport.EventID) {
	f.events = slices.DeleteFunc(f.events, func(e *fakeEvent) bool { return e.id == id })
}

func (f *fakeTransport) Cancel(after float64) {
	f.calls = append(f.calls, "cancel")
	f.events = slices.DeleteFunc(f.events, func(e *fakeEvent) bool { return e.at >= after })
}

func (f *fakeTransport) Start() { f.calls = append(f.calls, "start") }
func (f *fakeTransport) Stop()  { f.calls = append(f.calls, "stop") }

func (f *fakeTransport) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeTransport) repeating(t *testing.T) *fakeEvent {
	t.Helper()
	for _, e := range f.events {
		if e.interval != nil {
			return e
		}
	}
	t.Fatalf("no repeating event scheduled")
	return nil
}

func (f *fakeTransport) oneShots() []*fakeEvent {
	var out []*fakeEvent
	for _, e := range f.events {
		if e.interval == nil {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].at < out[j].at })
	return out
}

// fire runs a repeating event once and advances it.
func (f *fakeTransport) fire(e *fakeEvent) {
	at := e.at
	if e.interval != nil {
		e.at += e.interval()
	}
	e.fn(at)
}

func newSynth(t *testing.T, patch params.Patch) (*Synth, *fakeTransport, *graph.Graph) {
	t.Helper()
	g, err := graph.New(44100, graph.NewTonalVoice())
	if err != nil {
		t.Fatalf("graph.New: %v", err)
	}
	p := params.Default()
	patch.Apply(&p)
	ft := &fakeTransport{now: 1}
	s := New(g, ft, p, WithRand(rand.New(rand.NewPCG(3, 4))))
	return s, ft, g
}

func tonal(t *testing.T, g *graph.Graph) *graph.TonalVoice {
	t.Helper()
	v, ok := g.Voice().(*graph.TonalVoice)
	if !ok {
		t.Fatalf("voice is %T, want *graph.TonalVoice", g.Voice())
	}
	return v
}

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func sweep(start, end float64) curve.Curve {
	return curve.Sweep(start, end, 0.5)
}

func TestPlayOneShotNamedNote(t *testing.T) {
	s, ft, g := newSynth(t, params.Patch{})
	v := tonal(t, g)

	if err := s.Play(Name("C4")); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if s.State() != PlayingOneShot || !s.IsPlaying() {
		t.Fatalf("state = %v", s.State())
	}
	on, off, ok := v.Gate()
	if !ok || on != ft.now || !near(off-on, 0.3, 1e-12) {
		t.Fatalf("gate = %v,%v,%v want attack-release of 0.3s at %v", on, off, ok, ft.now)
	}
	if f := v.Frequency.Value(); !near(f, 261.63, 261.63*0.005) {
		t.Fatalf("frequency = %v, want about 261.63", f)
	}
}

func TestPlayWithoutNoteUsesFrequency(t *testing.T) {
	s, _, g := newSynth(t, params.Patch{Frequency: params.Float(1234)})
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if f := tonal(t, g).Frequency.Value(); f != 1234 {
		t.Fatalf("frequency = %v, want 1234", f)
	}
	if err := s.Play(Hz(330)); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if f := tonal(t, g).Frequency.Value(); f != 330 {
		t.Fatalf("frequency = %v, want 330", f)
	}
}

func TestPlayInvalidNote(t *testing.T) {
	s, ft, _ := newSynth(t, params.Patch{})
	err := s.Play(Name("H9"))
	if !errors.Is(err, params.ErrInvalidNote) {
		t.Fatalf("err = %v, want ErrInvalidNote", err)
	}
	if s.State() != Idle || len(ft.calls) != 0 {
		t.Fatalf("failed play changed state: %v calls=%v", s.State(), ft.calls)
	}
}

func TestPreviewHoldAndRelease(t *testing.T) {
	s, _, g := newSynth(t, params.Patch{Frequency: params.Float(777)})
	v := tonal(t, g)
	if err := s.StartPreview(Note{}); err != nil {
		t.Fatalf("StartPreview: %v", err)
	}
	if s.State() != PreviewHeld || s.IsPlaying() {
		t.Fatalf("state = %v", s.State())
	}
	_, off, _ := v.Gate()
	if !math.IsInf(off, 1) || v.Frequency.Value() != 777 {
		t.Fatalf("preview should hold 777 Hz, off=%v freq=%v", off, v.Frequency.Value())
	}
	s.StopPreview()
	_, off, _ = v.Gate()
	if math.IsInf(off, 1) || s.State() != Idle {
		t.Fatalf("StopPreview did not release: off=%v state=%v", off, s.State())
	}
}

func TestStopBeforePlay(t *testing.T) {
	s, ft, _ := newSynth(t, params.Patch{})
	s.Stop()
	if ft.count("cancel") != 1 || ft.count("stop") != 1 {
		t.Fatalf("calls = %v, want one cancel and one stop", ft.calls)
	}
	if ft.calls[0] != "cancel" || ft.calls[len(ft.calls)-1] != "stop" {
		t.Fatalf("cancel must precede stop: %v", ft.calls)
	}
	if s.State() != Idle {
		t.Fatalf("state = %v", s.State())
	}
}

func TestUpdateParamsClampsFrequency(t *testing.T) {
	s, _, g := newSynth(t, params.Patch{})
	v := tonal(t, g)
	s.UpdateParams(params.Patch{Frequency: params.Float(-1)})
	if got := v.Frequency.Value(); got != 20 {
		t.Fatalf("frequency = %v, want 20", got)
	}
	s.UpdateParams(params.Patch{Frequency: params.Float(99999)})
	if got := v.Frequency.Value(); got != 2000 {
		t.Fatalf("frequency = %v, want 2000", got)
	}
}

func TestPlaySchedulesCurves(t *testing.T) {
	s, ft, g := newSynth(t, params.Patch{
		Duration: params.Float(500),
		Curves: map[params.CurveTarget]curve.Curve{
			params.CurveFrequency: {
				P0: curve.Point{X: 0, Y: 440},
				P1: curve.Point{X: 0.3, Y: 300},
				P2: curve.Point{X: 0.7, Y: 200},
				P3: curve.Point{X: 1, Y: 120},
			},
			params.CurveLPFCutoff: sweep(8000, 500),
		},
	})
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	values, start, dur, ok := tonal(t, g).Frequency.Curve()
	if !ok {
		t.Fatalf("frequency curve not scheduled")
	}
	if len(values) != 128 || start != ft.now || dur != 0.5 {
		t.Fatalf("curve len=%d start=%v dur=%v", len(values), start, dur)
	}
	if values[0] != 440 || values[127] != 120 {
		t.Fatalf("curve endpoints %v..%v", values[0], values[127])
	}
	if !g.Lowpass.Cutoff.Scheduled() {
		t.Fatalf("lpf curve not scheduled")
	}
	if g.Highpass.Cutoff.Scheduled() {
		t.Fatalf("hpf has no curve but was scheduled")
	}

	// Replaying replaces the ramp instead of stacking a second one.
	ft.now = 2
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if _, start, _, _ := tonal(t, g).Frequency.Curve(); start != 2 {
		t.Fatalf("second play ramp starts at %v", start)
	}
}

func TestNoCurvesWithoutDefinitions(t *testing.T) {
	s, _, g := newSynth(t, params.Patch{})
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if tonal(t, g).Frequency.Scheduled() || g.Lowpass.Cutoff.Scheduled() || g.Highpass.Cutoff.Scheduled() {
		t.Fatalf("curves scheduled without definitions")
	}
}

func TestNoCurvesForNoise(t *testing.T) {
	s, _, g := newSynth(t, params.Patch{
		Waveform: params.WaveformOf(params.Noise),
		Curves: map[params.CurveTarget]curve.Curve{
			params.CurveFrequency: sweep(800, 200),
			params.CurveLPFCutoff: sweep(8000, 500),
		},
	})
	if _, ok := g.Voice().(*graph.NoiseVoice); !ok {
		t.Fatalf("voice is %T, want noise", g.Voice())
	}
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if g.Lowpass.Cutoff.Scheduled() {
		t.Fatalf("noise voice scheduled a filter curve")
	}
}

func TestArpeggioSequence(t *testing.T) {
	s, ft, g := newSynth(t, params.Patch{
		ArpSpeed:      params.Float(8),
		ArpSteps:      []float64{7, 0, 4},
		RetriggerRate: params.Float(5),
		Curves: map[params.CurveTarget]curve.Curve{
			params.CurveFrequency: sweep(1000, 300),
		},
	})
	if got := s.Params().RetriggerRate; got != 0 {
		t.Fatalf("arp should force retrigger off, got %v", got)
	}
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if s.State() != PlayingArpeggio {
		t.Fatalf("state = %v", s.State())
	}
	v := tonal(t, g)
	if v.Frequency.Scheduled() {
		t.Fatalf("arpeggio must not schedule curves")
	}
	if ft.count("start") != 1 {
		t.Fatalf("clock not started: %v", ft.calls)
	}

	rep := ft.repeating(t)
	want := []float64{440, 554.37, 659.26, 440}
	for i, w := range want {
		at := rep.at
		ft.fire(rep)
		if f := v.Frequency.Value(); !near(f, w, w*0.005) {
			t.Fatalf("step %d frequency = %v, want %v", i, f, w)
		}
		on, off, _ := v.Gate()
		if on != at || !near(off-on, 1.0/16, 1e-12) {
			t.Fatalf("step %d gate = %v..%v", i, on, off)
		}
	}

	stops := ft.oneShots()
	if len(stops) != 1 || !near(stops[0].at, ft.now+0.3, 1e-12) {
		t.Fatalf("auto-stop events = %+v", stops)
	}
	stops[0].fn(stops[0].at)
	if s.State() != Idle {
		t.Fatalf("auto-stop left state %v", s.State())
	}
	if ft.count("stop") != 1 || len(ft.events) != 0 {
		t.Fatalf("auto-stop calls=%v pending=%d", ft.calls, len(ft.events))
	}
}

func TestArpeggioBlocksRetrigger(t *testing.T) {
	s, _, _ := newSynth(t, params.Patch{ArpSpeed: params.Float(6)})
	s.UpdateParams(params.Patch{RetriggerRate: params.Float(10)})
	if got := s.Params().RetriggerRate; got != 0 {
		t.Fatalf("retrigger enabled while arp active: %v", got)
	}
	s.UpdateParams(params.Patch{ArpSpeed: params.Float(0), RetriggerRate: params.Float(10)})
	if p := s.Params(); p.RetriggerRate != 10 || p.ArpSpeed != 0 {
		t.Fatalf("retrigger should apply once arp is off: %+v", p)
	}
	s.UpdateParams(params.Patch{ArpSpeed: params.Float(4)})
	if got := s.Params().RetriggerRate; got != 0 {
		t.Fatalf("enabling arp must zero retrigger, got %v", got)
	}
}

func TestRetriggerFollowsFrequency(t *testing.T) {
	s, ft, g := newSynth(t, params.Patch{RetriggerRate: params.Float(8)})
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if s.State() != PlayingRetrigger || !s.IsSequenced() {
		t.Fatalf("state = %v", s.State())
	}
	v := tonal(t, g)
	rep := ft.repeating(t)
	ft.fire(rep)
	if f := v.Frequency.Value(); f != 440 {
		t.Fatalf("first trigger = %v, want 440", f)
	}
	s.UpdateParams(params.Patch{Frequency: params.Float(880)})
	ft.fire(rep)
	if f := v.Frequency.Value(); f != 880 {
		t.Fatalf("trigger after update = %v, want 880", f)
	}
	if !near(rep.at-ft.now, 2.0/8, 1e-12) {
		t.Fatalf("retrigger interval wrong, next at %v", rep.at)
	}
}

func TestDisablingModeStopsSequence(t *testing.T) {
	s, ft, _ := newSynth(t, params.Patch{RetriggerRate: params.Float(8)})
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	s.UpdateParams(params.Patch{RetriggerRate: params.Float(0)})
	if s.State() != Idle || len(ft.events) != 0 {
		t.Fatalf("state=%v pending=%d", s.State(), len(ft.events))
	}
}

func TestStopCancelsAutomation(t *testing.T) {
	s, _, g := newSynth(t, params.Patch{
		Curves: map[params.CurveTarget]curve.Curve{
			params.CurveFrequency: sweep(800, 200),
			params.CurveLPFCutoff: sweep(8000, 500),
			params.CurveHPFCutoff: sweep(20, 400),
		},
	})
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	g.Vibrato.Depth.SetValueCurve([]float64{0, 1}, 0, 1)
	g.Vibrato.Rate.SetValueCurve([]float64{1, 2}, 0, 1)

	s.Stop()
	v := tonal(t, g)
	for _, p := range []*graph.Param{v.Frequency, g.Vibrato.Depth, g.Vibrato.Rate, g.Lowpass.Cutoff, g.Highpass.Cutoff} {
		if p.Scheduled() {
			t.Fatalf("%s still has scheduled values after Stop", p.Name())
		}
	}
	if _, off, _ := v.Gate(); math.IsInf(off, 1) {
		t.Fatalf("Stop did not release the voice")
	}
}

func TestRemovingCurveRestoresStaticValue(t *testing.T) {
	s, _, g := newSynth(t, params.Patch{
		Frequency: params.Float(900),
		LPFCutoff: params.Float(3200),
		Curves: map[params.CurveTarget]curve.Curve{
			params.CurveFrequency: sweep(900, 200),
			params.CurveLPFCutoff: sweep(3200, 300),
		},
	})
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	s.Stop()
	s.UpdateParams(params.Patch{Curves: map[params.CurveTarget]curve.Curve{}})
	v := tonal(t, g)
	if v.Frequency.Scheduled() || v.Frequency.Value() != 900 {
		t.Fatalf("frequency not restored: scheduled=%v value=%v", v.Frequency.Scheduled(), v.Frequency.Value())
	}
	if g.Lowpass.Cutoff.Scheduled() || g.Lowpass.Cutoff.Value() != 3200 {
		t.Fatalf("lpf not restored")
	}
}

func TestRemovingCurveDuringPlayback(t *testing.T) {
	s, _, g := newSynth(t, params.Patch{
		LPFCutoff: params.Float(3200),
		Curves: map[params.CurveTarget]curve.Curve{
			params.CurveLPFCutoff: sweep(3200, 300),
		},
	})
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !g.Lowpass.Cutoff.Scheduled() {
		t.Fatalf("lpf curve not scheduled")
	}
	s.UpdateParams(params.Patch{Curves: map[params.CurveTarget]curve.Curve{}})
	if g.Lowpass.Cutoff.Scheduled() {
		t.Fatalf("lpf curve survived removal")
	}
}

func TestPlayReleasesHeldPreview(t *testing.T) {
	s, ft, g := newSynth(t, params.Patch{Frequency: params.Float(660)})
	v := tonal(t, g)
	if err := s.StartPreview(Note{}); err != nil {
		t.Fatalf("StartPreview: %v", err)
	}
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	on, off, _ := v.Gate()
	if s.State() != PlayingOneShot || on != ft.now || !near(off-on, 0.3, 1e-12) {
		t.Fatalf("state=%v gate=%v..%v", s.State(), on, off)
	}
	if v.Frequency.Value() != 660 {
		t.Fatalf("frequency = %v", v.Frequency.Value())
	}
}

func TestWaveformSwap(t *testing.T) {
	s, _, g := newSynth(t, params.Patch{})
	first := tonal(t, g)
	if err := s.StartPreview(Note{}); err != nil {
		t.Fatalf("StartPreview: %v", err)
	}

	s.UpdateParams(params.Patch{Waveform: params.WaveformOf(params.Noise)})
	if !first.Disposed() {
		t.Fatalf("old voice not disposed")
	}
	noise, ok := g.Voice().(*graph.NoiseVoice)
	if !ok {
		t.Fatalf("voice is %T", g.Voice())
	}
	if _, _, held := noise.Gate(); !held {
		t.Fatalf("held preview not carried to the new voice")
	}
	if got := len(g.Edges()); got != len(graph.Topology) {
		t.Fatalf("edges after swap = %d", got)
	}
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play after swap: %v", err)
	}
	if noise.Disposed() {
		t.Fatalf("new voice disposed")
	}

	s.UpdateParams(params.Patch{Waveform: params.WaveformOf(params.Sine)})
	if !noise.Disposed() {
		t.Fatalf("noise voice not disposed")
	}
	if v := tonal(t, g); v.Tone().Shape != graph.ToneFor(params.Sine, 0).Shape {
		t.Fatalf("tone = %+v", v.Tone())
	}

	// Every waveform change installs a fresh voice, tonal to tonal included.
	sine := tonal(t, g)
	s.UpdateParams(params.Patch{Waveform: params.WaveformOf(params.Square), DutyCycle: params.Float(0.25)})
	if !sine.Disposed() {
		t.Fatalf("sine voice not disposed")
	}
	square := tonal(t, g)
	if square == sine || square.Disposed() {
		t.Fatalf("square voice not installed")
	}
	if got, want := square.Tone(), graph.ToneFor(params.Square, 0.25); got != want {
		t.Fatalf("tone = %+v, want %+v", got, want)
	}
	if got := len(g.Edges()); got != len(graph.Topology) {
		t.Fatalf("edges after tonal swap = %d", got)
	}
}

func TestPreviewDropsOneShotRamps(t *testing.T) {
	s, _, g := newSynth(t, params.Patch{
		LPFCutoff: params.Float(3200),
		HPFCutoff: params.Float(150),
		Curves: map[params.CurveTarget]curve.Curve{
			params.CurveLPFCutoff: sweep(8000, 500),
			params.CurveHPFCutoff: sweep(20, 400),
		},
	})
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !g.Lowpass.Cutoff.Scheduled() || !g.Highpass.Cutoff.Scheduled() {
		t.Fatalf("filter curves not scheduled")
	}
	if err := s.StartPreview(Note{}); err != nil {
		t.Fatalf("StartPreview: %v", err)
	}
	if g.Lowpass.Cutoff.Scheduled() || g.Highpass.Cutoff.Scheduled() {
		t.Fatalf("held preview kept the one-shot filter ramps")
	}
	if got := g.Lowpass.Cutoff.ValueAt(10); got != 3200 {
		t.Fatalf("lpf cutoff = %v, want 3200", got)
	}
	if got := g.Highpass.Cutoff.ValueAt(10); got != 150 {
		t.Fatalf("hpf cutoff = %v, want 150", got)
	}
	if s.State() != PreviewHeld {
		t.Fatalf("state = %v", s.State())
	}
}

func TestArpOrder(t *testing.T) {
	tests := []struct {
		pattern params.ArpPattern
		want    []float64
	}{
		{params.ArpUp, []float64{0, 4, 7}},
		{params.ArpDown, []float64{7, 4, 0}},
	}
	for _, tt := range tests {
		got := orderSteps([]float64{7, 0, 4}, tt.pattern, rand.New(rand.NewPCG(1, 1)))
		if !slices.Equal(got, tt.want) {
			t.Fatalf("%s: got %v, want %v", tt.pattern, got, tt.want)
		}
	}
}

func TestRandomArpOrderIsCached(t *testing.T) {
	s, _, _ := newSynth(t, params.Patch{
		ArpPattern: params.PatternOf(params.ArpRandom),
		ArpSteps:   []float64{0, 2, 4, 5, 7, 9, 11, 12},
	})
	first := s.ArpOrder()
	sorted := slices.Clone(first)
	slices.Sort(sorted)
	if !slices.Equal(sorted, []float64{0, 2, 4, 5, 7, 9, 11, 12}) {
		t.Fatalf("random order is not a permutation: %v", first)
	}
	s.UpdateParams(params.Patch{LPFCutoff: params.Float(5000)})
	if got := s.ArpOrder(); !slices.Equal(got, first) {
		t.Fatalf("unrelated update reshuffled: %v -> %v", first, got)
	}
}

func TestDispose(t *testing.T) {
	s, _, g := newSynth(t, params.Patch{})
	s.Dispose()
	s.Dispose()
	s.Stop()
	if !g.Disposed() {
		t.Fatalf("graph not disposed")
	}
	if err := s.Play(Note{}); !errors.Is(err, ErrDisposed) {
		t.Fatalf("Play after Dispose: %v", err)
	}
	if err := s.StartPreview(Note{}); !errors.Is(err, ErrDisposed) {
		t.Fatalf("StartPreview after Dispose: %v", err)
	}
}

func TestWaveformData(t *testing.T) {
	s, _, _ := newSynth(t, params.Patch{})
	if got := len(s.WaveformData()); got != graph.AnalyzerSize {
		t.Fatalf("len = %d", got)
	}
}

func TestOneShotReturnsToIdle(t *testing.T) {
	s, ft, _ := newSynth(t, params.Patch{})
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	done := ft.oneShots()
	if len(done) != 1 {
		t.Fatalf("expected one completion event, got %d", len(done))
	}
	done[0].fn(done[0].at)
	if s.State() != Idle {
		t.Fatalf("state = %v", s.State())
	}
}

func TestWithRealClock(t *testing.T) {
	g, err := graph.New(44100, graph.NewTonalVoice())
	if err != nil {
		t.Fatalf("graph.New: %v", err)
	}
	clk := transport.NewClock(g)
	p := params.Default()
	p.RetriggerRate = 20
	p.Duration = 200
	s := New(g, clk, p)
	if err := s.Play(Note{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	out := make([]float32, graph.BlockSize)
	for i := 0; i < 100 && s.State() != Idle; i++ {
		g.Process(out)
		clk.Tick()
	}
	if s.State() != Idle {
		t.Fatalf("sequence did not stop itself, state %v", s.State())
	}
	if clk.State() != transport.Stopped || clk.Pending() != 0 {
		t.Fatalf("clock state=%v pending=%d", clk.State(), clk.Pending())
	}
}
