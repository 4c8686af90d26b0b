package preview

import (
	"context"
	"errors"
	"testing"

	"github.com/cwbudde/algo-sfx/synth"
	"github.com/cwbudde/algo-sfx/transport"
)

type synthMock struct {
	starts, stops, plays int
	startErr             error
}

func (m *synthMock) Play(synth.Note) error         { m.plays++; return nil }
func (m *synthMock) StartPreview(synth.Note) error { m.starts++; return m.startErr }
func (m *synthMock) StopPreview()                  { m.stops++ }

type harness struct {
	synth     *synthMock
	timers    *transport.ManualTimers
	playing   bool
	sequenced bool
	inits     int
	oneShots  int
	c         *Coordinator
}

func newHarness() *harness {
	h := &harness{synth: &synthMock{}, timers: &transport.ManualTimers{}}
	h.c = New(Deps{
		Synth:       h.synth,
		InitAudio:   func(context.Context) error { h.inits++; return nil },
		IsPlaying:   func() bool { return h.playing },
		IsSequenced: func() bool { return h.sequenced },
		PreviewOneShot: func(s Synth) error {
			h.oneShots++
			return nil
		},
		Timers: h.timers,
	})
	return h
}

func TestDragStartsHeldPreview(t *testing.T) {
	h := newHarness()
	if err := h.c.DragStart(context.Background()); err != nil {
		t.Fatalf("DragStart: %v", err)
	}
	if h.inits != 1 || h.synth.starts != 1 || !h.c.Held() {
		t.Fatalf("inits=%d starts=%d held=%v", h.inits, h.synth.starts, h.c.Held())
	}
}

func TestOverlappingDrags(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_ = h.c.DragStart(ctx)
	_ = h.c.DragStart(ctx)
	if h.synth.starts != 1 || h.c.ActiveDrags() != 2 {
		t.Fatalf("starts=%d drags=%d", h.synth.starts, h.c.ActiveDrags())
	}
	h.c.DragEnd()
	h.timers.Advance(HeldReleaseDelay * 2)
	if h.synth.stops != 0 {
		t.Fatalf("preview stopped while a drag is still active")
	}
	h.c.DragEnd()
	h.timers.Advance(HeldReleaseDelay - 1)
	if h.synth.stops != 0 {
		t.Fatalf("preview stopped before the release delay")
	}
	h.timers.Advance(1)
	if h.synth.stops != 1 || h.c.Held() {
		t.Fatalf("stops=%d held=%v", h.synth.stops, h.c.Held())
	}
}

func TestQuickRedragKeepsPreview(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_ = h.c.DragStart(ctx)
	h.c.DragEnd()
	h.timers.Advance(HeldReleaseDelay / 2)
	_ = h.c.DragStart(ctx)
	h.timers.Advance(HeldReleaseDelay * 2)
	if h.synth.stops != 0 || h.synth.starts != 1 {
		t.Fatalf("stops=%d starts=%d", h.synth.stops, h.synth.starts)
	}
}

func TestSequencedModeSkipsHeldPreview(t *testing.T) {
	h := newHarness()
	h.sequenced = true
	if err := h.c.DragStart(context.Background()); err != nil {
		t.Fatalf("DragStart: %v", err)
	}
	if h.synth.starts != 0 || h.c.Held() {
		t.Fatalf("held preview started in sequenced mode")
	}
}

func TestSyncModeStopsHeldPreview(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_ = h.c.DragStart(ctx)
	h.sequenced = true
	h.c.SyncMode()
	if h.synth.stops != 1 || h.c.Held() {
		t.Fatalf("stops=%d held=%v", h.synth.stops, h.c.Held())
	}
	h.c.DragEnd()
	_ = h.c.DragStart(ctx)
	if h.synth.starts != 1 {
		t.Fatalf("held preview restarted in sequenced mode")
	}
}

func TestDragWhilePlaying(t *testing.T) {
	h := newHarness()
	h.playing = true
	_ = h.c.DragStart(context.Background())
	if h.synth.starts != 0 || h.c.ActiveDrags() != 0 {
		t.Fatalf("drag registered while playing")
	}
}

func TestDragStartError(t *testing.T) {
	h := newHarness()
	h.synth.startErr = errors.New("boom")
	if err := h.c.DragStart(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if h.c.Held() {
		t.Fatalf("failed start marked preview held")
	}
}

func TestIdlePreviewDebounced(t *testing.T) {
	h := newHarness()
	h.c.ScheduleIdlePreview()
	h.timers.Advance(DebounceDelay / 2)
	h.c.ScheduleIdlePreview()
	h.timers.Advance(DebounceDelay / 2)
	if h.oneShots != 0 {
		t.Fatalf("preview fired before debounce elapsed")
	}
	h.timers.Advance(DebounceDelay)
	if h.oneShots != 1 {
		t.Fatalf("oneShots = %d, want 1", h.oneShots)
	}
}

func TestIdlePreviewSkippedWhenBusy(t *testing.T) {
	h := newHarness()
	h.c.ScheduleIdlePreview()
	h.playing = true
	h.timers.Advance(DebounceDelay)
	if h.oneShots != 0 {
		t.Fatalf("preview fired while playing")
	}

	h.playing = false
	_ = h.c.DragStart(context.Background())
	h.c.ScheduleIdlePreview()
	h.timers.Advance(DebounceDelay)
	if h.oneShots != 0 {
		t.Fatalf("preview fired during a held preview")
	}
}

func TestDragCancelsDebounce(t *testing.T) {
	h := newHarness()
	h.c.ScheduleIdlePreview()
	_ = h.c.DragStart(context.Background())
	h.c.StopAll()
	h.timers.Advance(DebounceDelay * 2)
	if h.oneShots != 0 {
		t.Fatalf("debounced preview survived a drag")
	}
}

func TestStopAll(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_ = h.c.DragStart(ctx)
	_ = h.c.DragStart(ctx)
	h.c.ScheduleIdlePreview()
	h.c.StopAll()
	if h.synth.stops != 1 || h.c.Held() || h.c.ActiveDrags() != 0 {
		t.Fatalf("stops=%d held=%v drags=%d", h.synth.stops, h.c.Held(), h.c.ActiveDrags())
	}
	if h.timers.Active() != 0 {
		t.Fatalf("timers still pending: %d", h.timers.Active())
	}
	h.timers.Advance(DebounceDelay * 10)
	if h.oneShots != 0 || h.synth.stops != 1 {
		t.Fatalf("timers fired after StopAll")
	}
}

func TestDefaultOneShotUsesPlay(t *testing.T) {
	m := &synthMock{}
	timers := &transport.ManualTimers{}
	c := New(Deps{
		Synth:       m,
		IsPlaying:   func() bool { return false },
		IsSequenced: func() bool { return false },
		Timers:      timers,
	})
	c.ScheduleIdlePreview()
	timers.Advance(DebounceDelay)
	if m.plays != 1 {
		t.Fatalf("plays = %d", m.plays)
	}
}

func TestRequiresRetrigger(t *testing.T) {
	for _, name := range []string{"duration", "arpSpeed", "retriggerRate", "waveform"} {
		if !RequiresRetrigger(name) {
			t.Fatalf("%s should require a retrigger", name)
		}
	}
	if RequiresRetrigger("lpfCutoff") {
		t.Fatalf("lpfCutoff should apply live")
	}
}
