// Package preview decides how a control edit is auditioned: a held note while
// a control is dragged, or a short one-shot after an idle edit.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwbudde/algo-sfx/synth"
	"github.com/cwbudde/algo-sfx/transport"
)

const (
	// HeldReleaseDelay is how long a held preview outlives the last drag.
	HeldReleaseDelay = 120 * time.Millisecond
	// DebounceDelay is the quiet time before an idle edit is auditioned.
	DebounceDelay = 100 * time.Millisecond
)

var retriggerParams = map[string]bool{
	"duration":      true,
	"arpSpeed":      true,
	"retriggerRate": true,
	"waveform":      true,
}

// RequiresRetrigger reports whether editing the named parameter only becomes
// audible after playback restarts.
func RequiresRetrigger(name string) bool {
	return retriggerParams[name]
}

// Synth is the part of *synth.Synth the coordinator drives.
type Synth interface {
	Play(note synth.Note) error
	StartPreview(note synth.Note) error
	StopPreview()
}

// Deps are the collaborators of a Coordinator. Synth, IsPlaying and
// IsSequenced are required. InitAudio activates the audio output and is
// awaited before any preview starts. PreviewOneShot plays the idle preview
// and defaults to Synth.Play.
type Deps struct {
	Synth          Synth
	InitAudio      func(ctx context.Context) error
	IsPlaying      func() bool
	IsSequenced    func() bool
	PreviewOneShot func(s Synth) error
	Timers         transport.Timers
	Logger         *slog.Logger
}

// Coordinator is safe for concurrent use; timer callbacks run on their own
// goroutines.
type Coordinator struct {
	deps Deps

	mu          sync.Mutex
	drags       int
	held        bool
	debounce    transport.Timer
	release     transport.Timer
	debounceGen uint64
	releaseGen  uint64
}

// New creates a Coordinator, filling optional dependencies with defaults.
func New(deps Deps) *Coordinator {
	if deps.InitAudio == nil {
		deps.InitAudio = func(context.Context) error { return nil }
	}
	if deps.PreviewOneShot == nil {
		deps.PreviewOneShot = func(s Synth) error { return s.Play(synth.Note{}) }
	}
	if deps.Timers == nil {
		deps.Timers = transport.WallTimers{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Coordinator{deps: deps}
}

// DragStart registers the start of a control drag. The first drag outside
// sequenced mode starts a held preview. In sequenced mode no held note is
// started; the sequencer is auditioned through Play instead.
func (c *Coordinator) DragStart(ctx context.Context) error {
	if c.deps.IsPlaying() {
		return nil
	}
	c.mu.Lock()
	c.drags++
	c.stopRelease()
	c.stopDebounce()
	if c.deps.IsSequenced() || c.held || c.drags != 1 {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.deps.InitAudio(ctx); err != nil {
		return fmt.Errorf("init audio: %w", err)
	}
	if c.deps.IsPlaying() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held || c.drags == 0 || c.deps.IsSequenced() {
		return nil
	}
	if err := c.deps.Synth.StartPreview(synth.Note{}); err != nil {
		return fmt.Errorf("start preview: %w", err)
	}
	c.held = true
	return nil
}

// DragEnd registers the end of a drag. When the last drag ends the held
// preview is released after HeldReleaseDelay.
func (c *Coordinator) DragEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drags > 0 {
		c.drags--
	}
	if c.drags != 0 || !c.held {
		return
	}
	c.stopRelease()
	gen := c.releaseGen
	c.release = c.deps.Timers.AfterFunc(HeldReleaseDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.releaseGen != gen {
			return
		}
		c.release = nil
		c.stopHeld()
	})
}

// ScheduleIdlePreview plays a one-shot preview after DebounceDelay unless
// another edit, a drag or playback intervenes.
func (c *Coordinator) ScheduleIdlePreview() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopDebounce()
	gen := c.debounceGen
	c.debounce = c.deps.Timers.AfterFunc(DebounceDelay, func() {
		c.idlePreview(gen)
	})
}

func (c *Coordinator) idlePreview(gen uint64) {
	c.mu.Lock()
	if c.debounceGen != gen {
		c.mu.Unlock()
		return
	}
	c.debounce = nil
	busy := c.held
	c.mu.Unlock()
	if busy || c.deps.IsPlaying() {
		return
	}

	if err := c.deps.InitAudio(context.Background()); err != nil {
		c.deps.Logger.Warn("idle preview: init audio", "err", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held || c.debounceGen != gen || c.deps.IsPlaying() {
		return
	}
	if err := c.deps.PreviewOneShot(c.deps.Synth); err != nil {
		c.deps.Logger.Warn("idle preview", "err", err)
	}
}

// SyncMode stops a held preview once the parameters select a sequenced mode.
func (c *Coordinator) SyncMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deps.IsSequenced() {
		c.stopHeld()
	}
}

// StopAll cancels both timers, forgets active drags and stops a held
// preview. The stop has been issued when it returns.
func (c *Coordinator) StopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopDebounce()
	c.stopRelease()
	c.drags = 0
	c.stopHeld()
}

// ClearPreviewDebounce cancels a pending idle preview.
func (c *Coordinator) ClearPreviewDebounce() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopDebounce()
}

// Held reports whether a held preview is sounding.
func (c *Coordinator) Held() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held
}

// ActiveDrags returns the number of drags in progress.
func (c *Coordinator) ActiveDrags() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drags
}

// stopHeld releases the held preview. Callers hold c.mu.
func (c *Coordinator) stopHeld() {
	c.stopRelease()
	if !c.held {
		return
	}
	c.deps.Synth.StopPreview()
	c.held = false
}

func (c *Coordinator) stopDebounce() {
	c.debounceGen++
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
}

func (c *Coordinator) stopRelease() {
	c.releaseGen++
	if c.release != nil {
		c.release.Stop()
		c.release = nil
	}
}
