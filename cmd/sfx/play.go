package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-sfx/graph"
	"github.com/cwbudde/algo-sfx/params"
	"github.com/cwbudde/algo-sfx/playback"
	"github.com/cwbudde/algo-sfx/preview"
	"github.com/cwbudde/algo-sfx/synth"
	"github.com/cwbudde/algo-sfx/transport"
)

var (
	playRate      int
	playTick      time.Duration
	playHold      time.Duration
	playDrag      string
	playDragTime  time.Duration
	playDragSteps int
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the sound on the default audio device",
	Long: `Play the sound through the live graph. By default the sound plays once
the way the play button does. --hold sustains a preview note instead, and
--drag sweeps one parameter while auditioning it like a dragged slider.

Examples:
  sfx play --category jump
  sfx play --preset laser.json --hold 2s
  sfx play --drag lpfCutoff=200:8000 --drag-time 3s`,
	RunE: runPlay,
}

func initPlay() {
	f := playCmd.Flags()
	f.IntVar(&playRate, "sample-rate", 48000, "Device sample rate in Hz")
	f.DurationVar(&playTick, "tick", 2*time.Millisecond, "Scheduler poll period")
	f.DurationVar(&playHold, "hold", 0, "Hold a preview note for this long instead of playing once")
	f.StringVar(&playDrag, "drag", "", "Sweep a parameter while previewing, as key=from:to")
	f.DurationVar(&playDragTime, "drag-time", 2*time.Second, "Length of the --drag sweep")
	f.IntVar(&playDragSteps, "drag-steps", 40, "Number of edits in the --drag sweep")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	rng := newRand()
	p, err := loadSound(rng)
	if err != nil {
		return err
	}

	g, err := graph.New(float64(playRate), graph.NewVoice(p.Waveform, voiceRand(rng)))
	if err != nil {
		return err
	}
	clk := transport.NewClock(g)
	s := synth.New(g, clk, p, synth.WithLogger(log), synth.WithRand(rng))
	defer s.Dispose()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		devMu sync.Mutex
		dev   *playback.Device
	)
	initAudio := func(context.Context) error {
		devMu.Lock()
		defer devMu.Unlock()
		if dev != nil {
			return nil
		}
		d, err := playback.Open(playRate, g)
		if err != nil {
			return err
		}
		d.Start()
		dev = d
		return nil
	}
	defer func() {
		devMu.Lock()
		defer devMu.Unlock()
		if dev != nil {
			_ = dev.Close()
		}
	}()

	go func() { _ = clk.Run(ctx, playTick) }()

	fmt.Printf("Playing %s\n", describe(p))
	switch {
	case playDrag != "":
		err = runDrag(ctx, s, initAudio, log)
	case playHold > 0:
		err = runHold(ctx, s, initAudio)
	default:
		if err = initAudio(ctx); err == nil {
			err = s.Play(synth.Note{})
		}
	}
	if err != nil {
		return err
	}
	waitIdle(ctx, s)
	sleep(ctx, time.Duration(s.Params().Release*float64(time.Second))+100*time.Millisecond)
	return nil
}

func runHold(ctx context.Context, s *synth.Synth, initAudio func(context.Context) error) error {
	if err := initAudio(ctx); err != nil {
		return err
	}
	if err := s.StartPreview(synth.Note{}); err != nil {
		return err
	}
	sleep(ctx, playHold)
	s.StopPreview()
	return nil
}

func runDrag(ctx context.Context, s *synth.Synth, initAudio func(context.Context) error, log *slog.Logger) error {
	key, from, to, err := parseDrag(playDrag)
	if err != nil {
		return err
	}
	steps := max(playDragSteps, 1)

	c := preview.New(preview.Deps{
		Synth:       s,
		InitAudio:   initAudio,
		IsPlaying:   s.IsPlaying,
		IsSequenced: s.IsSequenced,
		Logger:      log,
	})
	defer c.StopAll()

	if err := c.DragStart(ctx); err != nil {
		return err
	}
	if s.IsSequenced() {
		if err := initAudio(ctx); err != nil {
			return err
		}
		if err := s.Play(synth.Note{}); err != nil {
			return err
		}
	}
	for i := 0; i <= steps; i++ {
		var patch params.Patch
		patch.Set(key, from+(to-from)*float64(i)/float64(steps))
		s.UpdateParams(patch)
		c.SyncMode()
		if !sleep(ctx, playDragTime/time.Duration(steps)) {
			return nil
		}
	}
	c.DragEnd()
	if preview.RequiresRetrigger(string(key)) {
		c.ScheduleIdlePreview()
	}
	sleep(ctx, preview.HeldReleaseDelay+preview.DebounceDelay+50*time.Millisecond)
	return nil
}

func parseDrag(raw string) (params.Key, float64, float64, error) {
	name, span, ok := strings.Cut(raw, "=")
	lo, hi, ok2 := strings.Cut(span, ":")
	if !ok || !ok2 {
		return "", 0, 0, fmt.Errorf("invalid --drag %q (want key=from:to)", raw)
	}
	key := params.Key(strings.TrimSpace(name))
	if _, known := params.Table[key]; !known {
		return "", 0, 0, fmt.Errorf("unknown parameter %q", name)
	}
	from, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid --drag start: %w", err)
	}
	to, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid --drag end: %w", err)
	}
	return key, from, to, nil
}

func waitIdle(ctx context.Context, s *synth.Synth) {
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for s.IsPlaying() {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-t.C:
		}
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
