package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-sfx/analysis"
	"github.com/cwbudde/algo-sfx/export"
	"github.com/cwbudde/algo-sfx/graph"
	"github.com/cwbudde/algo-sfx/internal/wavio"
	"github.com/cwbudde/algo-sfx/params"
	"github.com/cwbudde/algo-sfx/synth"
	"github.com/cwbudde/algo-sfx/transport"
)

var (
	compareRate int
	compareJSON bool
)

var compareCmd = &cobra.Command{
	Use:   "compare [reference.wav candidate.wav]",
	Short: "Measure the distance between two renders",
	Long: `Without arguments, render the sound once through the live graph and
once through the offline exporter and compare the two. With two WAV files,
compare those instead.

Examples:
  sfx compare --preset laser.json
  sfx compare a.wav b.wav --json`,
	Args: cobra.MatchAll(cobra.MaximumNArgs(2), func(_ *cobra.Command, args []string) error {
		if len(args) == 1 {
			return fmt.Errorf("need both a reference and a candidate file")
		}
		return nil
	}),
	RunE: runCompare,
}

func initCompare() {
	f := compareCmd.Flags()
	f.IntVar(&compareRate, "sample-rate", export.SampleRate, "Analysis sample rate in Hz")
	f.BoolVar(&compareJSON, "json", false, "Print metrics as JSON")
}

func runCompare(cmd *cobra.Command, args []string) error {
	var ref, cand []float64
	if len(args) == 2 {
		var err error
		if ref, err = readAt(args[0], compareRate); err != nil {
			return fmt.Errorf("failed to read reference: %w", err)
		}
		if cand, err = readAt(args[1], compareRate); err != nil {
			return fmt.Errorf("failed to read candidate: %w", err)
		}
	} else {
		rng := newRand()
		p, err := loadSound(rng)
		if err != nil {
			return err
		}
		noiseSeed := rng.Uint64()
		seconds := p.DurationSeconds()
		buf, err := export.Render(cmd.Context(), p, seconds,
			export.WithSampleRate(compareRate),
			export.WithRand(rand.New(rand.NewPCG(noiseSeed, 1))))
		if err != nil {
			return err
		}
		ref = buf.Samples()
		cand, err = renderLive(cmd.Context(), p, compareRate, seconds, noiseSeed)
		if err != nil {
			return err
		}
	}

	m := analysis.Compare(ref, cand, compareRate)
	if compareJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}
	fmt.Printf("Reference frames: %d\n", m.ReferenceFrames)
	fmt.Printf("Candidate frames: %d\n", m.CandidateFrames)
	fmt.Printf("Aligned frames:   %d\n", m.AlignedFrames)
	fmt.Printf("Lag:              %d samples (%.3f ms)\n", m.LagSamples, 1000.0*float64(m.LagSamples)/float64(m.SampleRate))
	fmt.Printf("Time RMSE:        %.4f\n", m.TimeRMSE)
	fmt.Printf("Envelope RMSE:    %.2f dB\n", m.EnvelopeRMSEDB)
	fmt.Printf("Spectral RMSE:    %.2f dB\n", m.SpectralRMSEDB)
	fmt.Printf("Peak difference:  %.2f dB\n", m.PeakDiffDB)
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", m.Score)
	fmt.Printf("Similarity:       %.2f%%\n", m.Similarity*100.0)
	return nil
}

func readAt(path string, rate int) ([]float64, error) {
	data, sr, err := wavio.ReadMonoFile(path)
	if err != nil {
		return nil, err
	}
	return wavio.Resample(data, sr, rate)
}

// renderLive plays p once through the live graph without an audio device,
// ticking the clock between blocks. The voice draws noise from the same
// stream export.Render uses for noiseSeed.
func renderLive(ctx context.Context, p params.Params, rate int, seconds float64, noiseSeed uint64) ([]float64, error) {
	g, err := graph.New(float64(rate), graph.NewVoice(p.Waveform, rand.New(rand.NewPCG(noiseSeed, 1))))
	if err != nil {
		return nil, err
	}
	defer g.Dispose()
	clk := transport.NewClock(g)
	s := synth.New(g, clk, p, synth.WithRand(rand.New(rand.NewPCG(noiseSeed, 2))))
	if err := s.Play(synth.Note{}); err != nil {
		return nil, err
	}

	frames := export.Frames(seconds, rate)
	block := make([]float32, graph.BlockSize)
	out := make([]float64, 0, frames)
	for len(out) < frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		clk.Tick()
		n := min(graph.BlockSize, frames-len(out))
		g.Process(block[:n])
		for _, v := range block[:n] {
			out = append(out, float64(v))
		}
	}
	s.Stop()
	return out, nil
}
