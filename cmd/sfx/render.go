package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-sfx/export"
	"github.com/cwbudde/algo-sfx/export/ogg"
	"github.com/cwbudde/algo-sfx/internal/wavio"
)

var (
	renderOutput  string
	renderFormats string
	renderWorkers string
	renderSeconds float64
	renderRate    int
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the sound offline and encode it",
	Long: `Render the sound through an offline copy of the signal chain and
write one file per requested format.

Examples:
  sfx render --preset laser.json -o out/laser --formats wav,mp3
  sfx render --category coin --seed 7 --formats wav,mp3,ogg --workers auto`,
	RunE: runRender,
}

func initRender() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOutput, "output", "o", "sfx", "Output path without extension")
	f.StringVar(&renderFormats, "formats", "wav", "Comma separated formats: wav, mp3, ogg")
	f.StringVar(&renderWorkers, "workers", "auto", "Parallel encoders (integer >= 1 or 'auto')")
	f.Float64Var(&renderSeconds, "seconds", 0, "Render length in seconds (0 = the sound's duration)")
	f.IntVar(&renderRate, "sample-rate", export.SampleRate, "Render sample rate in Hz")
}

func runRender(cmd *cobra.Command, _ []string) error {
	formats, err := parseFormats(renderFormats)
	if err != nil {
		return err
	}
	workers, err := wavio.ParseWorkers(renderWorkers)
	if err != nil {
		return fmt.Errorf("invalid --workers: %w", err)
	}

	rng := newRand()
	p, err := loadSound(rng)
	if err != nil {
		return err
	}
	seconds := renderSeconds
	if seconds <= 0 {
		seconds = p.DurationSeconds()
	}

	fmt.Printf("Rendering %s for %.3fs at %d Hz...\n", describe(p), seconds, renderRate)
	buf, err := export.Render(cmd.Context(), p, seconds, export.WithSampleRate(renderRate), export.WithRand(rng))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(workers)
	for _, format := range formats {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := encode(buf, format)
			if err != nil {
				return err
			}
			path := renderOutput + format.Extension()
			if err := export.Save(path, data); err != nil {
				return err
			}
			fmt.Printf("Wrote %s (%d bytes)\n", path, len(data))
			return nil
		})
	}
	return g.Wait()
}

func encode(b *export.Buffer, f export.Format) ([]byte, error) {
	switch f {
	case export.FormatWAV:
		return export.EncodeWAV(b)
	case export.FormatMP3:
		return export.EncodeMP3(b)
	case export.FormatOGG:
		data, err := ogg.Encode(b.Float32(), ogg.Config{Channels: 1, SampleRate: b.SampleRate(), Quality: 3})
		if err != nil {
			return nil, &export.EncodeError{Format: f, Err: err}
		}
		return data, nil
	}
	return nil, fmt.Errorf("unsupported format %q", f)
}

func parseFormats(raw string) ([]export.Format, error) {
	seen := map[export.Format]bool{}
	var out []export.Format
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := export.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no output formats given")
	}
	return out, nil
}
