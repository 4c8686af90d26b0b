package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-sfx/export"
	"github.com/cwbudde/algo-sfx/params"
	"github.com/cwbudde/algo-sfx/preset"
)

var (
	randomCount  int
	randomDir    string
	randomRender bool
)

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Generate random sounds of a category and save them as presets",
	Long: `Generate random sounds and save each as a preset JSON file. Without
--category every category is used in turn.

Examples:
  sfx random --category coin --count 5 --dir presets
  sfx random --seed 42 --render`,
	RunE: runRandom,
}

func initRandom() {
	f := randomCmd.Flags()
	f.IntVar(&randomCount, "count", 1, "Sounds to generate per category")
	f.StringVar(&randomDir, "dir", "presets", "Output directory")
	f.BoolVar(&randomRender, "render", false, "Also write a WAV next to each preset")
}

func runRandom(cmd *cobra.Command, _ []string) error {
	cats := params.Categories
	if category != "" {
		cats = []params.Category{params.Category(category)}
	}
	rng := newRand()
	for _, c := range cats {
		for i := 0; i < max(randomCount, 1); i++ {
			p, err := params.Randomize(c, rng)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("%s-%02d", c, i+1)
			path := filepath.Join(randomDir, name+".json")
			if err := preset.SaveJSON(path, name, p); err != nil {
				return err
			}
			fmt.Printf("Wrote %s: %s\n", path, describe(p))
			if randomRender {
				if err := renderWAV(cmd.Context(), p, filepath.Join(randomDir, name+".wav")); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func renderWAV(ctx context.Context, p params.Params, path string) error {
	buf, err := export.Render(ctx, p, p.DurationSeconds())
	if err != nil {
		return err
	}
	data, err := export.EncodeWAV(buf)
	if err != nil {
		return err
	}
	return export.Save(path, data)
}
