package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	presetPath string
	category   string
	seed       uint64
	noteName   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "sfx",
	Short: "Parametric sound effect synthesizer",
	Long: `sfx designs retro game sound effects from a small parameter set and
renders them live or offline.

A sound comes from a JSON preset (--preset), a random category
(--category) or the built-in default square blip.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(randomCmd)
	rootCmd.AddCommand(compareCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&presetPath, "preset", "p", "", "Preset JSON file")
	pf.StringVarP(&category, "category", "c", "", "Random sound category (shoot, jump, explosion, powerup, coin, hit, blip)")
	pf.Uint64Var(&seed, "seed", 0, "Random seed for categories and noise (0 = time based)")
	pf.StringVarP(&noteName, "note", "n", "", "Note name overriding the frequency, e.g. C5")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	initRender()
	initPlay()
	initRandom()
	initCompare()
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
