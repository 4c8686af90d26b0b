package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cwbudde/algo-sfx/params"
	"github.com/cwbudde/algo-sfx/preset"
)

func newRand() *rand.Rand {
	s := seed
	if s == 0 {
		s = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// voiceRand derives the generator a noise voice owns on the render
// goroutine. rng stays with the control side.
func voiceRand(rng *rand.Rand) *rand.Rand {
	return rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))
}

// loadSound resolves the global sound flags. A preset wins over a category.
func loadSound(rng *rand.Rand) (params.Params, error) {
	var (
		p   params.Params
		err error
	)
	switch {
	case presetPath != "":
		p, err = preset.LoadJSON(presetPath)
		if err != nil {
			return params.Params{}, fmt.Errorf("loading preset %q: %w", presetPath, err)
		}
	case category != "":
		p, err = params.Randomize(params.Category(category), rng)
		if err != nil {
			return params.Params{}, err
		}
	default:
		p = params.Default()
	}
	if noteName != "" {
		hz, err := params.NoteToFrequency(noteName)
		if err != nil {
			return params.Params{}, err
		}
		p.Frequency = hz
	}
	return params.Sanitize(p), nil
}

func describe(p params.Params) string {
	return fmt.Sprintf("%s %.1f Hz, %.0f ms, ADSR %.3f/%.3f/%.2f/%.3f, %d curve(s)",
		p.Waveform, p.Frequency, p.Duration, p.Attack, p.Decay, p.Sustain, p.Release, len(p.Curves))
}
