package params

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Category is a sound-effect family understood by Randomize.
type Category string

const (
	CategoryShoot     Category = "shoot"
	CategoryJump      Category = "jump"
	CategoryExplosion Category = "explosion"
	CategoryPowerup   Category = "powerup"
	CategoryCoin      Category = "coin"
	CategoryHit       Category = "hit"
	CategoryBlip      Category = "blip"
)

// Categories lists every category Randomize accepts.
var Categories = []Category{
	CategoryShoot, CategoryJump, CategoryExplosion, CategoryPowerup,
	CategoryCoin, CategoryHit, CategoryBlip,
}

type span struct{ min, max float64 }

var categoryFrequency = map[Category]span{
	CategoryShoot:     {800, 2000},
	CategoryJump:      {500, 1200},
	CategoryExplosion: {40, 260},
	CategoryPowerup:   {600, 1500},
	CategoryCoin:      {900, 2000},
	CategoryHit:       {120, 700},
	CategoryBlip:      {1200, 2000},
}

// FrequencyRange returns the base-frequency range used for category.
func FrequencyRange(category Category) (lo, hi float64, ok bool) {
	s, ok := categoryFrequency[category]
	return s.min, s.max, ok
}

// Randomize builds a random sound of the given category on top of the
// defaults. The result is always within the parameter table ranges.
func Randomize(category Category, rng *rand.Rand) (Params, error) {
	fr, ok := categoryFrequency[category]
	if !ok {
		return Params{}, fmt.Errorf("unknown sound category %q", category)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	between := func(lo, hi float64) float64 { return rng.Float64()*(hi-lo) + lo }
	integer := func(lo, hi float64) float64 { return math.Round(between(lo, hi)) }
	choose := func(ws ...Waveform) Waveform { return ws[rng.IntN(len(ws))] }

	out := Default()
	out.Frequency = between(fr.min, fr.max)

	switch category {
	case CategoryShoot:
		out.Waveform = choose(Square, Sawtooth)
		out.Attack = 0.001
		out.Decay = between(0.05, 0.15)
		out.Sustain = between(0, 0.2)
		out.Release = between(0.01, 0.08)
		out.BitDepth = integer(4, 10)
	case CategoryJump:
		out.Waveform = Sawtooth
		sign := 1.0
		if rng.IntN(2) == 0 {
			sign = -1
		}
		out.Detune = sign * between(50, 100)
		out.Attack = between(0.01, 0.08)
		out.Decay = between(0.1, 0.28)
		out.VibratoRate = between(2, 7)
		out.VibratoDepth = between(0.05, 0.25)
	case CategoryExplosion:
		out.Waveform = Noise
		out.Attack = between(0.01, 0.05)
		out.Decay = between(0.3, 1)
		out.Sustain = between(0, 0.2)
		out.Release = between(0.2, 0.9)
		out.HPFCutoff = between(20, 300)
		out.LPFCutoff = between(120, 1500)
		out.BitDepth = integer(1, 6)
		out.SampleRateReduction = integer(4, 20)
	case CategoryPowerup:
		out.Waveform = Square
		out.ArpPattern = ArpUp
		out.ArpSpeed = between(6, 14)
		out.ArpSteps = []float64{0, 4, 7, 12}
		out.Attack = between(0.005, 0.05)
		out.Decay = between(0.08, 0.25)
		out.Release = between(0.08, 0.24)
	case CategoryCoin:
		out.Waveform = choose(Sine, Square)
		out.ArpPattern = ArpUp
		out.ArpSpeed = between(10, 18)
		out.Attack = 0.001
		out.Decay = between(0.03, 0.1)
		out.Sustain = 0
		out.Release = between(0.02, 0.1)
	case CategoryHit:
		out.Waveform = Noise
		out.Attack = 0.001
		out.Decay = between(0.03, 0.15)
		out.Sustain = 0
		out.Release = between(0.01, 0.08)
		out.HPFCutoff = between(100, 1200)
		out.BitDepth = integer(3, 8)
	case CategoryBlip:
		out.Waveform = Sine
		out.Attack = between(0.001, 0.02)
		out.Decay = between(0.02, 0.09)
		out.Sustain = between(0, 0.1)
		out.Release = between(0.01, 0.06)
		out.Detune = between(-20, 20)
	}

	out = Sanitize(out)
	out.ResolveModes()
	return out, nil
}
