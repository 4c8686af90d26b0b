package dsp

import "math/rand/v2"

// NoiseBuffer returns n independent uniform samples in [-1,1).
func NoiseBuffer(rng *rand.Rand, n int) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = rng.Float64()*2 - 1
	}
	return buf
}

// NoiseSample draws one uniform sample in [-1,1).
func NoiseSample(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}
