package dsp

import "math"

// CurveValueAt interpolates a value curve spread linearly over
// [start, start+dur]. ok is false before start or for an empty curve; after
// the end the last value is held.
func CurveValueAt(values []float64, start, dur, t float64) (v float64, ok bool) {
	n := len(values)
	if n == 0 || t < start {
		return 0, false
	}
	if n == 1 || dur <= 0 || t >= start+dur {
		return values[n-1], true
	}
	pos := (t - start) / dur * float64(n-1)
	k := int(math.Floor(pos))
	if k >= n-1 {
		return values[n-1], true
	}
	return lerp(values[k], values[k+1], pos-float64(k)), true
}
