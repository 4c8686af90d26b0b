// Package curve implements the cubic bezier math behind parameter automation.
//
// A curve maps normalized time (x in [0,1]) to a value in the automated
// parameter's native unit (y, e.g. Hz). Curves are sampled into fixed-length
// value arrays which are then ramped linearly across a known duration.
package curve

import (
	"fmt"
	"math"
)

// DefaultSamples is the point count used when no explicit count is given.
const DefaultSamples = 128

// Point is a control point in normalized-time × value space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Curve is a cubic bezier defined by four control points.
// P0.X is anchored at 0 and P3.X at 1; P1.X must not exceed P2.X.
type Curve struct {
	P0 Point `json:"p0"`
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
	P3 Point `json:"p3"`
}

// Evaluate returns the point on the curve at t, with t clamped to [0,1].
func Evaluate(t float64, p0, p1, p2, p3 Point) Point {
	tc := clamp01(t)
	mt := 1 - tc
	a := mt * mt * mt
	b := 3 * mt * mt * tc
	c := 3 * mt * tc * tc
	d := tc * tc * tc
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// At evaluates c at t.
func (c Curve) At(t float64) Point {
	return Evaluate(t, c.P0, c.P1, c.P2, c.P3)
}

// Sample evaluates the curve at max(2, n) evenly spaced t values in [0,1]
// inclusive and returns the y components.
func Sample(c Curve, n int) []float64 {
	count := n
	if count < 2 {
		count = 2
	}
	out := make([]float64, count)
	last := float64(count - 1)
	for i := range out {
		out[i] = Evaluate(float64(i)/last, c.P0, c.P1, c.P2, c.P3).Y
	}
	return out
}

// Flat returns a curve holding value for the whole duration.
func Flat(value float64) Curve {
	return Curve{
		P0: Point{X: 0, Y: value},
		P1: Point{X: 1.0 / 3.0, Y: value},
		P2: Point{X: 2.0 / 3.0, Y: value},
		P3: Point{X: 1, Y: value},
	}
}

// Sweep returns a curve moving from start to end. shape (clamped to [0,1])
// places the handles: 0 pulls them to the opposite ends, 1 to their own ends.
func Sweep(start, end, shape float64) Curve {
	s := clamp01(shape)
	return Curve{
		P0: Point{X: 0, Y: start},
		P1: Point{X: s, Y: start},
		P2: Point{X: 1 - s, Y: end},
		P3: Point{X: 1, Y: end},
	}
}

// LogSweep returns a pitch sweep whose handles sit at the geometric mean of
// the endpoints, so the perceived pitch moves at an even rate. Endpoints are
// floored at 1 Hz before taking logarithms.
func LogSweep(startHz, endHz, shape float64) Curve {
	safeStart := math.Max(1, startHz)
	safeEnd := math.Max(1, endHz)
	mid := math.Exp((math.Log(safeStart) + math.Log(safeEnd)) / 2)
	s := clamp01(shape)
	return Curve{
		P0: Point{X: 0, Y: safeStart},
		P1: Point{X: s, Y: mid},
		P2: Point{X: 1 - s, Y: mid},
		P3: Point{X: 1, Y: safeEnd},
	}
}

// Validate reports curves whose anchors are off the time axis ends or whose
// handles would make time run backwards.
func Validate(c Curve) error {
	if c.P0.X != 0 || c.P3.X != 1 {
		return fmt.Errorf("curve anchors must sit at x=0 and x=1, got %g and %g", c.P0.X, c.P3.X)
	}
	if c.P1.X > c.P2.X {
		return fmt.Errorf("curve handles out of order: p1.x=%g > p2.x=%g", c.P1.X, c.P2.X)
	}
	for _, p := range []Point{c.P0, c.P1, c.P2, c.P3} {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("curve has non-finite control point %+v", p)
		}
	}
	return nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
