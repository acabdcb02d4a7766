package stroke

import (
	"math"

	"LiveBoard/internal/state"
)

const (
	DefaultThreshold    = 2.0
	DefaultSmoothWindow = 3
)

// Distance is the Euclidean distance between a and b.
func Distance(a, b state.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// OptimizePoints drops points closer than threshold to the last kept one.
// The first and the final point always survive.
func OptimizePoints(points []state.Point, threshold float64) []state.Point {
	if len(points) <= 2 {
		out := make([]state.Point, len(points))
		copy(out, points)
		return out
	}

	out := make([]state.Point, 0, len(points))
	out = append(out, points[0])
	last := points[0]
	for _, p := range points[1:] {
		if Distance(last, p) >= threshold {
			out = append(out, p)
			last = p
		}
	}

	final := points[len(points)-1]
	if out[len(out)-1] != final {
		out = append(out, final)
	}
	return out
}

// SmoothPoints replaces every interior point by the mean of the window
// points on each side of it. The first and last window points are kept.
func SmoothPoints(points []state.Point, window int) []state.Point {
	out := make([]state.Point, len(points))
	copy(out, points)
	if window <= 0 || len(points) <= window {
		return out
	}

	span := float64(2*window + 1)
	for i := window; i < len(points)-window; i++ {
		var sx, sy float64
		for j := i - window; j <= i+window; j++ {
			sx += points[j].X
			sy += points[j].Y
		}
		out[i] = state.Point{X: sx / span, Y: sy / span}
	}
	return out
}
