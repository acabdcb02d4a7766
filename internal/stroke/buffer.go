package stroke

import "LiveBoard/internal/state"

// Buffer accumulates the points of the gesture in progress. Every Append
// re-decimates the whole buffer so the result does not depend on how fast
// events arrive.
type Buffer struct {
	threshold float64
	points    []state.Point
}

func NewBuffer(threshold float64) *Buffer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Buffer{threshold: threshold}
}

// Reset starts a new gesture at p.
func (b *Buffer) Reset(p state.Point) {
	b.points = append(b.points[:0], p)
}

func (b *Buffer) Append(p state.Point) {
	b.points = OptimizePoints(append(b.points, p), b.threshold)
}

// Points returns the decimated sequence. The caller must not modify it.
func (b *Buffer) Points() []state.Point {
	return b.points
}

func (b *Buffer) Len() int {
	return len(b.points)
}
