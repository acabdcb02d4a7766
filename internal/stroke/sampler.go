// Package stroke turns raw pointer input into the point sequences that get
// drawn and persisted.
package stroke

import "LiveBoard/internal/state"

// Rect is the on-screen box of a canvas, in client coordinates.
type Rect struct {
	Left, Top     float64
	Width, Height float64
}

// Geometry is what the sampler needs to know about the canvas.
type Geometry interface {
	// BoundingRect is the canvas' display box in client coordinates.
	BoundingRect() Rect
	// BackingSize is the pixel size of the raster behind the canvas.
	BackingSize() (width, height int)
}

// Event is raw pointer input.
type Event interface {
	clientPoint() (x, y float64, ok bool)
}

// MouseEvent is single-pointer input.
type MouseEvent struct {
	ClientX, ClientY float64
}

func (e MouseEvent) clientPoint() (float64, float64, bool) {
	return e.ClientX, e.ClientY, true
}

// Touch is one finger of a touch event.
type Touch struct {
	ID               int
	ClientX, ClientY float64
}

// TouchEvent carries the active touches and the ones this event changed.
// On touch end the lifted finger is only in ChangedTouches.
type TouchEvent struct {
	Touches        []Touch
	ChangedTouches []Touch
}

func (e TouchEvent) clientPoint() (float64, float64, bool) {
	switch {
	case len(e.Touches) > 0:
		return e.Touches[0].ClientX, e.Touches[0].ClientY, true
	case len(e.ChangedTouches) > 0:
		return e.ChangedTouches[0].ClientX, e.ChangedTouches[0].ClientY, true
	}
	return 0, 0, false
}

// HasTouch reports whether the event carries any touch at all.
func (e TouchEvent) HasTouch() bool {
	return len(e.Touches) > 0 || len(e.ChangedTouches) > 0
}

// Sample maps an input event onto the canvas' backing-store grid. ok is
// false for a touch event without touches.
func Sample(ev Event, g Geometry) (p state.Point, ok bool) {
	x, y, ok := ev.clientPoint()
	if !ok {
		return state.Point{}, false
	}
	r := g.BoundingRect()
	bw, bh := g.BackingSize()

	sx, sy := 1.0, 1.0
	if r.Width > 0 {
		sx = float64(bw) / r.Width
	}
	if r.Height > 0 {
		sy = float64(bh) / r.Height
	}
	return state.Point{
		X: (x - r.Left) * sx,
		Y: (y - r.Top) * sy,
	}, true
}
