package render

import (
	"math"

	"LiveBoard/internal/stroke"
)

const (
	// MinDisplaySize rejects transient layouts such as a collapsing panel.
	MinDisplaySize = 50.0
	// ResizeSlack ignores sub-pixel layout jitter.
	ResizeSlack = 2.0
)

// Box is a display size in drawing units.
type Box struct {
	Width, Height float64
}

func (b Box) zero() bool { return b.Width <= 0 || b.Height <= 0 }

// Sizer keeps the backing stores of a renderer's layers at display size
// times the device pixel ratio.
type Sizer struct {
	r       *Renderer
	ratio   float64
	display Box
	origin  stroke.Rect
	resizes int
}

func NewSizer(r *Renderer) *Sizer {
	return &Sizer{r: r, ratio: r.visible.Ratio()}
}

// SetOrigin records where the canvas sits in client coordinates.
func (s *Sizer) SetOrigin(left, top float64) {
	s.origin.Left, s.origin.Top = left, top
}

// Fit sizes the layers for the parent box, or own when parent is zero. It
// reports whether a backing store was reallocated, which wipes it; the
// caller recomposes afterwards.
func (s *Sizer) Fit(parent, own Box) bool {
	box := parent
	if box.zero() {
		box = own
	}
	if box.Width < MinDisplaySize || box.Height < MinDisplaySize {
		return false
	}
	if math.Abs(box.Width-s.display.Width) < ResizeSlack &&
		math.Abs(box.Height-s.display.Height) < ResizeSlack {
		return false
	}

	w := int(math.Round(box.Width * s.ratio))
	h := int(math.Round(box.Height * s.ratio))
	if err := s.r.visible.Resize(w, h); err != nil {
		logger().Warn("[SIZE] resize failed", "width", w, "height", h, "err", err)
		return false
	}
	s.display = box
	s.r.visible.resetTransform()
	s.resizes++

	s.syncPersistent()
	logger().Debug("[SIZE] resized", "display", box, "backing_w", w, "backing_h", h)
	return true
}

// syncPersistent makes the persistent layer match the visible backing
// store exactly, so blits line up.
func (s *Sizer) syncPersistent() {
	vw, vh := s.r.visible.BackingSize()
	pw, ph := s.r.persistent.BackingSize()
	if vw == pw && vh == ph {
		return
	}
	if err := s.r.persistent.Resize(vw, vh); err != nil {
		logger().Warn("[SIZE] persistent resize failed", "err", err)
		return
	}
	s.r.persistent.resetTransform()
}

// Display is the current display size.
func (s *Sizer) Display() Box {
	return s.display
}

// Resizes counts backing-store reallocations of the visible layer.
func (s *Sizer) Resizes() int {
	return s.resizes
}

// BoundingRect implements stroke.Geometry.
func (s *Sizer) BoundingRect() stroke.Rect {
	r := s.origin
	r.Width, r.Height = s.display.Width, s.display.Height
	return r
}

// BackingSize implements stroke.Geometry.
func (s *Sizer) BackingSize() (int, int) {
	return s.r.visible.BackingSize()
}

var _ stroke.Geometry = (*Sizer)(nil)
