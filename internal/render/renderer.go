package render

import (
	"image"

	"github.com/gogpu/gg"

	"LiveBoard/internal/state"
)

// Renderer owns one visible and one persistent layer of a board view. It is
// not safe for concurrent use; the board loop is its only caller.
type Renderer struct {
	visible    *Layer
	persistent *Layer
}

func NewRenderer(visible, persistent *Layer) *Renderer {
	return &Renderer{visible: visible, persistent: persistent}
}

func (r *Renderer) Visible() *Layer    { return r.visible }
func (r *Renderer) Persistent() *Layer { return r.persistent }

// Recompose rebuilds the persistent layer from strokes, in timestamp
// order, and shows it on the visible layer.
func (r *Renderer) Recompose(strokes []state.StrokeChunk) {
	if r.visible.Degenerate() || r.persistent.Degenerate() {
		return
	}

	ordered := make([]state.StrokeChunk, len(strokes))
	copy(ordered, strokes)
	state.SortStrokes(ordered)

	r.persistent.Clear()
	r.visible.Clear()
	for _, c := range ordered {
		DrawSmoothLine(r.persistent, c.Points, c.Color, c.Thickness)
	}
	r.blit()
	logger().Debug("[RENDER] recomposed", "strokes", len(ordered))
}

// Overlay shows the stroke in progress on top of the persistent layer
// without touching it.
func (r *Renderer) Overlay(points []state.Point, style state.Style) {
	if r.visible.Degenerate() || r.persistent.Degenerate() {
		return
	}
	r.visible.Clear()
	r.blit()
	DrawSmoothLine(r.visible, points, style.Color, style.Thickness)
}

// Clear wipes both layers.
func (r *Renderer) Clear() {
	if r.visible.Degenerate() || r.persistent.Degenerate() {
		return
	}
	r.persistent.Clear()
	r.visible.Clear()
}

// Image is the current content of the visible layer.
func (r *Renderer) Image() image.Image {
	return r.visible.Image()
}

// blit copies the persistent layer onto the visible one pixel for pixel.
func (r *Renderer) blit() {
	buf := gg.ImageBufFromImage(r.persistent.Image())
	r.visible.Identity()
	r.visible.DrawImage(buf, 0, 0)
	r.visible.resetTransform()
}
