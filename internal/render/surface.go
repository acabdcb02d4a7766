// Package render draws strokes onto raster layers: a persistent layer with
// every finalized stroke and a visible layer that also carries the stroke
// being drawn.
package render

import (
	"image"
	"image/color"

	"github.com/gogpu/gg"
)

// PathSink receives the segments of a traced stroke.
type PathSink interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadraticTo(cx, cy, x, y float64)
}

// Surface is a 2D raster with a canvas-style drawing API. *gg.Context
// implements it.
type Surface interface {
	PathSink

	Width() int
	Height() int
	Resize(width, height int) error
	Image() image.Image

	Clear()
	Identity()
	Scale(x, y float64)

	SetColor(c color.Color)
	SetLineWidth(w float64)
	SetLineCap(c gg.LineCap)
	SetLineJoin(j gg.LineJoin)
	ClearPath()
	Stroke() error

	DrawImage(img *gg.ImageBuf, x, y float64)
}

var _ Surface = (*gg.Context)(nil)

// Layer is a surface plus the device pixel ratio its transform applies.
type Layer struct {
	Surface
	ratio float64
}

// NewLayer allocates a gg-backed layer. A zero size is allowed; nothing is
// drawn until the sizer gives it real dimensions.
func NewLayer(width, height int, ratio float64) *Layer {
	return WrapLayer(gg.NewContext(width, height), ratio)
}

// WrapLayer puts an existing surface behind a layer.
func WrapLayer(s Surface, ratio float64) *Layer {
	if ratio <= 0 {
		ratio = 1
	}
	l := &Layer{Surface: s, ratio: ratio}
	l.resetTransform()
	return l
}

// Ratio is the device pixel ratio of the layer.
func (l *Layer) Ratio() float64 {
	return l.ratio
}

// Degenerate reports whether the layer has no pixels to draw into.
func (l *Layer) Degenerate() bool {
	return l.Width() <= 0 || l.Height() <= 0
}

func (l *Layer) resetTransform() {
	l.Identity()
	l.Scale(l.ratio, l.ratio)
}

// BackingSize is the pixel grid size.
func (l *Layer) BackingSize() (int, int) {
	return l.Width(), l.Height()
}
