package export

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"LiveBoard/internal/render"
	"LiveBoard/internal/state"
)

const (
	DefaultThumbnailWidth = 256
	MaxThumbnailWidth     = 1024
	// maxRaster bounds the full-size render a thumbnail is scaled from.
	maxRaster = 2048.0
)

// Thumbnail renders the strokes on white, cropped to their bounds, and
// scales the result so its longest side is width pixels. An empty board
// gives a blank 4:3 image.
func Thumbnail(strokes []state.StrokeChunk, width int) (image.Image, error) {
	switch {
	case width <= 0:
		width = DefaultThumbnailWidth
	case width > MaxThumbnailWidth:
		width = MaxThumbnailWidth
	}

	bounds := state.BoardBounds(strokes)
	if bounds.Empty() {
		dc := gg.NewContext(width, width*3/4)
		dc.ClearWithColor(gg.White)
		return dc.Image(), nil
	}

	scale := 1.0
	if longest := max(bounds.Width(), bounds.Height()); longest > maxRaster {
		scale = maxRaster / longest
	}
	rw := int(math.Ceil(bounds.Width() * scale))
	rh := int(math.Ceil(bounds.Height() * scale))

	dc := gg.NewContext(rw, rh)
	dc.ClearWithColor(gg.White)
	dc.Scale(scale, scale)
	dc.Translate(-bounds.MinX, -bounds.MinY)

	ordered := make([]state.StrokeChunk, len(strokes))
	copy(ordered, strokes)
	state.SortStrokes(ordered)
	for _, c := range ordered {
		render.DrawSmoothLine(dc, c.Points, c.Color, c.Thickness)
	}
	src := dc.Image()

	height := max(1, int(math.Round(float64(rh)*float64(width)/float64(rw))))
	if rh > rw {
		width, height = max(1, int(math.Round(float64(rw)*float64(width)/float64(rh)))), width
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
