package state

// Bounds is an axis-aligned box in drawing units.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Empty reports whether the box covers no area.
func (b Bounds) Empty() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// Union returns the smallest box holding both.
func (b Bounds) Union(o Bounds) Bounds {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return Bounds{
		MinX: min(b.MinX, o.MinX),
		MinY: min(b.MinY, o.MinY),
		MaxX: max(b.MaxX, o.MaxX),
		MaxY: max(b.MaxY, o.MaxY),
	}
}

// StrokeBounds is the box of one stroke, padded by half its thickness so
// round caps stay inside.
func StrokeBounds(c StrokeChunk) Bounds {
	if len(c.Points) == 0 {
		return Bounds{}
	}
	b := Bounds{
		MinX: c.Points[0].X, MinY: c.Points[0].Y,
		MaxX: c.Points[0].X, MaxY: c.Points[0].Y,
	}
	for _, p := range c.Points[1:] {
		b.MinX = min(b.MinX, p.X)
		b.MinY = min(b.MinY, p.Y)
		b.MaxX = max(b.MaxX, p.X)
		b.MaxY = max(b.MaxY, p.Y)
	}
	pad := c.Thickness / 2
	if pad < 1 {
		pad = 1
	}
	b.MinX -= pad
	b.MinY -= pad
	b.MaxX += pad
	b.MaxY += pad
	return b
}

// BoardBounds is the union of every stroke's box.
func BoardBounds(strokes []StrokeChunk) Bounds {
	var b Bounds
	for _, c := range strokes {
		b = b.Union(StrokeBounds(c))
	}
	return b
}
