package render

import (
	"github.com/gogpu/gg"

	"LiveBoard/internal/state"
)

// TracePath emits points as a continuous curve: straight for two points,
// otherwise quadratic segments that use each sample as the control point
// and end on the midpoint to the next one. It reports whether anything was
// emitted.
func TracePath(sink PathSink, points []state.Point) bool {
	n := len(points)
	if n < 2 {
		return false
	}

	sink.MoveTo(points[0].X, points[0].Y)
	if n == 2 {
		sink.LineTo(points[1].X, points[1].Y)
		return true
	}

	for i := 1; i < n-2; i++ {
		mx := (points[i].X + points[i+1].X) / 2
		my := (points[i].Y + points[i+1].Y) / 2
		sink.QuadraticTo(points[i].X, points[i].Y, mx, my)
	}
	ctl, end := points[n-2], points[n-1]
	sink.QuadraticTo(ctl.X, ctl.Y, end.X, end.Y)
	return true
}

// DrawSmoothLine strokes points onto s with round caps and joins. Fewer
// than two points, or a surface without pixels, draws nothing.
func DrawSmoothLine(s Surface, points []state.Point, color string, thickness float64) {
	if len(points) < 2 || s.Width() <= 0 || s.Height() <= 0 {
		return
	}

	s.SetColor(ParseColor(color).Color())
	s.SetLineWidth(thickness)
	s.SetLineCap(gg.LineCapRound)
	s.SetLineJoin(gg.LineJoinRound)

	s.ClearPath()
	TracePath(s, points)
	if err := s.Stroke(); err != nil {
		logger().Warn("[RENDER] stroke failed", "points", len(points), "err", err)
	}
}
