// Package export renders a board's strokes into files: a vector PDF and a
// PNG thumbnail.
package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"LiveBoard/internal/render"
	"LiveBoard/internal/state"
)

const pageMargin = 10.0 // mm

// pdfPath adapts a gofpdf document to render.PathSink, mapping drawing
// units onto the page.
type pdfPath struct {
	pdf        *gofpdf.Fpdf
	scale      float64
	offX, offY float64
	minX, minY float64
}

func (p *pdfPath) x(v float64) float64 { return p.offX + (v-p.minX)*p.scale }
func (p *pdfPath) y(v float64) float64 { return p.offY + (v-p.minY)*p.scale }

func (p *pdfPath) MoveTo(x, y float64) { p.pdf.MoveTo(p.x(x), p.y(y)) }
func (p *pdfPath) LineTo(x, y float64) { p.pdf.LineTo(p.x(x), p.y(y)) }
func (p *pdfPath) QuadraticTo(cx, cy, x, y float64) {
	p.pdf.CurveTo(p.x(cx), p.y(cy), p.x(x), p.y(y))
}

// WritePDF writes the strokes onto one landscape A4 page, fitted inside
// the margins with the aspect ratio kept.
func WritePDF(w io.Writer, boardID string, strokes []state.StrokeChunk) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("LiveBoard "+boardID, true)
	pdf.SetCreator("LiveBoard", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.Text(pageMargin, pageMargin-3, fmt.Sprintf("%s  %d strokes", boardID, len(strokes)))

	ordered := make([]state.StrokeChunk, len(strokes))
	copy(ordered, strokes)
	state.SortStrokes(ordered)

	bounds := state.BoardBounds(ordered)
	if !bounds.Empty() {
		pw, ph := pdf.GetPageSize()
		aw, ah := pw-2*pageMargin, ph-2*pageMargin
		scale := min(aw/bounds.Width(), ah/bounds.Height())

		path := &pdfPath{
			pdf:   pdf,
			scale: scale,
			offX:  pageMargin + (aw-bounds.Width()*scale)/2,
			offY:  pageMargin + (ah-bounds.Height()*scale)/2,
			minX:  bounds.MinX,
			minY:  bounds.MinY,
		}

		pdf.SetLineCapStyle("round")
		pdf.SetLineJoinStyle("round")
		for _, c := range ordered {
			col := render.ParseColor(c.Color)
			pdf.SetDrawColor(int(col.R*255), int(col.G*255), int(col.B*255))
			pdf.SetLineWidth(max(c.Thickness*scale, 0.1))
			if render.TracePath(path, c.Points) {
				pdf.DrawPath("D")
			}
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
