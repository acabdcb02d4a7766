package export

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"LiveBoard/internal/state"
)

func line(id string, ts int64, colour string, pts ...state.Point) state.StrokeChunk {
	return state.StrokeChunk{ID: id, BoardID: "b", Timestamp: ts, Points: pts, Color: colour, Thickness: 10, Complete: true}
}

func TestWritePDF(t *testing.T) {
	strokes := []state.StrokeChunk{
		line("a", 1, "#ff0000", state.Point{X: 0, Y: 0}, state.Point{X: 100, Y: 50}),
		line("b", 2, "blue", state.Point{X: 0, Y: 50}, state.Point{X: 40, Y: 10}, state.Point{X: 80, Y: 60}, state.Point{X: 100, Y: 0}),
		line("dot", 3, "black", state.Point{X: 50, Y: 25}),
	}

	var buf bytes.Buffer
	if err := WritePDF(&buf, "b", strokes); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}

	var empty bytes.Buffer
	if err := WritePDF(&empty, "b", nil); err != nil {
		t.Fatalf("WritePDF on an empty board: %v", err)
	}
	if empty.Len() == 0 || empty.Len() >= buf.Len() {
		t.Errorf("expected an empty board to give a smaller document, got %d vs %d bytes", empty.Len(), buf.Len())
	}
}

func TestThumbnail(t *testing.T) {
	strokes := []state.StrokeChunk{
		line("a", 1, "#ff0000", state.Point{X: 0, Y: 0}, state.Point{X: 200, Y: 0}),
	}
	img, err := Thumbnail(strokes, 105)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 105 || b.Dy() != 5 {
		t.Fatalf("expected 105x5, got %dx%d", b.Dx(), b.Dy())
	}
	c := color.NRGBAModel.Convert(img.At(52, 2)).(color.NRGBA)
	if c.R < 200 || c.G > 80 || c.B > 80 {
		t.Errorf("expected red in the middle of the stroke, got %+v", c)
	}

	var buf bytes.Buffer
	if err := WritePNG(&buf, img); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Errorf("output does not decode: %v", err)
	}
}

func TestThumbnailOfEmptyBoard(t *testing.T) {
	img, err := Thumbnail(nil, 0)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != DefaultThumbnailWidth || b.Dy() != DefaultThumbnailWidth*3/4 {
		t.Errorf("unexpected blank size %dx%d", b.Dx(), b.Dy())
	}
	c := color.NRGBAModel.Convert(img.At(10, 10)).(color.NRGBA)
	if c != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("expected white, got %+v", c)
	}

	img, _ = Thumbnail(nil, 5000)
	if img.Bounds().Dx() != MaxThumbnailWidth {
		t.Errorf("width was not clamped: %d", img.Bounds().Dx())
	}
}

func TestThumbnailOfTallBoard(t *testing.T) {
	strokes := []state.StrokeChunk{
		line("v", 1, "black", state.Point{X: 0, Y: 0}, state.Point{X: 0, Y: 2000}),
	}
	img, err := Thumbnail(strokes, MaxThumbnailWidth)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	b := img.Bounds()
	if b.Dy() != MaxThumbnailWidth {
		t.Errorf("expected height %d, got %d", MaxThumbnailWidth, b.Dy())
	}
	if b.Dx() < 1 || b.Dx() > MaxThumbnailWidth/20 {
		t.Errorf("expected a narrow image, got %dx%d", b.Dx(), b.Dy())
	}
}
