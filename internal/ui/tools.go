package ui

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/gogpu/gg"

	"LiveBoard/internal/board"
	"LiveBoard/internal/render"
	"LiveBoard/internal/state"
)

// Palette is the set of pen colors offered by the toolbar.
var Palette = []string{"#000000", "#ff0000", "#00aa00", "#0000ff", "#ffcc00"}

const (
	eraserColor     = "#ffffff"
	eraserThickness = 20.0
)

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    string
	OnTapped func(string)
}

func newColorSwatch(hex string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Color: hex, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(toColor(render.ParseColor(s.Color)))
	rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

func toColor(c gg.RGBA) color.Color {
	return color.NRGBA{
		R: uint8(c.R*255 + 0.5),
		G: uint8(c.G*255 + 0.5),
		B: uint8(c.B*255 + 0.5),
		A: uint8(c.A*255 + 0.5),
	}
}

// pen remembers the last color so the eraser can hand it back.
type pen struct {
	mu     sync.Mutex
	board  *board.Board
	style  state.Style
	last   string
	eraser bool
}

func newPen(b *board.Board) *pen {
	return &pen{board: b, style: state.DefaultStyle, last: state.DefaultStyle.Color}
}

func (p *pen) apply() {
	p.board.SetStyle(p.style)
}

func (p *pen) draw() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.eraser {
		p.eraser = false
		p.style = state.Style{Color: p.last, Thickness: state.DefaultStyle.Thickness}
	}
	p.apply()
}

func (p *pen) erase() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eraser = true
	p.style = state.Style{Color: eraserColor, Thickness: eraserThickness}
	p.apply()
}

func (p *pen) setColor(hex string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = hex
	p.eraser = false
	p.style.Color = hex
	p.apply()
}

func (p *pen) setThickness(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.style.Thickness = v
	p.apply()
}

func (p *pen) current() state.Style {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.style
}

// --- The Main Toolbar ---
func NewToolbar(b *board.Board, onExport func()) fyne.CanvasObject {
	p := newPen(b)

	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), p.draw),
		widget.NewToolbarAction(theme.DeleteIcon(), p.erase),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentClearIcon(), b.Clear),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), onExport),
	)

	swatches := make([]fyne.CanvasObject, 0, len(Palette))
	for _, hex := range Palette {
		swatches = append(swatches, newColorSwatch(hex, p.setColor))
	}
	colorBox := container.NewHBox(swatches...)

	strokeSlider := widget.NewSlider(1.0, 50.0)
	strokeSlider.SetValue(state.DefaultStyle.Thickness)
	strokeSlider.OnChanged = p.setThickness
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), strokeSlider)

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tb,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		layout.NewSpacer(),
	)
}
