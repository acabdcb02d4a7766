package ui

import (
	"image"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"

	"LiveBoard/internal/board"
	"LiveBoard/internal/render"
	"LiveBoard/internal/stroke"
)

// BoardWidget shows a board's visible layer and feeds it pointer input.
// Positions are widget-relative, so the canvas origin is (0, 0).
type BoardWidget struct {
	widget.BaseWidget

	mu       sync.RWMutex
	board    *board.Board
	frame    image.Image
	pressed  bool
	touching bool

	raster *canvas.Image
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)
var _ mobile.Touchable = (*BoardWidget)(nil)

func NewBoardWidget() *BoardWidget {
	w := &BoardWidget{}
	w.raster = canvas.NewImageFromImage(nil)
	w.raster.FillMode = canvas.ImageFillStretch
	w.raster.ScaleMode = canvas.ImageScaleSmooth
	w.ExtendBaseWidget(w)
	return w
}

// Bind connects the widget to its board. Input before Bind is ignored.
func (w *BoardWidget) Bind(b *board.Board) {
	w.mu.Lock()
	w.board = b
	w.mu.Unlock()
	w.Refresh()
}

func (w *BoardWidget) target() *board.Board {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.board
}

// Paint shows a new frame. It is the board's OnPaint hook and may be
// called from any goroutine.
func (w *BoardWidget) Paint(img image.Image) {
	w.mu.Lock()
	w.frame = img
	w.mu.Unlock()
	fyne.Do(func() {
		w.raster.Image = img
		w.raster.Refresh()
	})
}

// Frame is the last painted image.
func (w *BoardWidget) Frame() image.Image {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frame
}

func mouseAt(p fyne.Position) stroke.MouseEvent {
	return stroke.MouseEvent{ClientX: float64(p.X), ClientY: float64(p.Y)}
}

func touchAt(p fyne.Position) []stroke.Touch {
	return []stroke.Touch{{ClientX: float64(p.X), ClientY: float64(p.Y)}}
}

func (w *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	b := w.target()
	if b == nil || e.Button != desktop.MouseButtonPrimary {
		return
	}
	w.pressed = true
	b.PointerDown(mouseAt(e.Position))
}

func (w *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	b := w.target()
	if b == nil || !w.pressed {
		return
	}
	w.pressed = false
	b.PointerUp(mouseAt(e.Position))
}

func (w *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	if b := w.target(); b != nil && w.pressed {
		b.PointerMove(mouseAt(e.Position))
	}
}

func (w *BoardWidget) MouseIn(*desktop.MouseEvent) {}

// MouseOut ends the stroke like a pointer leaving the canvas.
func (w *BoardWidget) MouseOut() {
	b := w.target()
	if b == nil || !w.pressed {
		return
	}
	w.pressed = false
	b.PointerLeave(stroke.MouseEvent{})
}

func (w *BoardWidget) Dragged(e *fyne.DragEvent) {
	b := w.target()
	if b == nil {
		return
	}
	if w.touching {
		b.TouchMove(stroke.TouchEvent{Touches: touchAt(e.Position)})
		return
	}
	if w.pressed {
		b.PointerMove(mouseAt(e.Position))
	}
}

func (w *BoardWidget) DragEnd() {
	b := w.target()
	if b == nil {
		return
	}
	if w.touching {
		w.touching = false
		b.TouchEnd(stroke.TouchEvent{})
		return
	}
	if w.pressed {
		w.pressed = false
		b.PointerUp(stroke.MouseEvent{})
	}
}

func (w *BoardWidget) TouchDown(e *mobile.TouchEvent) {
	if b := w.target(); b != nil {
		w.touching = true
		b.TouchStart(stroke.TouchEvent{Touches: touchAt(e.Position)})
	}
}

func (w *BoardWidget) TouchUp(e *mobile.TouchEvent) {
	if b := w.target(); b != nil && w.touching {
		w.touching = false
		b.TouchEnd(stroke.TouchEvent{ChangedTouches: touchAt(e.Position)})
	}
}

func (w *BoardWidget) TouchCancel(e *mobile.TouchEvent) {
	if b := w.target(); b != nil && w.touching {
		w.touching = false
		b.TouchCancel(stroke.TouchEvent{ChangedTouches: touchAt(e.Position)})
	}
}

func (w *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{board: w}
	r.background = canvas.NewRectangle(color.White)
	return r
}

type boardWidgetRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.background, r.board.raster}
}

// Layout sizes the backing store for the widget at the canvas' scale.
func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.board.raster.Resize(size)

	b := r.board.target()
	if b == nil {
		return
	}
	ratio := 1.0
	if c := fyne.CurrentApp().Driver().CanvasForObject(r.board); c != nil && c.Scale() > 0 {
		ratio = float64(c.Scale())
	}
	box := render.Box{Width: float64(size.Width), Height: float64(size.Height)}
	b.Resize(box, box, ratio)
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardWidgetRenderer) Refresh() {
	r.Layout(r.board.Size())
	canvas.Refresh(r.board)
}

func (r *boardWidgetRenderer) Destroy() {}
