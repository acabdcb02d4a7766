package ui

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/test"

	"LiveBoard/internal/board"
	"LiveBoard/internal/state"
)

type nopSyncer struct {
	mu        sync.Mutex
	submitted []state.StrokeChunk
	cleared   int
}

func (s *nopSyncer) Submit(ctx context.Context, c state.StrokeChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, c)
	return nil
}

func (s *nopSyncer) Subscribe(string, func([]state.StrokeChunk)) func() { return func() {} }

func (s *nopSyncer) ClearAll(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
	return nil
}

func setup(t *testing.T) (*BoardWidget, *board.Board, *nopSyncer) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	view := NewBoardWidget()
	syncer := &nopSyncer{}
	b := board.New(syncer, board.Options{
		BoardID: "ui",
		OnPaint: view.Paint,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	win := NewWindow(a, view, NewStatus(), b, "liveboard://10.0.0.2:8080/ui")
	win.Resize(fyne.NewSize(400, 400))
	view.Resize(fyne.NewSize(320, 240))
	b.Sync()
	return view, b, syncer
}

func at(x, y float32) fyne.PointEvent {
	return fyne.PointEvent{Position: fyne.NewPos(x, y)}
}

func TestMouseStroke(t *testing.T) {
	view, b, _ := setup(t)

	view.MouseDown(&desktop.MouseEvent{PointEvent: at(10, 10), Button: desktop.MouseButtonPrimary})
	view.Dragged(&fyne.DragEvent{PointEvent: at(60, 40), Dragged: fyne.Delta{DX: 50, DY: 30}})
	view.Dragged(&fyne.DragEvent{PointEvent: at(120, 80), Dragged: fyne.Delta{DX: 60, DY: 40}})
	view.MouseUp(&desktop.MouseEvent{PointEvent: at(120, 80), Button: desktop.MouseButtonPrimary})
	b.Sync()

	strokes := b.Strokes()
	if len(strokes) != 1 {
		t.Fatalf("got %d strokes, want 1", len(strokes))
	}
	if n := len(strokes[0].Points); n != 3 {
		t.Errorf("got %d points, want 3", n)
	}
	if view.Frame() == nil {
		t.Error("nothing painted")
	}
}

func TestSecondaryButtonDoesNotDraw(t *testing.T) {
	view, b, _ := setup(t)

	view.MouseDown(&desktop.MouseEvent{PointEvent: at(10, 10), Button: desktop.MouseButtonSecondary})
	view.Dragged(&fyne.DragEvent{PointEvent: at(60, 40)})
	view.MouseUp(&desktop.MouseEvent{PointEvent: at(60, 40), Button: desktop.MouseButtonSecondary})
	b.Sync()

	if n := len(b.Strokes()); n != 0 {
		t.Fatalf("got %d strokes, want 0", n)
	}
}

func TestMouseOutEndsStroke(t *testing.T) {
	view, b, _ := setup(t)

	view.MouseDown(&desktop.MouseEvent{PointEvent: at(10, 10), Button: desktop.MouseButtonPrimary})
	view.MouseMoved(&desktop.MouseEvent{PointEvent: at(80, 10)})
	view.MouseOut()
	view.Dragged(&fyne.DragEvent{PointEvent: at(200, 200)})
	b.Sync()

	strokes := b.Strokes()
	if len(strokes) != 1 || len(strokes[0].Points) != 2 {
		t.Fatalf("strokes = %+v", strokes)
	}
}

func TestTouchStroke(t *testing.T) {
	view, b, syncer := setup(t)

	view.TouchDown(&mobile.TouchEvent{PointEvent: at(20, 20)})
	view.Dragged(&fyne.DragEvent{PointEvent: at(90, 20)})
	view.TouchUp(&mobile.TouchEvent{PointEvent: at(90, 20)})
	b.Sync()

	if n := len(b.Strokes()); n != 1 {
		t.Fatalf("got %d strokes, want 1", n)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		syncer.mu.Lock()
		n := len(syncer.submitted)
		syncer.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("stroke never submitted")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPenAndEraser(t *testing.T) {
	_, b, _ := setup(t)
	p := newPen(b)

	p.setColor("#ff0000")
	p.setThickness(8)
	if got := p.current(); got.Color != "#ff0000" || got.Thickness != 8 {
		t.Fatalf("style = %+v", got)
	}
	p.erase()
	if got := p.current(); got.Color != eraserColor || got.Thickness != eraserThickness {
		t.Fatalf("eraser style = %+v", got)
	}
	p.draw()
	if got := p.current(); got.Color != "#ff0000" {
		t.Fatalf("pen after eraser = %+v", got)
	}
}

func TestStatus(t *testing.T) {
	test.NewApp()
	s := NewStatus()
	s.Connected(false)
	if got := s.Text(); got != "Offline, reconnecting..." {
		t.Errorf("status = %q", got)
	}
	s.Connected(true)
	if got := s.Text(); got != "Connected" {
		t.Errorf("status = %q", got)
	}
}
