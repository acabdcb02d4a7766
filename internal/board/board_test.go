package board

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"LiveBoard/internal/render"
	"LiveBoard/internal/server"
	"LiveBoard/internal/state"
	"LiveBoard/internal/store"
	"LiveBoard/internal/stroke"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeSyncer stores strokes in memory and publishes the board to its
// listener before Submit and ClearAll return, the way the hub does. With
// silent set it confirms submits without publishing.
type fakeSyncer struct {
	mu        sync.Mutex
	fn        func([]state.StrokeChunk)
	cancelled bool
	cleared   []string
	stored    []state.StrokeChunk
	err       error
	silent    bool
	submitted chan state.StrokeChunk
}

func newFakeSyncer() *fakeSyncer {
	return &fakeSyncer{submitted: make(chan state.StrokeChunk, 16)}
}

func (f *fakeSyncer) Submit(ctx context.Context, c state.StrokeChunk) error {
	f.submitted <- c
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if !f.silent {
		f.stored = append(f.stored, c)
		f.publish()
	}
	return nil
}

func (f *fakeSyncer) publish() {
	if f.fn == nil || f.cancelled {
		return
	}
	snap := make([]state.StrokeChunk, len(f.stored))
	copy(snap, f.stored)
	f.fn(snap)
}

func (f *fakeSyncer) Subscribe(boardID string, fn func([]state.StrokeChunk)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fn = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cancelled = true
	}
}

func (f *fakeSyncer) ClearAll(ctx context.Context, boardID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, boardID)
	if f.err != nil {
		return f.err
	}
	f.stored = nil
	f.publish()
	return nil
}

func (f *fakeSyncer) callback() func([]state.StrokeChunk) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fn
}

func start(t *testing.T, b *Board) <-chan struct{} {
	t.Helper()
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
	return done
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func mouse(x, y float64) stroke.MouseEvent {
	return stroke.MouseEvent{ClientX: x, ClientY: y}
}

func draw(b *Board, pts ...state.Point) {
	b.PointerDown(mouse(pts[0].X, pts[0].Y))
	for _, p := range pts[1:] {
		b.PointerMove(mouse(p.X, p.Y))
	}
	b.PointerUp(mouse(pts[len(pts)-1].X, pts[len(pts)-1].Y))
}

func TestDecimatedStrokeIsSubmittedComplete(t *testing.T) {
	f := newFakeSyncer()
	b := New(f, Options{BoardID: "b1", AuthorID: "alice", Logger: quiet})
	start(t, b)
	b.Resize(render.Box{Width: 200, Height: 200}, render.Box{}, 1)

	b.PointerDown(mouse(10, 10))
	b.PointerMove(mouse(10, 10.5))
	b.PointerMove(mouse(20, 20))
	b.PointerUp(mouse(20, 20))

	select {
	case c := <-f.submitted:
		want := []state.Point{{X: 10, Y: 10}, {X: 20, Y: 20}}
		if len(c.Points) != len(want) {
			t.Fatalf("expected %d points, got %v", len(want), c.Points)
		}
		for i := range want {
			if c.Points[i] != want[i] {
				t.Errorf("point %d: expected %v, got %v", i, want[i], c.Points[i])
			}
		}
		if !c.Complete {
			t.Error("submitted stroke is not complete")
		}
		if c.BoardID != "b1" || c.AuthorID != "alice" || c.ChunkIndex != 0 {
			t.Errorf("unexpected stroke metadata: %+v", c)
		}
		if c.Color != state.DefaultStyle.Color || c.Thickness != state.DefaultStyle.Thickness {
			t.Errorf("expected default pen, got %s/%v", c.Color, c.Thickness)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("stroke was never submitted")
	}

	eventually(t, "confirmed stroke", func() bool {
		return len(b.Strokes()) == 1 && b.Pending() == 0
	})
}

func TestConfirmedStrokeFollowsLaterSnapshot(t *testing.T) {
	f := newFakeSyncer()
	f.silent = true
	b := New(f, Options{BoardID: "b1", Logger: quiet})
	start(t, b)
	eventually(t, "subscription", func() bool { return f.callback() != nil })

	draw(b, state.Point{X: 1, Y: 1}, state.Point{X: 20, Y: 20})
	<-f.submitted
	// another client cleared the board; its snapshot replaced the one
	// that carried the stroke
	f.callback()(nil)

	eventually(t, "stroke gone", func() bool {
		return len(b.Strokes()) == 0 && b.Pending() == 0
	})
}

func TestPointsAreStoredInDrawingUnits(t *testing.T) {
	f := newFakeSyncer()
	b := New(f, Options{BoardID: "b1", Ratio: 2, Logger: quiet})
	start(t, b)
	b.Resize(render.Box{Width: 100, Height: 100}, render.Box{}, 0)

	draw(b, state.Point{X: 10, Y: 10}, state.Point{X: 40, Y: 30})

	c := <-f.submitted
	if c.Points[0] != (state.Point{X: 10, Y: 10}) || c.Points[1] != (state.Point{X: 40, Y: 30}) {
		t.Errorf("expected points in drawing units, got %v", c.Points)
	}
}

func TestSetStyleAppliesToNextStroke(t *testing.T) {
	f := newFakeSyncer()
	b := New(f, Options{BoardID: "b1", Logger: quiet})
	start(t, b)

	b.SetStyle(state.Style{Color: "#ff0000", Thickness: 8})
	draw(b, state.Point{X: 1, Y: 1}, state.Point{X: 30, Y: 30})

	c := <-f.submitted
	if c.Color != "#ff0000" || c.Thickness != 8 {
		t.Errorf("expected the red 8px pen, got %s/%v", c.Color, c.Thickness)
	}
}

func TestSingleTapIsPersisted(t *testing.T) {
	f := newFakeSyncer()
	b := New(f, Options{BoardID: "b1", Logger: quiet})
	start(t, b)

	b.PointerDown(mouse(5, 5))
	b.PointerLeave(mouse(5, 5))

	c := <-f.submitted
	if len(c.Points) != 1 || !c.Complete {
		t.Errorf("expected a complete one-point stroke, got %+v", c)
	}
}

func TestEmptyTouchEventsAreIgnored(t *testing.T) {
	f := newFakeSyncer()
	b := New(f, Options{BoardID: "b1", Logger: quiet})
	start(t, b)

	b.TouchStart(stroke.TouchEvent{})
	b.TouchEnd(stroke.TouchEvent{})
	b.Sync()
	if len(b.Strokes()) != 0 {
		t.Fatal("an empty touch event started a stroke")
	}

	b.TouchStart(stroke.TouchEvent{Touches: []stroke.Touch{{ClientX: 3, ClientY: 4}}})
	b.TouchMove(stroke.TouchEvent{Touches: []stroke.Touch{{ClientX: 30, ClientY: 40}}})
	b.TouchEnd(stroke.TouchEvent{ChangedTouches: []stroke.Touch{{ClientX: 30, ClientY: 40}}})

	c := <-f.submitted
	if len(c.Points) != 2 {
		t.Errorf("expected a two-point touch stroke, got %v", c.Points)
	}
}

func TestFrameTickerRunsOnlyDuringGesture(t *testing.T) {
	f := newFakeSyncer()
	b := New(f, Options{BoardID: "b1", Logger: quiet})
	start(t, b)

	running := func() bool {
		var r bool
		b.post(func() { r = b.drawing() })
		b.Sync()
		return r
	}

	if running() {
		t.Fatal("ticker runs before any gesture")
	}
	b.PointerDown(mouse(1, 1))
	if !running() {
		t.Fatal("ticker does not run during a gesture")
	}
	b.PointerUp(mouse(1, 1))
	if running() {
		t.Fatal("ticker still runs after the gesture ended")
	}
}

func TestSubmitFailureKeepsLocalStroke(t *testing.T) {
	f := newFakeSyncer()
	f.err = errors.New("offline")

	errs := make(chan error, 1)
	b := New(f, Options{
		BoardID: "b1",
		Logger:  quiet,
		OnError: func(err error) {
			select {
			case errs <- err:
			default:
			}
		},
	})
	start(t, b)

	draw(b, state.Point{X: 1, Y: 1}, state.Point{X: 20, Y: 20})
	<-f.submitted

	select {
	case err := <-errs:
		if err.Error() != "offline" {
			t.Errorf("unexpected error %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("OnError was not called")
	}
	if b.Pending() != 1 || len(b.Strokes()) != 1 {
		t.Errorf("the failed stroke must stay local, got %d strokes", len(b.Strokes()))
	}

	// drawing continues after a failure
	draw(b, state.Point{X: 50, Y: 50}, state.Point{X: 80, Y: 80})
	<-f.submitted
	b.Sync()
	if len(b.Strokes()) != 2 {
		t.Errorf("expected 2 local strokes, got %d", len(b.Strokes()))
	}
}

func TestCallbacksAfterTeardownAreDropped(t *testing.T) {
	f := newFakeSyncer()
	b := New(f, Options{BoardID: "b1", Logger: quiet})
	done := start(t, b)
	eventually(t, "subscription", func() bool { return f.callback() != nil })

	b.Close()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	f.mu.Lock()
	cancelled := f.cancelled
	f.mu.Unlock()
	if !cancelled {
		t.Error("subscription was not cancelled at teardown")
	}

	f.callback()([]state.StrokeChunk{{ID: "late", BoardID: "b1", Points: []state.Point{{}}, Complete: true}})
	b.PointerDown(mouse(1, 1))
	b.Clear()
	if b.Sync() {
		t.Error("Sync reported success on a closed board")
	}
	if len(b.Strokes()) != 0 {
		t.Errorf("a late snapshot reached the closed board")
	}
}

func newHub() *server.Hub {
	return server.NewHub(store.NewMemoryStore(), quiet)
}

func manual(id string, ts int64, colour string) state.StrokeChunk {
	return state.StrokeChunk{
		ID:        id,
		BoardID:   "shared",
		AuthorID:  id,
		Timestamp: ts,
		Points:    []state.Point{{X: 10, Y: 50}, {X: 90, Y: 50}},
		Color:     colour,
		Thickness: 12,
		Complete:  true,
	}
}

type lastImage struct {
	mu  sync.Mutex
	img image.Image
}

func (l *lastImage) set(img image.Image) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.img = img
}

func (l *lastImage) at(x, y int) color.NRGBA {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.img == nil {
		return color.NRGBA{}
	}
	return color.NRGBAModel.Convert(l.img.At(x, y)).(color.NRGBA)
}

func TestRecomposeOrderIgnoresArrivalOrder(t *testing.T) {
	early := manual("t1", 1000, "#ff0000")
	late := manual("t2", 2000, "#0000ff")

	for name, arrival := range map[string][]state.StrokeChunk{
		"in order": {early, late},
		"reversed": {late, early},
	} {
		t.Run(name, func(t *testing.T) {
			hub := newHub()
			var shown lastImage
			viewer := New(hub, Options{BoardID: "shared", Logger: quiet, OnPaint: shown.set})
			start(t, viewer)
			viewer.Resize(render.Box{Width: 100, Height: 100}, render.Box{}, 1)

			for _, c := range arrival {
				if err := hub.Submit(context.Background(), c); err != nil {
					t.Fatalf("submit %s: %v", c.ID, err)
				}
			}

			eventually(t, "both strokes", func() bool { return len(viewer.Strokes()) == 2 })
			viewer.Sync()

			got := viewer.Strokes()
			if got[0].ID != "t1" || got[1].ID != "t2" {
				t.Errorf("expected t1 before t2, got %s then %s", got[0].ID, got[1].ID)
			}
			c := shown.at(50, 50)
			if c.B < 200 || c.R > 50 {
				t.Errorf("expected the later blue stroke on top, got %+v", c)
			}
		})
	}
}

func TestTwoClientsConverge(t *testing.T) {
	hub := newHub()
	alice := New(hub, Options{BoardID: "shared", AuthorID: "alice", Logger: quiet})
	bob := New(hub, Options{BoardID: "shared", AuthorID: "bob", Logger: quiet})
	start(t, alice)
	start(t, bob)

	draw(alice, state.Point{X: 1, Y: 1}, state.Point{X: 40, Y: 40})
	draw(bob, state.Point{X: 60, Y: 1}, state.Point{X: 60, Y: 40})

	for _, b := range []*Board{alice, bob} {
		eventually(t, "convergence", func() bool {
			return len(b.Strokes()) == 2 && b.Pending() == 0
		})
	}
	a, c := alice.Strokes(), bob.Strokes()
	for i := range a {
		if a[i].ID != c[i].ID {
			t.Errorf("clients disagree on order at %d: %s vs %s", i, a[i].ID, c[i].ID)
		}
	}
}

func TestClearThenDrawLeavesOneStroke(t *testing.T) {
	hub := newHub()
	b := New(hub, Options{BoardID: "shared", Logger: quiet})
	start(t, b)

	draw(b, state.Point{X: 1, Y: 1}, state.Point{X: 40, Y: 40})
	draw(b, state.Point{X: 5, Y: 1}, state.Point{X: 45, Y: 40})
	eventually(t, "first strokes stored", func() bool {
		got, _ := hub.Strokes(context.Background(), "shared")
		return len(got) == 2
	})

	b.Clear()
	draw(b, state.Point{X: 70, Y: 70}, state.Point{X: 90, Y: 90})
	b.Sync()

	local := b.Strokes()
	if len(local) != 1 {
		t.Fatalf("expected exactly one local stroke right after clear, got %d", len(local))
	}
	fresh := local[0].ID

	eventually(t, "store to hold the new stroke only", func() bool {
		got, _ := hub.Strokes(context.Background(), "shared")
		return len(got) == 1 && got[0].ID == fresh
	})
	eventually(t, "local list to settle", func() bool {
		got := b.Strokes()
		return len(got) == 1 && got[0].ID == fresh && b.Pending() == 0
	})
}

func TestClearResetsLocalState(t *testing.T) {
	f := newFakeSyncer()
	b := New(f, Options{BoardID: "b1", Logger: quiet})
	start(t, b)

	draw(b, state.Point{X: 1, Y: 1}, state.Point{X: 20, Y: 20})
	<-f.submitted
	b.PointerDown(mouse(30, 30))
	b.PointerMove(mouse(60, 60))
	b.Clear()
	b.PointerUp(mouse(60, 60))
	b.Sync()

	if n := len(b.Strokes()); n != 0 {
		t.Errorf("expected no local strokes after clear, got %d", n)
	}
	eventually(t, "ClearAll", func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.cleared) == 1 && f.cleared[0] == "b1"
	})
}
