package stroke

import (
	"math/rand"
	"testing"

	"LiveBoard/internal/state"
)

type fakeGeometry struct {
	rect   Rect
	bw, bh int
}

func (g fakeGeometry) BoundingRect() Rect      { return g.rect }
func (g fakeGeometry) BackingSize() (int, int) { return g.bw, g.bh }

func TestDistance(t *testing.T) {
	if d := Distance(state.Point{X: 0, Y: 0}, state.Point{X: 3, Y: 4}); d != 5 {
		t.Errorf("expected 5, got %v", d)
	}

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		a := state.Point{X: r.Float64() * 100, Y: r.Float64() * 100}
		b := state.Point{X: r.Float64() * 100, Y: r.Float64() * 100}
		if Distance(a, b) != Distance(b, a) {
			t.Fatalf("distance not symmetric for %v %v", a, b)
		}
		if Distance(a, a) != 0 {
			t.Fatalf("distance of %v to itself is not 0", a)
		}
	}
}

func TestSampleMouseScalesToBackingStore(t *testing.T) {
	g := fakeGeometry{rect: Rect{Left: 10, Top: 20, Width: 100, Height: 50}, bw: 200, bh: 100}
	p, ok := Sample(MouseEvent{ClientX: 60, ClientY: 45}, g)
	if !ok {
		t.Fatal("mouse event must always sample")
	}
	if p.X != 100 || p.Y != 50 {
		t.Errorf("expected (100,50), got (%v,%v)", p.X, p.Y)
	}
}

func TestSampleTouchPrefersActiveTouch(t *testing.T) {
	g := fakeGeometry{rect: Rect{Width: 100, Height: 100}, bw: 100, bh: 100}

	ev := TouchEvent{
		Touches:        []Touch{{ID: 1, ClientX: 5, ClientY: 6}},
		ChangedTouches: []Touch{{ID: 2, ClientX: 50, ClientY: 60}},
	}
	p, ok := Sample(ev, g)
	if !ok || p.X != 5 || p.Y != 6 {
		t.Errorf("expected first active touch (5,6), got %v ok=%v", p, ok)
	}

	ended := TouchEvent{ChangedTouches: []Touch{{ID: 2, ClientX: 50, ClientY: 60}}}
	p, ok = Sample(ended, g)
	if !ok || p.X != 50 || p.Y != 60 {
		t.Errorf("expected changed touch (50,60), got %v ok=%v", p, ok)
	}

	if _, ok := Sample(TouchEvent{}, g); ok {
		t.Error("empty touch event must not sample")
	}
}

func TestOptimizePointsKeepsEndpoints(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for run := 0; run < 50; run++ {
		n := 1 + r.Intn(60)
		in := make([]state.Point, n)
		x, y := 0.0, 0.0
		for i := range in {
			x += r.Float64() * 3
			y += r.Float64() * 3
			in[i] = state.Point{X: x, Y: y}
		}

		out := OptimizePoints(in, DefaultThreshold)
		if len(out) > len(in) {
			t.Fatalf("output longer than input: %d > %d", len(out), len(in))
		}
		if out[0] != in[0] {
			t.Fatalf("first point lost")
		}
		if out[len(out)-1] != in[len(in)-1] {
			t.Fatalf("last point lost")
		}
		for i := 1; i < len(out)-1; i++ {
			if d := Distance(out[i-1], out[i]); d < DefaultThreshold {
				t.Fatalf("points %d and %d only %v apart", i-1, i, d)
			}
		}
	}
}

func TestOptimizePointsDropsJitter(t *testing.T) {
	in := []state.Point{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 1, Y: 0}, {X: 3, Y: 0}, {X: 3.1, Y: 0}}
	out := OptimizePoints(in, 2)
	want := []state.Point{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3.1, Y: 0}}
	if len(out) != len(want) {
		t.Fatalf("expected %v, got %v", want, out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("point %d: expected %v, got %v", i, want[i], out[i])
		}
	}
}

func TestSmoothPoints(t *testing.T) {
	in := make([]state.Point, 10)
	for i := range in {
		y := 0.0
		if i%2 == 1 {
			y = 7
		}
		in[i] = state.Point{X: float64(i), Y: y}
	}
	w := 3
	out := SmoothPoints(in, w)
	if len(out) != len(in) {
		t.Fatalf("expected length %d, got %d", len(in), len(out))
	}
	for i := 0; i < w; i++ {
		if out[i] != in[i] {
			t.Errorf("head point %d changed", i)
		}
		if out[len(in)-1-i] != in[len(in)-1-i] {
			t.Errorf("tail point %d changed", len(in)-1-i)
		}
	}
	// window 0..6 has three odd indices: y = 21/7
	if out[3].X != 3 || out[3].Y != 3 {
		t.Errorf("expected centroid (3,3), got %v", out[3])
	}

	short := in[:3]
	same := SmoothPoints(short, w)
	for i := range short {
		if same[i] != short[i] {
			t.Errorf("short input must be returned unchanged")
		}
	}
}

func TestBufferRedecimatesWholeBuffer(t *testing.T) {
	b := NewBuffer(2)
	b.Reset(state.Point{X: 10, Y: 10})
	b.Append(state.Point{X: 10, Y: 10.5})
	if b.Len() != 2 {
		t.Fatalf("final point must be kept while it is last, got %d points", b.Len())
	}
	b.Append(state.Point{X: 20, Y: 20})
	got := b.Points()
	if len(got) != 2 || got[0] != (state.Point{X: 10, Y: 10}) || got[1] != (state.Point{X: 20, Y: 20}) {
		t.Errorf("expected [(10,10) (20,20)], got %v", got)
	}
}
