package board

import (
	"context"
	"time"

	"LiveBoard/internal/state"
	"LiveBoard/internal/stroke"
)

func (b *Board) PointerDown(ev stroke.MouseEvent)  { b.post(func() { b.begin(ev) }) }
func (b *Board) PointerMove(ev stroke.MouseEvent)  { b.post(func() { b.extend(ev) }) }
func (b *Board) PointerUp(ev stroke.MouseEvent)    { b.post(b.finish) }
func (b *Board) PointerLeave(ev stroke.MouseEvent) { b.post(b.finish) }

// TouchStart begins a stroke at the first touch. Events without touches
// are ignored.
func (b *Board) TouchStart(ev stroke.TouchEvent) {
	if !ev.HasTouch() {
		return
	}
	b.post(func() { b.begin(ev) })
}

func (b *Board) TouchMove(ev stroke.TouchEvent) {
	if !ev.HasTouch() {
		return
	}
	b.post(func() { b.extend(ev) })
}

func (b *Board) TouchEnd(ev stroke.TouchEvent)    { b.post(b.finish) }
func (b *Board) TouchCancel(ev stroke.TouchEvent) { b.post(b.finish) }

// sample maps ev to drawing units.
func (b *Board) sample(ev stroke.Event) (state.Point, bool) {
	p, ok := stroke.Sample(ev, b.sizer)
	if !ok {
		return p, false
	}
	p.X /= b.ratio
	p.Y /= b.ratio
	return p, true
}

func (b *Board) begin(ev stroke.Event) {
	p, ok := b.sample(ev)
	if !ok {
		return
	}
	if b.current != nil {
		b.finish()
	}
	b.current = state.NewStrokeChunk(b.opts.BoardID, b.opts.AuthorID, b.style, p)
	b.buf.Reset(p)
	b.dirty = true
	b.startFrames()
}

func (b *Board) extend(ev stroke.Event) {
	if b.current == nil {
		return
	}
	p, ok := b.sample(ev)
	if !ok {
		return
	}
	b.buf.Append(p)
	b.dirty = true
}

// finish completes the stroke in progress, keeps it locally and hands it
// to the store.
func (b *Board) finish() {
	if b.current == nil {
		return
	}
	b.stopFrames()

	c := *b.current
	b.current = nil
	c.Points = append([]state.Point(nil), b.buf.Points()...)
	if b.opts.SmoothWindow > 0 {
		c.Points = stroke.SmoothPoints(c.Points, b.opts.SmoothWindow)
	}
	c.Complete = true

	b.state.AddLocal(c)
	b.recompose()
	b.log.Debug("[BOARD] stroke finished", "id", c.ID, "points", len(c.Points))

	b.enqueue(func(ctx context.Context) {
		if err := b.syncer.Submit(ctx, c); err != nil {
			b.fail("[SYNC] submit failed", err)
			return
		}
		b.post(func() { b.settle(c.ID) })
	})
}

// frame redraws the overlay when the buffer changed since the last tick.
func (b *Board) frame() {
	if b.current == nil || !b.dirty {
		return
	}
	b.dirty = false
	b.renderer.Overlay(b.buf.Points(), b.style)
	b.paint()
}

func (b *Board) startFrames() {
	if b.ticker == nil {
		b.ticker = time.NewTicker(b.opts.FrameInterval)
	}
}

func (b *Board) stopFrames() {
	if b.ticker != nil {
		b.ticker.Stop()
		b.ticker = nil
	}
	b.dirty = false
}

// drawing reports whether the frame ticker runs. Only the loop may call it.
func (b *Board) drawing() bool {
	return b.ticker != nil
}
