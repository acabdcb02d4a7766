// Package board is the controller of one board view. It turns input events
// into strokes, keeps the renderer's layers current and exchanges strokes
// with the shared store.
package board

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"LiveBoard/internal/render"
	"LiveBoard/internal/state"
	"LiveBoard/internal/stroke"
)

// Syncer is the shared stroke store as seen by a board.
type Syncer interface {
	Submit(ctx context.Context, c state.StrokeChunk) error
	Subscribe(boardID string, fn func([]state.StrokeChunk)) (cancel func())
	ClearAll(ctx context.Context, boardID string) error
}

const DefaultFrameInterval = 16 * time.Millisecond

type Options struct {
	BoardID  string
	AuthorID string

	Threshold     float64
	SmoothWindow  int
	FrameInterval time.Duration
	// Ratio is the device pixel ratio of the canvas.
	Ratio float64

	// OnError receives failed submissions and clears.
	OnError func(error)
	// OnPaint receives a copy of the visible layer after every change.
	OnPaint func(image.Image)
	Logger  *slog.Logger
}

// Board owns the in-progress stroke, the renderer and the subscription of
// one board view. All of them are touched only by the goroutine in Run.
type Board struct {
	opts   Options
	syncer Syncer
	log    *slog.Logger

	state    *state.BoardState
	renderer *render.Renderer
	sizer    *render.Sizer
	ratio    float64

	style   state.Style
	buf     *stroke.Buffer
	current *state.StrokeChunk
	dirty   bool
	ticker  *time.Ticker

	// strokes at or before clearMark are stale while a clear is in flight
	clearing  int
	clearMark int64

	events chan func()
	outbox *queue
	box    *mailbox

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	started   bool
	mu        sync.Mutex
}

func New(syncer Syncer, opts Options) *Board {
	if opts.BoardID == "" {
		opts.BoardID = "default"
	}
	if opts.AuthorID == "" {
		opts.AuthorID = state.SiteID()
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.Ratio <= 0 {
		opts.Ratio = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	b := &Board{
		opts:   opts,
		syncer: syncer,
		log:    opts.Logger.With("board", opts.BoardID),
		state:  state.NewBoardState(),
		style:  state.DefaultStyle,
		buf:    stroke.NewBuffer(opts.Threshold),
		events: make(chan func(), 256),
		outbox: newQueue(),
		box:    newMailbox(),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	b.setRatio(opts.Ratio)
	return b
}

func (b *Board) setRatio(ratio float64) {
	b.ratio = ratio
	b.renderer = render.NewRenderer(render.NewLayer(0, 0, ratio), render.NewLayer(0, 0, ratio))
	b.sizer = render.NewSizer(b.renderer)
}

// ID is the board id.
func (b *Board) ID() string {
	return b.opts.BoardID
}

// Run subscribes to the board and processes events until ctx is done or
// Close is called.
func (b *Board) Run(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = true
	b.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var senders sync.WaitGroup
	senders.Add(1)
	go func() {
		defer senders.Done()
		b.send(ctx)
	}()

	unsubscribe := b.syncer.Subscribe(b.opts.BoardID, b.box.put)
	b.log.Info("[BOARD] running", "author", b.opts.AuthorID)

	defer func() {
		b.stopFrames()
		unsubscribe()
		b.box.close()
		b.closeOnce.Do(func() { close(b.quit) })
		close(b.done)
		cancel()
		senders.Wait()
		b.log.Info("[BOARD] stopped")
	}()

	for {
		var tick <-chan time.Time
		if b.ticker != nil {
			tick = b.ticker.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.quit:
			return nil
		case fn := <-b.events:
			fn()
		case <-b.box.notify:
			if snap, ok := b.box.take(); ok {
				b.applySnapshot(snap)
			}
		case <-tick:
			b.frame()
		}
	}
}

// Close stops Run. Events posted afterwards are dropped.
func (b *Board) Close() {
	b.closeOnce.Do(func() { close(b.quit) })
}

// post queues fn for the loop; it is dropped once the board is closed.
func (b *Board) post(fn func()) {
	select {
	case <-b.quit:
		return
	default:
	}
	select {
	case b.events <- fn:
	case <-b.quit:
	case <-b.done:
	}
}

// Sync waits until every event posted before it has been handled. It
// returns false when the board stopped first.
func (b *Board) Sync() bool {
	handled := make(chan struct{})
	b.post(func() { close(handled) })
	select {
	case <-handled:
		return true
	case <-b.done:
		return false
	case <-b.quit:
		return false
	}
}

// Strokes is the local strokes list in render order. Safe from any
// goroutine.
func (b *Board) Strokes() []state.StrokeChunk {
	return b.state.Strokes()
}

// Pending counts local strokes the store has not confirmed yet.
func (b *Board) Pending() int {
	return b.state.PendingCount()
}

func (b *Board) SetStyle(style state.Style) {
	b.post(func() {
		if style.Thickness <= 0 {
			style.Thickness = state.DefaultStyle.Thickness
		}
		if style.Color == "" {
			style.Color = state.DefaultStyle.Color
		}
		b.style = style
	})
}

// Resize fits the canvas to the layout. ratio <= 0 keeps the current
// device pixel ratio.
func (b *Board) Resize(parent, own render.Box, ratio float64) {
	b.post(func() {
		if ratio > 0 && ratio != b.ratio {
			b.setRatio(ratio)
		}
		if !b.sizer.Fit(parent, own) {
			return
		}
		b.recompose()
	})
}

// Clear drops every stroke locally and deletes the board in the store.
func (b *Board) Clear() {
	b.post(func() {
		b.stopFrames()
		b.current = nil
		b.state.Clear()
		b.renderer.Clear()
		b.paint()

		b.clearing++
		b.clearMark = state.NextTimestamp()
		b.enqueue(func(ctx context.Context) {
			err := b.syncer.ClearAll(ctx, b.opts.BoardID)
			if err != nil {
				b.fail("[SYNC] clear failed", err)
			}
			b.post(func() { b.clearing-- })
		})
		b.log.Info("[BOARD] cleared")
	})
}

func (b *Board) applySnapshot(snap []state.StrokeChunk) {
	if b.clearing > 0 {
		fresh := make([]state.StrokeChunk, 0, len(snap))
		for _, c := range snap {
			if c.Timestamp > b.clearMark {
				fresh = append(fresh, c)
			}
		}
		snap = fresh
	}
	b.state.Replace(snap)
	b.log.Debug("[SYNC] snapshot", "strokes", len(snap), "pending", b.state.PendingCount())
	b.recompose()
}

// settle drops a submitted stroke from the pending set. The snapshot
// carrying it reached the mailbox before Submit returned, so it is applied
// first; a stroke missing from it was cleared elsewhere.
func (b *Board) settle(id string) {
	if snap, ok := b.box.take(); ok {
		b.applySnapshot(snap)
	}
	if b.state.Settle(id) {
		b.recompose()
	}
}

// recompose rebuilds both layers from the strokes list and puts the
// in-progress stroke back on top.
func (b *Board) recompose() {
	b.renderer.Recompose(b.state.Strokes())
	if b.current != nil {
		b.renderer.Overlay(b.buf.Points(), b.style)
	}
	b.paint()
}

func (b *Board) paint() {
	if b.opts.OnPaint == nil || b.renderer.Visible().Degenerate() {
		return
	}
	b.opts.OnPaint(b.renderer.Image())
}

func (b *Board) fail(msg string, err error) {
	b.log.Warn(msg, "err", err)
	if b.opts.OnError != nil {
		b.opts.OnError(err)
	}
}
