package board

import (
	"context"
	"sync"

	"LiveBoard/internal/state"
)

// mailbox holds the latest remote snapshot. put never blocks, so the
// store's callback goroutine is never held up by the board loop. Every
// snapshot is a full ordered set, so older ones can be dropped.
type mailbox struct {
	snap   []state.StrokeChunk
	full   bool
	closed bool
	mu     sync.Mutex
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) put(snap []state.StrokeChunk) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.snap = snap
	m.full = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *mailbox) take() ([]state.StrokeChunk, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.full {
		return nil, false
	}
	snap := m.snap
	m.snap, m.full = nil, false
	return snap, true
}

// close drops every later put.
func (m *mailbox) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.snap, m.full = nil, false
}

// queue is the unbounded FIFO of store calls. One sender drains it, so a
// clear is never overtaken by a stroke drawn after it.
type queue struct {
	ops    []func(context.Context)
	mu     sync.Mutex
	notify chan struct{}
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

func (q *queue) push(op func(context.Context)) {
	q.mu.Lock()
	q.ops = append(q.ops, op)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *queue) drain() []func(context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ops := q.ops
	q.ops = nil
	return ops
}

func (b *Board) enqueue(op func(context.Context)) {
	b.outbox.push(op)
}

// send runs queued store calls in order until ctx is done.
func (b *Board) send(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n := len(b.outbox.drain()); n > 0 {
				b.log.Warn("[SYNC] dropped unsent operations", "count", n)
			}
			return
		case <-b.outbox.notify:
			for _, op := range b.outbox.drain() {
				if ctx.Err() != nil {
					break
				}
				op(ctx)
			}
		}
	}
}
