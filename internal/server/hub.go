// Package server hosts the shared stroke store: a live-query hub, its
// websocket endpoint and the REST and upload API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"LiveBoard/internal/state"
	"LiveBoard/internal/store"
)

// Hub turns a stroke store into a live query. Every change of a board is
// published to its subscribers as the full ordered stroke list.
type Hub struct {
	store store.Strokes
	log   *slog.Logger

	subs map[string]map[uint64]*subscription
	next uint64
	mu   sync.Mutex

	// pubMu orders publications, so a subscriber sees snapshots in store
	// order and its initial snapshot first.
	pubMu sync.Mutex
}

type subscription struct {
	fn        func([]state.StrokeChunk)
	cancelled bool
	mu        sync.Mutex
}

func (s *subscription) deliver(strokes []state.StrokeChunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cancelled {
		s.fn(strokes)
	}
}

func NewHub(st store.Strokes, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		store: st,
		log:   log,
		subs:  make(map[string]map[uint64]*subscription),
	}
}

// Submit persists a finalized chunk and publishes the board.
func (h *Hub) Submit(ctx context.Context, c state.StrokeChunk) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := h.store.CreateStroke(ctx, c); err != nil {
		return fmt.Errorf("submit %s: %w", c.ID, err)
	}
	h.log.Debug("[HUB] stroke stored", "board", c.BoardID, "id", c.ID, "points", len(c.Points))
	h.publish(ctx, c.BoardID)
	return nil
}

// ClearAll deletes every stroke of the board.
func (h *Hub) ClearAll(ctx context.Context, boardID string) error {
	_, err := h.DeleteBoard(ctx, boardID)
	return err
}

// DeleteBoard deletes every stroke of the board and returns how many.
func (h *Hub) DeleteBoard(ctx context.Context, boardID string) (int, error) {
	if boardID == "" {
		return 0, state.ErrNoBoard
	}
	n, err := h.store.DeleteBoard(ctx, boardID)
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", boardID, err)
	}
	h.log.Info("[HUB] board cleared", "board", boardID, "deleted", n)
	h.publish(ctx, boardID)
	return n, nil
}

// Strokes is the board's ordered stroke list.
func (h *Hub) Strokes(ctx context.Context, boardID string) ([]state.StrokeChunk, error) {
	return h.store.ListStrokes(ctx, boardID)
}

// Subscribe delivers the board's strokes to fn now and after every change.
// fn must not block and must not call back into the hub. Callbacks stop
// once cancel returns.
func (h *Hub) Subscribe(boardID string, fn func([]state.StrokeChunk)) (cancel func()) {
	sub := &subscription{fn: fn}

	h.pubMu.Lock()
	h.mu.Lock()
	id := h.next
	h.next++
	board, ok := h.subs[boardID]
	if !ok {
		board = make(map[uint64]*subscription)
		h.subs[boardID] = board
	}
	board[id] = sub
	h.mu.Unlock()

	strokes, err := h.store.ListStrokes(context.Background(), boardID)
	if err != nil {
		h.log.Warn("[HUB] initial snapshot failed", "board", boardID, "err", err)
	} else {
		sub.deliver(strokes)
	}
	h.pubMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.mu.Lock()
			sub.cancelled = true
			sub.mu.Unlock()

			h.mu.Lock()
			delete(h.subs[boardID], id)
			if len(h.subs[boardID]) == 0 {
				delete(h.subs, boardID)
			}
			h.mu.Unlock()
		})
	}
}

// Subscribers counts live subscriptions of a board.
func (h *Hub) Subscribers(boardID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[boardID])
}

func (h *Hub) publish(ctx context.Context, boardID string) {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	h.mu.Lock()
	targets := make([]*subscription, 0, len(h.subs[boardID]))
	for _, sub := range h.subs[boardID] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()
	if len(targets) == 0 {
		return
	}

	// a cancelled request context must not stop the broadcast
	strokes, err := h.store.ListStrokes(context.WithoutCancel(ctx), boardID)
	if err != nil {
		h.log.Warn("[HUB] publish failed", "board", boardID, "err", err)
		return
	}
	for _, sub := range targets {
		sub.deliver(strokes)
	}
}

// IsClientError reports whether err was caused by a bad request rather
// than the store.
func IsClientError(err error) bool {
	return errors.Is(err, state.ErrNoID) ||
		errors.Is(err, state.ErrNoBoard) ||
		errors.Is(err, state.ErrNoPoints) ||
		errors.Is(err, state.ErrIncomplete)
}
