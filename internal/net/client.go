package net

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"LiveBoard/internal/state"
)

var (
	ErrNotConnected = errors.New("not connected to board server")
	ErrRemote       = errors.New("board server refused")
)

const (
	DefaultMinBackoff     = 250 * time.Millisecond
	DefaultMaxBackoff     = 10 * time.Second
	DefaultRequestTimeout = 10 * time.Second
)

type ClientOptions struct {
	// URL is the server's websocket endpoint, ws://host:port/ws.
	URL            string
	MinBackoff     time.Duration
	MaxBackoff     time.Duration
	RequestTimeout time.Duration
	// OnStatus is told about every connect and disconnect.
	OnStatus func(connected bool)
	Logger   *slog.Logger
}

// Client is the websocket side of the live query. It reconnects with
// capped exponential backoff and resubscribes every board that still has
// listeners.
type Client struct {
	opts ClientOptions
	log  *slog.Logger

	mu      sync.Mutex
	send    chan Message
	down    <-chan struct{}
	pending map[string]chan error
	subs    map[string]map[uint64]*listener
	nextSub uint64
}

type listener struct {
	fn        func([]state.StrokeChunk)
	cancelled bool
	mu        sync.Mutex
}

func NewClient(opts ClientOptions) *Client {
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = DefaultMinBackoff
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = max(DefaultMaxBackoff, opts.MinBackoff)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		opts:    opts,
		log:     opts.Logger,
		pending: make(map[string]chan error),
		subs:    make(map[string]map[uint64]*listener),
	}
}

// Run keeps a connection to the server until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	backoff := c.opts.MinBackoff
	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.opts.URL, nil)
		if err == nil {
			c.log.Info("[SYNC] connected", "url", c.opts.URL)
			backoff = c.opts.MinBackoff
			err = c.session(ctx, conn)
			c.log.Warn("[SYNC] disconnected", "err", err)
		} else {
			c.log.Debug("[SYNC] dial failed", "url", c.opts.URL, "err", err, "retry", backoff)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.opts.MaxBackoff)
	}
}

// Connected reports whether a session is up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send != nil
}

func (c *Client) session(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	send := make(chan Message, 64)
	c.mu.Lock()
	c.send, c.down = send, ctx.Done()
	boards := make([]string, 0, len(c.subs))
	for b := range c.subs {
		boards = append(boards, b)
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.send, c.down = nil, nil
		pending := c.pending
		c.pending = make(map[string]chan error)
		c.mu.Unlock()
		for _, ch := range pending {
			ch <- ErrNotConnected
		}
		conn.Close()
		c.status(false)
	}()

	go c.writePump(ctx, cancel, conn, send)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for _, b := range boards {
		c.enqueue(ctx, send, Message{Type: TypeSubscribe, BoardID: b})
	}
	c.status(true)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		c.dispatch(msg)
	}
}

func (c *Client) writePump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, send <-chan Message) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(c.opts.RequestTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				c.log.Warn("[SYNC] write failed", "type", msg.Type, "err", err)
				return
			}
		}
	}
}

func (c *Client) enqueue(ctx context.Context, send chan<- Message, msg Message) bool {
	select {
	case send <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) status(up bool) {
	if c.opts.OnStatus != nil {
		c.opts.OnStatus(up)
	}
}

func (c *Client) dispatch(msg Message) {
	switch msg.Type {
	case TypeSnapshot:
		c.mu.Lock()
		targets := make([]*listener, 0, len(c.subs[msg.BoardID]))
		for _, l := range c.subs[msg.BoardID] {
			targets = append(targets, l)
		}
		c.mu.Unlock()
		for _, l := range targets {
			l.deliver(msg.Strokes)
		}

	case TypeAck, TypeError:
		if msg.RequestID == "" {
			if msg.Type == TypeError {
				c.log.Warn("[SYNC] server error", "board", msg.BoardID, "err", msg.Error)
			}
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[msg.RequestID]
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()
		if !ok {
			return
		}
		if msg.Type == TypeError {
			ch <- fmt.Errorf("%w: %s", ErrRemote, msg.Error)
			return
		}
		ch <- nil

	default:
		c.log.Warn("[SYNC] unknown message type", "type", msg.Type)
	}
}

func (l *listener) deliver(strokes []state.StrokeChunk) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.cancelled {
		l.fn(strokes)
	}
}

// request sends msg and waits for the server's answer to it.
func (c *Client) request(ctx context.Context, msg Message) error {
	msg.RequestID = uuid.NewString()
	answer := make(chan error, 1)

	c.mu.Lock()
	send, down := c.send, c.down
	if send == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.pending[msg.RequestID] = answer
	c.mu.Unlock()

	forget := func() {
		c.mu.Lock()
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()
	}

	timer := time.NewTimer(c.opts.RequestTimeout)
	defer timer.Stop()

	select {
	case send <- msg:
	case <-down:
		forget()
		return ErrNotConnected
	case <-ctx.Done():
		forget()
		return ctx.Err()
	case <-timer.C:
		forget()
		return fmt.Errorf("%s: %w", msg.Type, context.DeadlineExceeded)
	}

	select {
	case err := <-answer:
		return err
	case <-ctx.Done():
		forget()
		return ctx.Err()
	case <-timer.C:
		forget()
		return fmt.Errorf("%s: %w", msg.Type, context.DeadlineExceeded)
	}
}

// Submit persists a finalized chunk.
func (c *Client) Submit(ctx context.Context, chunk state.StrokeChunk) error {
	return c.request(ctx, Message{Type: TypeSubmit, BoardID: chunk.BoardID, Chunk: &chunk})
}

// ClearAll deletes every stroke of the board on the server.
func (c *Client) ClearAll(ctx context.Context, boardID string) error {
	return c.request(ctx, Message{Type: TypeClear, BoardID: boardID})
}

// Subscribe registers fn for the board's snapshots. The server is asked
// for the board when the first listener arrives, and again after every
// reconnect.
func (c *Client) Subscribe(boardID string, fn func([]state.StrokeChunk)) (cancel func()) {
	l := &listener{fn: fn}

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	board, ok := c.subs[boardID]
	if !ok {
		board = make(map[uint64]*listener)
		c.subs[boardID] = board
	}
	board[id] = l
	first := len(board) == 1
	c.mu.Unlock()

	if first {
		go c.notify(Message{Type: TypeSubscribe, BoardID: boardID})
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.cancelled = true
			l.mu.Unlock()

			c.mu.Lock()
			delete(c.subs[boardID], id)
			last := len(c.subs[boardID]) == 0
			if last {
				delete(c.subs, boardID)
			}
			c.mu.Unlock()

			if last {
				go c.notify(Message{Type: TypeUnsubscribe, BoardID: boardID})
			}
		})
	}
}

// notify sends a subscription change. While offline it is skipped; the
// next session resubscribes from the listener table.
func (c *Client) notify(msg Message) {
	err := c.request(context.Background(), msg)
	if err != nil && !errors.Is(err, ErrNotConnected) {
		c.log.Warn("[SYNC] subscription change failed", "type", msg.Type, "board", msg.BoardID, "err", err)
	}
}
