package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	lbnet "LiveBoard/internal/net"
	"LiveBoard/internal/state"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 20
	sendBuffer     = 256
)

// peer is one websocket session. Its subscriptions are owned by readPump.
type peer struct {
	id     string
	conn   *websocket.Conn
	send   chan lbnet.Message
	server *Server

	subs map[string]func()

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// HandleWebSocket upgrades the request and serves the live query
// protocol on it.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("[WS] upgrade failed", "err", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &peer{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan lbnet.Message, sendBuffer),
		server: s,
		subs:   make(map[string]func()),
		ctx:    ctx,
		cancel: cancel,
	}
	s.peers.Add(p)

	go p.writePump()
	go p.readPump()
}

func (p *peer) close() {
	p.closeOnce.Do(func() {
		p.cancel()
		p.conn.Close()
	})
}

// enqueue never blocks; a peer that cannot keep up is disconnected.
func (p *peer) enqueue(msg lbnet.Message) {
	select {
	case <-p.ctx.Done():
		return
	default:
	}
	select {
	case p.send <- msg:
	default:
		p.server.log.Warn("[WS] send buffer full, dropping peer", "peer", p.id)
		p.close()
	}
}

func (p *peer) readPump() {
	defer func() {
		for _, cancel := range p.subs {
			cancel()
		}
		p.server.peers.Remove(p)
		p.close()
	}()

	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg lbnet.Message
		if err := p.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.server.log.Warn("[WS] read failed", "peer", p.id, "err", err)
			}
			return
		}
		p.handle(msg)
	}
}

func (p *peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.close()
	}()

	for {
		select {
		case <-p.ctx.Done():
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteJSON(msg); err != nil {
				p.server.log.Warn("[WS] write failed", "peer", p.id, "err", err)
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (p *peer) handle(msg lbnet.Message) {
	hub := p.server.hub
	switch msg.Type {
	case lbnet.TypeSubscribe:
		if msg.BoardID == "" {
			p.reply(msg, state.ErrNoBoard)
			return
		}
		if cancel, ok := p.subs[msg.BoardID]; ok {
			cancel()
		}
		board := msg.BoardID
		p.subs[board] = hub.Subscribe(board, func(strokes []state.StrokeChunk) {
			p.enqueue(lbnet.Message{Type: lbnet.TypeSnapshot, BoardID: board, Strokes: strokes})
		})
		p.reply(msg, nil)

	case lbnet.TypeUnsubscribe:
		if cancel, ok := p.subs[msg.BoardID]; ok {
			cancel()
			delete(p.subs, msg.BoardID)
		}
		p.reply(msg, nil)

	case lbnet.TypeSubmit:
		if msg.Chunk == nil {
			p.reply(msg, errors.New("submit without chunk"))
			return
		}
		p.reply(msg, hub.Submit(p.ctx, *msg.Chunk))

	case lbnet.TypeClear:
		p.reply(msg, hub.ClearAll(p.ctx, msg.BoardID))

	default:
		p.server.log.Warn("[WS] unknown message type", "peer", p.id, "type", msg.Type)
		p.reply(msg, errors.New("unknown message type "+msg.Type))
	}
}

// reply acknowledges a request, or reports err for it.
func (p *peer) reply(req lbnet.Message, err error) {
	if err != nil {
		p.server.log.Warn("[WS] request failed", "peer", p.id, "type", req.Type, "err", err)
		p.enqueue(lbnet.Message{Type: lbnet.TypeError, RequestID: req.RequestID, BoardID: req.BoardID, Error: err.Error()})
		return
	}
	p.enqueue(lbnet.Message{Type: lbnet.TypeAck, RequestID: req.RequestID, BoardID: req.BoardID})
}
