package server

import (
	"log/slog"
	"sync"
)

// PeerManager tracks the websocket sessions connected to the server.
type PeerManager struct {
	peers map[string]*peer
	mu    sync.RWMutex
	log   *slog.Logger
}

func NewPeerManager(log *slog.Logger) *PeerManager {
	if log == nil {
		log = slog.Default()
	}
	return &PeerManager{
		peers: make(map[string]*peer),
		log:   log,
	}
}

// Add registers a session that just connected.
func (pm *PeerManager) Add(p *peer) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.peers[p.id] = p
	pm.log.Info("[PEER] connected", "peer", p.id, "remote", p.conn.RemoteAddr().String())
}

func (pm *PeerManager) Remove(p *peer) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if _, ok := pm.peers[p.id]; !ok {
		return
	}
	delete(pm.peers, p.id)
	pm.log.Info("[PEER] disconnected", "peer", p.id)
}

// Count is the number of connected sessions.
func (pm *PeerManager) Count() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.peers)
}

// CloseAll disconnects every session.
func (pm *PeerManager) CloseAll() {
	pm.mu.RLock()
	peers := make([]*peer, 0, len(pm.peers))
	for _, p := range pm.peers {
		peers = append(peers, p)
	}
	pm.mu.RUnlock()

	for _, p := range peers {
		p.close()
	}
}
