package state

import (
	"sort"
	"sync"
)

// BoardState is the local strokes list of one board view: the last remote
// snapshot plus strokes finalized here that no snapshot has carried yet.
type BoardState struct {
	remote  []StrokeChunk
	pending map[string]StrokeChunk
	mu      sync.RWMutex
}

func NewBoardState() *BoardState {
	return &BoardState{pending: make(map[string]StrokeChunk)}
}

// Replace installs a remote snapshot. Pending strokes that the snapshot
// carries are no longer pending.
func (s *BoardState) Replace(snapshot []StrokeChunk) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remote = make([]StrokeChunk, len(snapshot))
	copy(s.remote, snapshot)
	for _, c := range snapshot {
		delete(s.pending, c.ID)
	}
}

// AddLocal records a stroke finalized on this client.
func (s *BoardState) AddLocal(c StrokeChunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[c.ID] = c
}

// Settle forgets a pending stroke the store has confirmed. From then on
// only snapshots show it. It reports whether the strokes list changed.
func (s *BoardState) Settle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; !ok {
		return false
	}
	delete(s.pending, id)
	for _, c := range s.remote {
		if c.ID == id {
			return false
		}
	}
	return true
}

// Clear drops every stroke, remote and pending.
func (s *BoardState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remote = nil
	s.pending = make(map[string]StrokeChunk)
}

// Strokes returns every known stroke in render order.
func (s *BoardState) Strokes() []StrokeChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StrokeChunk, 0, len(s.remote)+len(s.pending))
	seen := make(map[string]bool, len(s.remote))
	for _, c := range s.remote {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	for id, c := range s.pending {
		if !seen[id] {
			out = append(out, c)
		}
	}
	SortStrokes(out)
	return out
}

// PendingCount is the number of local strokes no snapshot has confirmed.
func (s *BoardState) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// SortStrokes sorts in place into render order.
func SortStrokes(strokes []StrokeChunk) {
	sort.SliceStable(strokes, func(i, j int) bool {
		return Less(strokes[i], strokes[j])
	})
}
