package store

import (
	"context"
	"sort"
	"sync"

	"LiveBoard/internal/state"
)

// MemoryStore keeps everything in maps. It backs tests and the "memory"
// store kind.
type MemoryStore struct {
	strokes map[string]map[string]state.StrokeChunk // board -> id -> chunk
	ids     map[string]bool
	files   map[string]FileRecord
	mu      sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strokes: make(map[string]map[string]state.StrokeChunk),
		ids:     make(map[string]bool),
		files:   make(map[string]FileRecord),
	}
}

func (s *MemoryStore) CreateStroke(ctx context.Context, c state.StrokeChunk) error {
	if err := validate(c); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ids[c.ID] {
		return nil
	}
	board, ok := s.strokes[c.BoardID]
	if !ok {
		board = make(map[string]state.StrokeChunk)
		s.strokes[c.BoardID] = board
	}
	board[c.ID] = c.Clone()
	s.ids[c.ID] = true
	return nil
}

func (s *MemoryStore) ListStrokes(ctx context.Context, boardID string) ([]state.StrokeChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	board := s.strokes[boardID]
	out := make([]state.StrokeChunk, 0, len(board))
	for _, c := range board {
		out = append(out, c.Clone())
	}
	state.SortStrokes(out)
	return out, nil
}

func (s *MemoryStore) DeleteBoard(ctx context.Context, boardID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board := s.strokes[boardID]
	for id := range board {
		delete(s.ids, id)
	}
	delete(s.strokes, boardID)
	return len(board), nil
}

func (s *MemoryStore) SaveFile(ctx context.Context, f FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[f.ID] = f
	return nil
}

func (s *MemoryStore) GetFile(ctx context.Context, id string) (FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	if !ok {
		return FileRecord{}, ErrNotFound
	}
	return f, nil
}

func (s *MemoryStore) ListFiles(ctx context.Context, uid string) ([]FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []FileRecord
	for _, f := range s.files {
		if f.UID == uid {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

func (s *MemoryStore) DeleteFile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return ErrNotFound
	}
	delete(s.files, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
