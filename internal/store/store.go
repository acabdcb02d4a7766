// Package store persists strokes and uploaded file metadata.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"LiveBoard/internal/state"
)

var ErrNotFound = errors.New("not found")

// Strokes is the document-per-stroke collection, keyed by board.
type Strokes interface {
	// CreateStroke persists a complete chunk. Creating an id that already
	// exists is a no-op.
	CreateStroke(ctx context.Context, c state.StrokeChunk) error
	// ListStrokes returns a board's strokes by timestamp ascending.
	ListStrokes(ctx context.Context, boardID string) ([]state.StrokeChunk, error)
	// DeleteBoard removes every stroke of a board and returns how many.
	DeleteBoard(ctx context.Context, boardID string) (int, error)
}

// FileRecord is the metadata of one upload.
type FileRecord struct {
	ID         string    `json:"id"`
	UID        string    `json:"uid"`
	Name       string    `json:"filename"`
	Size       int64     `json:"file_size"`
	Type       string    `json:"mime_type"`
	Path       string    `json:"-"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Files indexes uploads.
type Files interface {
	SaveFile(ctx context.Context, f FileRecord) error
	GetFile(ctx context.Context, id string) (FileRecord, error)
	// ListFiles returns a user's uploads, newest first.
	ListFiles(ctx context.Context, uid string) ([]FileRecord, error)
	DeleteFile(ctx context.Context, id string) error
}

type Store interface {
	Strokes
	Files
	Close() error
}

// Open returns the backend named by kind: "memory", "sqlite" or "bolt".
func Open(kind, path string) (Store, error) {
	switch kind {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path)
	case "bolt":
		return NewBoltStore(path)
	}
	return nil, fmt.Errorf("unknown store kind %q", kind)
}

func validate(c state.StrokeChunk) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid stroke: %w", err)
	}
	return nil
}
