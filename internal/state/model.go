package state

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNoID       = errors.New("stroke has no id")
	ErrNoBoard    = errors.New("stroke has no board id")
	ErrNoPoints   = errors.New("stroke has no points")
	ErrIncomplete = errors.New("stroke is not complete")
)

// Point is a canvas-space coordinate in drawing units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Style is the pen a stroke is drawn with.
type Style struct {
	Color     string  `json:"color"`
	Thickness float64 `json:"size"`
}

// DefaultStyle is the pen a fresh board starts with.
var DefaultStyle = Style{Color: "#000000", Thickness: 3}

// StrokeChunk is one drawing gesture, or one persisted piece of it.
// The JSON field names are the wire names of the shared stroke store.
type StrokeChunk struct {
	ID         string  `json:"id"`
	BoardID    string  `json:"boardId"`
	AuthorID   string  `json:"uid"`
	Timestamp  int64   `json:"timestamp"`
	Points     []Point `json:"points"`
	Color      string  `json:"color"`
	Thickness  float64 `json:"size"`
	ChunkIndex int     `json:"chunkIndex"`
	Complete   bool    `json:"strokeComplete"`
}

// NewStrokeChunk starts an in-progress stroke at p. The id and timestamp
// are assigned here and never change.
func NewStrokeChunk(boardID, authorID string, style Style, p Point) *StrokeChunk {
	return &StrokeChunk{
		ID:        uuid.NewString(),
		BoardID:   boardID,
		AuthorID:  authorID,
		Timestamp: NextTimestamp(),
		Points:    []Point{p},
		Color:     style.Color,
		Thickness: style.Thickness,
	}
}

// Style returns the pen the chunk was drawn with.
func (c StrokeChunk) Style() Style {
	return Style{Color: c.Color, Thickness: c.Thickness}
}

// Validate reports whether the chunk may be persisted.
func (c StrokeChunk) Validate() error {
	switch {
	case c.ID == "":
		return ErrNoID
	case c.BoardID == "":
		return ErrNoBoard
	case len(c.Points) == 0:
		return fmt.Errorf("stroke %s: %w", c.ID, ErrNoPoints)
	case !c.Complete:
		return fmt.Errorf("stroke %s: %w", c.ID, ErrIncomplete)
	}
	return nil
}

// Clone returns a deep copy, so the caller can keep mutating its points.
func (c StrokeChunk) Clone() StrokeChunk {
	pts := make([]Point, len(c.Points))
	copy(pts, c.Points)
	c.Points = pts
	return c
}

// Less orders chunks by timestamp, then id.
func Less(a, b StrokeChunk) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.ID < b.ID
}
