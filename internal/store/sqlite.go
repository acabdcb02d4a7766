package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"LiveBoard/internal/state"
)

// SQLiteStore keeps strokes and file records in one SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer keeps sqlite from returning SQLITE_BUSY under the hub
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS strokes (
		id TEXT PRIMARY KEY,
		board_id TEXT NOT NULL,
		uid TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		points TEXT NOT NULL,
		color TEXT NOT NULL,
		size REAL NOT NULL,
		chunk_index INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_strokes_board_ts ON strokes(board_id, timestamp, id);

	CREATE TABLE IF NOT EXISTS files (
		id TEXT PRIMARY KEY,
		uid TEXT NOT NULL,
		filename TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		mime_type TEXT NOT NULL,
		path TEXT NOT NULL,
		uploaded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_files_uid ON files(uid, uploaded_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateStroke(ctx context.Context, c state.StrokeChunk) error {
	if err := validate(c); err != nil {
		return err
	}
	points, err := json.Marshal(c.Points)
	if err != nil {
		return fmt.Errorf("failed to serialize points: %w", err)
	}

	query := `
	INSERT INTO strokes (id, board_id, uid, timestamp, points, color, size, chunk_index)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		c.ID,
		c.BoardID,
		c.AuthorID,
		c.Timestamp,
		string(points),
		c.Color,
		c.Thickness,
		c.ChunkIndex,
	)
	if err != nil {
		return fmt.Errorf("failed to save stroke: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListStrokes(ctx context.Context, boardID string) ([]state.StrokeChunk, error) {
	query := `
	SELECT id, board_id, uid, timestamp, points, color, size, chunk_index
	FROM strokes
	WHERE board_id = ?
	ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query strokes: %w", err)
	}
	defer rows.Close()

	out := []state.StrokeChunk{}
	for rows.Next() {
		var c state.StrokeChunk
		var points string
		err := rows.Scan(
			&c.ID,
			&c.BoardID,
			&c.AuthorID,
			&c.Timestamp,
			&points,
			&c.Color,
			&c.Thickness,
			&c.ChunkIndex,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stroke: %w", err)
		}
		if err := json.Unmarshal([]byte(points), &c.Points); err != nil {
			return nil, fmt.Errorf("failed to deserialize points of %s: %w", c.ID, err)
		}
		c.Complete = true
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteBoard(ctx context.Context, boardID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM strokes WHERE board_id = ?`, boardID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete strokes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted strokes: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) SaveFile(ctx context.Context, f FileRecord) error {
	query := `
	INSERT INTO files (id, uid, filename, file_size, mime_type, path, uploaded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		filename = excluded.filename,
		file_size = excluded.file_size,
		mime_type = excluded.mime_type,
		path = excluded.path
	`
	_, err := s.db.ExecContext(ctx, query, f.ID, f.UID, f.Name, f.Size, f.Type, f.Path, f.UploadedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetFile(ctx context.Context, id string) (FileRecord, error) {
	query := `
	SELECT id, uid, filename, file_size, mime_type, path, uploaded_at
	FROM files
	WHERE id = ?
	`
	var f FileRecord
	err := s.db.QueryRowContext(ctx, query, id).Scan(&f.ID, &f.UID, &f.Name, &f.Size, &f.Type, &f.Path, &f.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return FileRecord{}, ErrNotFound
	}
	if err != nil {
		return FileRecord{}, fmt.Errorf("failed to get file: %w", err)
	}
	return f, nil
}

func (s *SQLiteStore) ListFiles(ctx context.Context, uid string) ([]FileRecord, error) {
	query := `
	SELECT id, uid, filename, file_size, mime_type, path, uploaded_at
	FROM files
	WHERE uid = ?
	ORDER BY uploaded_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.ID, &f.UID, &f.Name, &f.Size, &f.Type, &f.Path, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteFile(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
