package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"LiveBoard/internal/state"
)

var (
	bucketBoards   = []byte("boards")
	bucketStrokeID = []byte("stroke_ids")
	bucketFiles    = []byte("files")
)

// BoltStore keeps one nested bucket per board. Stroke keys are the
// big-endian timestamp followed by the id, so a cursor walks them in
// render order.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketBoards, bucketStrokeID, bucketFiles} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func strokeKey(c state.StrokeChunk) []byte {
	key := make([]byte, 8+len(c.ID))
	binary.BigEndian.PutUint64(key, uint64(c.Timestamp))
	copy(key[8:], c.ID)
	return key
}

func (s *BoltStore) CreateStroke(ctx context.Context, c state.StrokeChunk) error {
	if err := validate(c); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		ids := tx.Bucket(bucketStrokeID)
		if ids.Get([]byte(c.ID)) != nil {
			return nil
		}
		b, err := tx.Bucket(bucketBoards).CreateBucketIfNotExists([]byte(c.BoardID))
		if err != nil {
			return err
		}
		key := strokeKey(c)
		if err := b.Put(key, data); err != nil {
			return err
		}
		return ids.Put([]byte(c.ID), []byte(c.BoardID))
	})
}

func (s *BoltStore) ListStrokes(ctx context.Context, boardID string) ([]state.StrokeChunk, error) {
	out := []state.StrokeChunk{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketBoards).Bucket([]byte(boardID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var c state.StrokeChunk
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("stroke %x: %w", k, err)
			}
			out = append(out, c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BoltStore) DeleteBoard(ctx context.Context, boardID string) (int, error) {
	n := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		boards := tx.Bucket(bucketBoards)
		b := boards.Bucket([]byte(boardID))
		if b == nil {
			return nil
		}
		ids := tx.Bucket(bucketStrokeID)
		err := b.ForEach(func(k, v []byte) error {
			n++
			return ids.Delete(k[8:])
		})
		if err != nil {
			return err
		}
		return boards.DeleteBucket([]byte(boardID))
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *BoltStore) SaveFile(ctx context.Context, f FileRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(boltFile(f))
		if err != nil {
			return err
		}
		return tx.Bucket(bucketFiles).Put([]byte(f.ID), data)
	})
}

func (s *BoltStore) GetFile(ctx context.Context, id string) (FileRecord, error) {
	var f boltFile
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFiles).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &f)
	})
	if err != nil {
		return FileRecord{}, err
	}
	return FileRecord(f), nil
}

func (s *BoltStore) ListFiles(ctx context.Context, uid string) ([]FileRecord, error) {
	var out []FileRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).ForEach(func(k, v []byte) error {
			var f boltFile
			if err := json.Unmarshal(v, &f); err != nil {
				return err
			}
			if f.UID == uid {
				out = append(out, FileRecord(f))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

func (s *BoltStore) DeleteFile(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketFiles)
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// boltFile is FileRecord with the path kept in the stored JSON.
type boltFile struct {
	ID         string    `json:"id"`
	UID        string    `json:"uid"`
	Name       string    `json:"filename"`
	Size       int64     `json:"file_size"`
	Type       string    `json:"mime_type"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploaded_at"`
}
