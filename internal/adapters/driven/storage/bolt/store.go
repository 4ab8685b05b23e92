// Package bolt persists vector index snapshots as bbolt files.
//
// A file holds a meta bucket with the JSON-encoded index info and a chunks
// bucket keyed by big-endian position, so a cursor walk returns chunks in
// insertion order.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

var (
	bucketMeta   = []byte("meta")
	bucketChunks = []byte("chunks")
	keyInfo      = []byte("info")
)

// openTimeout bounds the wait for a file lock held by another process.
const openTimeout = 5 * time.Second

// chunkRecord is the stored form of a chunk.
type chunkRecord struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	Page       int    `json:"page,omitempty"`
	Offset     int    `json:"offset"`
	Content    string `json:"content"`

	// Embedding is little-endian float32, base64 in the JSON value.
	Embedding []byte `json:"embedding"`
}

// IndexStore reads and writes index snapshots as bbolt files.
type IndexStore struct{}

// NewIndexStore creates a bbolt index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// Format returns domain.IndexFormatBolt.
func (s *IndexStore) Format() domain.IndexFormat {
	return domain.IndexFormatBolt
}

// Save writes snapshot to a temporary file and renames it over path.
func (s *IndexStore) Save(ctx context.Context, path string, snapshot *domain.IndexSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := writeFile(ctx, tmp, snapshot); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publishing index: %w", err)
	}
	return nil
}

func writeFile(ctx context.Context, path string, snapshot *domain.IndexSnapshot) error {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	infoJSON, err := json.Marshal(snapshot.Info)
	if err != nil {
		return fmt.Errorf("marshalling index info: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if err := meta.Put(keyInfo, infoJSON); err != nil {
			return err
		}

		chunks, err := tx.CreateBucketIfNotExists(bucketChunks)
		if err != nil {
			return err
		}
		for i, c := range snapshot.Chunks {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := json.Marshal(chunkRecord{
				ID:         c.ID,
				DocumentID: c.DocumentID,
				Source:     c.Source,
				Page:       c.Page,
				Offset:     c.Offset,
				Content:    c.Content,
				Embedding:  encodeVector(c.Embedding),
			})
			if err != nil {
				return fmt.Errorf("marshalling chunk %s: %w", c.ID, err)
			}
			if err := chunks.Put(positionKey(i), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return db.Sync()
}

// Load reads the snapshot at path. A missing file fails with
// domain.ErrNotFound and anything unreadable with domain.ErrCorruptIndex.
func (s *IndexStore) Load(ctx context.Context, path string) (*domain.IndexSnapshot, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: index %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCorruptIndex, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrCorruptIndex, path)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", domain.ErrCorruptIndex, path, err)
	}
	defer db.Close()

	var snap domain.IndexSnapshot
	err = db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return errors.New("missing meta bucket")
		}
		infoJSON := meta.Get(keyInfo)
		if infoJSON == nil {
			return errors.New("missing index info")
		}
		if err := json.Unmarshal(infoJSON, &snap.Info); err != nil {
			return fmt.Errorf("unmarshalling index info: %w", err)
		}

		chunks := tx.Bucket(bucketChunks)
		if chunks == nil {
			return errors.New("missing chunks bucket")
		}
		snap.Chunks = make([]domain.Chunk, 0, snap.Info.Count)
		c := chunks.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(k) != 8 {
				return fmt.Errorf("malformed chunk key %x", k)
			}
			var rec chunkRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshalling chunk at %d: %w", binary.BigEndian.Uint64(k), err)
			}
			vec, err := decodeVector(rec.Embedding)
			if err != nil {
				return fmt.Errorf("chunk %s: %w", rec.ID, err)
			}
			snap.Chunks = append(snap.Chunks, domain.Chunk{
				ID:         rec.ID,
				DocumentID: rec.DocumentID,
				Source:     rec.Source,
				Page:       rec.Page,
				Position:   int(binary.BigEndian.Uint64(k)),
				Offset:     rec.Offset,
				Content:    rec.Content,
				Embedding:  vec,
			})
		}
		return validate(&snap)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCorruptIndex, path, err)
	}
	return &snap, nil
}

func validate(snap *domain.IndexSnapshot) error {
	if len(snap.Chunks) == 0 {
		return errors.New("index holds no chunks")
	}
	if snap.Info.Count != len(snap.Chunks) {
		return fmt.Errorf("metadata counts %d chunks, found %d", snap.Info.Count, len(snap.Chunks))
	}
	for _, c := range snap.Chunks {
		if len(c.Embedding) != snap.Info.Dimensions {
			return fmt.Errorf("chunk %s has %d dimensions, index has %d",
				c.ID, len(c.Embedding), snap.Info.Dimensions)
		}
	}
	return nil
}

func positionKey(i int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(i))
	return k
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector length %d is not a multiple of 4", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}
