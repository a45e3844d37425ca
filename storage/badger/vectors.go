package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexcite/ai"
	"github.com/poiesic/lexcite/storage"
)

// VectorStore is a brute-force L2 vector store. Embeddings live next to the
// chunks they describe, so a store and a CorpusRepository must share a backend.
type VectorStore struct {
	backend   *Backend
	dimension int
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore creates a vector store on an open backend. A dimension of 0
// accepts vectors of any length.
func NewVectorStore(backend *Backend, dimension int) *VectorStore {
	return &VectorStore{
		backend:   backend,
		dimension: dimension,
	}
}

// Close is a no-op; the backend owns the database handle.
func (s *VectorStore) Close() error {
	return nil
}

func (s *VectorStore) checkDimension(vector []float32) error {
	if s.dimension > 0 && len(vector) != s.dimension {
		return fmt.Errorf("%w: got %d, want %d", storage.ErrDimensionMismatch, len(vector), s.dimension)
	}
	return nil
}

// PutVectors stores embeddings keyed by chunk ID.
func (s *VectorStore) PutVectors(ctx context.Context, entries ...storage.VectorEntry) error {
	for start := 0; start < len(entries); start += writeBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+writeBatchSize, len(entries))
		err := s.backend.Update(func(tx *badger.Txn) error {
			for _, entry := range entries[start:end] {
				if entry.Chunk == nil || entry.Chunk.ID == "" {
					return fmt.Errorf("%w: vector entry without chunk", storage.ErrInvalidQuery)
				}
				if err := s.checkDimension(entry.Vector); err != nil {
					return err
				}
				if err := tx.Set(makeVectorKey(entry.Chunk.ID), storage.MarshalVector(entry.Vector)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Search scans every stored vector and returns the topK nearest chunks.
// Vectors whose chunk is missing from the corpus are skipped.
func (s *VectorStore) Search(ctx context.Context, vector []float32, topK int) ([]storage.VectorHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", storage.ErrInvalidQuery)
	}
	if err := s.checkDimension(vector); err != nil {
		return nil, err
	}

	var hits []storage.VectorHit
	err := s.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			id := string(item.Key()[len(vectorPrefix):])

			var distance float32
			err := item.Value(func(val []byte) error {
				stored, err := storage.UnmarshalVector(val)
				if err != nil {
					return err
				}
				distance = ai.L2Distance(vector, stored)
				return nil
			})
			if err != nil {
				return err
			}

			chunk, err := readChunk(tx, id)
			if err != nil {
				return err
			}
			if chunk == nil {
				s.backend.logger.Debug("vector without chunk", "chunk_id", id)
				continue
			}
			hits = append(hits, storage.VectorHit{Chunk: chunk, Distance: distance})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrStorageClosed) {
			return nil, err
		}
		return nil, fmt.Errorf("vector scan failed: %w", err)
	}

	slices.SortStableFunc(hits, func(a, b storage.VectorHit) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// CountVectors returns the number of stored embeddings.
func (s *VectorStore) CountVectors(ctx context.Context) (int, error) {
	count := 0
	err := s.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	return count, err
}
