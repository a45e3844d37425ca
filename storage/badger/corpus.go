package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/storage"
)

// writeBatchSize bounds the number of chunks written per transaction.
const writeBatchSize = 256

// CorpusRepository implements storage.CorpusRepository for BadgerDB.
type CorpusRepository struct {
	backend *Backend
	posSeq  *badger.Sequence
}

var _ storage.CorpusRepository = (*CorpusRepository)(nil)

// newCorpusRepository returns the concrete type for use inside the package.
func newCorpusRepository(backend *Backend) (*CorpusRepository, error) {
	posSeq, err := backend.GetSequence(chunkOrderSeq)
	if err != nil {
		return nil, err
	}
	return &CorpusRepository{
		backend: backend,
		posSeq:  posSeq,
	}, nil
}

// NewCorpusRepository creates a corpus repository on an open backend.
func NewCorpusRepository(backend *Backend) (storage.CorpusRepository, error) {
	return newCorpusRepository(backend)
}

// Close releases the position sequence.
func (r *CorpusRepository) Close() error {
	return r.posSeq.Release()
}

// AddChunks stores chunks in batches. New chunks are appended to the corpus
// order; replaced chunks keep their position.
func (r *CorpusRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) error {
	for start := 0; start < len(chunks); start += writeBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+writeBatchSize, len(chunks))
		if err := r.backend.Update(func(tx *badger.Txn) error {
			for _, chunk := range chunks[start:end] {
				if err := r.putChunk(tx, chunk); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *CorpusRepository) putChunk(tx *badger.Txn, chunk *core.Chunk) error {
	if err := core.ValidateChunk(chunk); err != nil {
		return err
	}
	value := storage.MarshalChunk(chunk)

	_, err := tx.Get(makeChunkPosKey(chunk.ID))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		pos, err := r.posSeq.Next()
		if err != nil {
			return err
		}
		if err := tx.Set(makeChunkPosKey(chunk.ID), encodePos(pos)); err != nil {
			return err
		}
		if err := tx.Set(makeChunkOrderKey(pos), []byte(chunk.ID)); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	return tx.Set(makeChunkKey(chunk.ID), value)
}

// GetChunk retrieves a single chunk by ID.
func (r *CorpusRepository) GetChunk(ctx context.Context, id string) (*core.Chunk, error) {
	var chunk *core.Chunk
	err := r.backend.View(func(tx *badger.Txn) error {
		var err error
		chunk, err = readChunk(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if chunk == nil {
		return nil, storage.ErrNotFound
	}
	return chunk, nil
}

// GetChunks retrieves the chunks that exist among ids, in the order given.
func (r *CorpusRepository) GetChunks(ctx context.Context, ids ...string) ([]*core.Chunk, error) {
	chunks := make([]*core.Chunk, 0, len(ids))
	err := r.backend.View(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := readChunk(tx, id)
			if err != nil {
				return err
			}
			if chunk != nil {
				chunks = append(chunks, chunk)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// AllChunks walks the corpus-order index and returns every chunk.
func (r *CorpusRepository) AllChunks(ctx context.Context) ([]*core.Chunk, error) {
	var chunks []*core.Chunk
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkOrderPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			chunk, err := readChunk(tx, string(id))
			if err != nil {
				return err
			}
			if chunk != nil {
				chunks = append(chunks, chunk)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// CountChunks counts entries in the corpus-order index.
func (r *CorpusRepository) CountChunks(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkOrderPrefix)
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

// readChunk returns nil, nil when the chunk doesn't exist.
func readChunk(tx *badger.Txn, id string) (*core.Chunk, error) {
	item, err := tx.Get(makeChunkKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunk(val)
		return err
	})
	return chunk, err
}
