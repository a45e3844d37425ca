// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"context"

	"github.com/poiesic/lexcite/core"
)

// CorpusRepository persists chunks and returns them in insertion order.
// Implementations must be thread-safe and support concurrent access.
type CorpusRepository interface {
	// AddChunks stores chunks, replacing any existing chunk with the same ID.
	// A replaced chunk keeps its original position in the corpus order.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) error

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id string) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...string) ([]*core.Chunk, error)

	// AllChunks returns every chunk in insertion order.
	AllChunks(ctx context.Context) ([]*core.Chunk, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// Close releases resources held by the repository.
	Close() error
}

// VectorHit is one result of a nearest-neighbour search.
type VectorHit struct {
	Chunk *core.Chunk
	// Distance is the L2 distance between the query and the chunk vector.
	Distance float32
}

// VectorSearcher finds the chunks nearest to a query vector.
type VectorSearcher interface {
	// Search returns up to topK hits ordered by ascending L2 distance.
	Search(ctx context.Context, vector []float32, topK int) ([]VectorHit, error)
}

// VectorEntry associates a chunk with its embedding.
type VectorEntry struct {
	Chunk  *core.Chunk
	Vector []float32
}

// VectorStore is a VectorSearcher that can be written to.
type VectorStore interface {
	VectorSearcher

	// PutVectors stores embeddings, replacing existing ones for the same chunk.
	PutVectors(ctx context.Context, entries ...VectorEntry) error

	// CountVectors returns the number of stored embeddings.
	CountVectors(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}

// CheckpointRepository persists processor progress for resumable indexing.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint, overwriting any previous one
	// for the same processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)

	// ClearCheckpoint removes the checkpoint for a processor type.
	ClearCheckpoint(ctx context.Context, processorType string) error
}
