package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/lexcite/ai"
	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/storage"
)

// batchProcessor embeds one batch of chunks and stores the vectors.
type batchProcessor struct {
	embedder       ai.Embedder
	vectors        storage.VectorStore
	maxAttempts    int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

func (bp *batchProcessor) process(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxAttempts, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxAttempts, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(chunks), len(embeddings))
	}

	entries := make([]storage.VectorEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = storage.VectorEntry{Chunk: chunk, Vector: embeddings[i]}
	}
	if err := bp.vectors.PutVectors(ctx, entries...); err != nil {
		return fmt.Errorf("failed to store vectors: %w", err)
	}

	bp.logger.Debug("batch embedded", "chunks", len(chunks), "first_chunk_id", chunks[0].ID)
	return nil
}

// splitBatches cuts chunks into consecutive batches of at most size.
func splitBatches(chunks []*core.Chunk, size int) [][]*core.Chunk {
	batches := make([][]*core.Chunk, 0, (len(chunks)+size-1)/size)
	for start := 0; start < len(chunks); start += size {
		end := min(start+size, len(chunks))
		batches = append(batches, chunks[start:end])
	}
	return batches
}
