package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/lexcite/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// embeddingBatchSize caps how many chunk texts go into one embeddings request.
const embeddingBatchSize = 64

// Embedder implements ai.Embedder over an OpenAI-compatible embeddings API.
// Single texts are user queries and go through EmbedQuery; batches are
// corpus chunks and go through EmbedDocuments.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.APIToken),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	// Statute text is hard-wrapped, so newlines carry no meaning for retrieval.
	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(embeddingBatchSize))
	if err != nil {
		return nil, err
	}

	return wrapEmbedder(embedder, config.EmbeddingModel), nil
}

func wrapEmbedder(embedder embeddings.Embedder, model string) *Embedder {
	return &Embedder{
		embedder: embedder,
		model:    model,
		logger:   slog.Default().With("component", "openai-embedder", "model", model),
	}
}

// NewEmbedder creates an embedder for the configured embedding host and model.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds a retrieval query.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("embedding query", "length", len(text))

	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("failed to embed query", "err", err)
		return nil, err
	}
	return vector, nil
}

// EmbedTexts embeds chunk texts in order. Every returned vector has the same
// dimension; a response that breaks that, or has the wrong count, is an error.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("embedding chunks", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to embed chunks", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ai.ErrEmbeddingMismatch, len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) != len(vectors[0]) {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ai.ErrEmbeddingMismatch, i, len(v), len(vectors[0]))
		}
	}
	return vectors, nil
}
