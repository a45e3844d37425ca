package ai

import (
	"context"
	"iter"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// GenerateOptions configures a single generation request.
type GenerateOptions struct {
	// SystemPrompts are sent ahead of the prompt as system messages.
	SystemPrompts []string

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// MaxTokens caps the response length. Zero leaves the provider default.
	MaxTokens int

	// JSONMode asks the provider to constrain output to a JSON object.
	JSONMode bool
}

// Generator produces text from a prompt, either in one piece or as a stream.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Complete returns the full response text.
	Complete(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// CompleteStream returns a lazy, finite sequence of response fragments.
	// Nothing is sent to the provider until the sequence is ranged over, and
	// the sequence can be consumed only once. A non-nil error is the final
	// element. Breaking out of the range loop cancels the request.
	CompleteStream(ctx context.Context, prompt string, opts GenerateOptions) iter.Seq2[string, error]
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the text generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
