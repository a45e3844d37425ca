// Package hugot embeds text in-process with a sentence-transformer ONNX model,
// so a corpus can be indexed and queried without an embedding server.
package hugot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/poiesic/lexcite/ai"
)

const (
	// DefaultModel produces 384-dimensional embeddings.
	DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

	onnxFilePath = "onnx/model.onnx"
)

// ErrNoEmbedding is returned when the pipeline yields fewer vectors than inputs.
var ErrNoEmbedding = errors.New("no embedding generated")

// Embedder implements ai.Embedder on a hugot feature-extraction pipeline.
// Output vectors are normalized to unit length.
type Embedder struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	mu       sync.Mutex
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder prepares DefaultModel under modelDir, downloading it on first
// use, and starts a pure-Go inference session.
func NewEmbedder(modelDir string) (*Embedder, error) {
	modelPath, err := PrepareModel(modelDir, DefaultModel)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "lexcite-embedder",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create embedding pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create embedding pipeline: %w", err)
	}

	return &Embedder{
		session:  session,
		pipeline: pipeline,
		logger:   slog.Default().With("component", "hugot-embedder"),
	}, nil
}

// PrepareModel returns the local path of modelName under modelDir,
// downloading it if it is not there yet.
func PrepareModel(modelDir, modelName string) (string, error) {
	modelPath := filepath.Join(modelDir, filepath.Base(modelName))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	}
	// hugot stores downloads as owner_name.
	altPath := filepath.Join(modelDir, filepath.Dir(modelName)+"_"+filepath.Base(modelName))
	if _, err := os.Stat(altPath); err == nil {
		return altPath, nil
	}

	if err := os.MkdirAll(modelDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}
	downloadOptions := hugot.NewDownloadOptions()
	downloadOptions.OnnxFilePath = onnxFilePath
	downloadedPath, err := hugot.DownloadModel(modelName, modelDir, downloadOptions)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return downloadedPath, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	e.mu.Lock()
	result, err := e.pipeline.RunPipeline(texts)
	e.mu.Unlock()
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, ErrNoEmbedding
	}

	out := make([][]float32, len(result.Embeddings))
	for i, v := range result.Embeddings {
		out[i] = ai.NormalizeVector(v)
	}
	return out, nil
}

// Close destroys the inference session.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Destroy()
}
