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


// Package lexcite ties the corpus store, metadata index, hybrid retriever and
// citation attributor together behind one Engine.
package lexcite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/lexcite/ai"
	"github.com/poiesic/lexcite/ai/openai"
	"github.com/poiesic/lexcite/attribution"
	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/corpus"
	"github.com/poiesic/lexcite/extract"
	"github.com/poiesic/lexcite/index"
	"github.com/poiesic/lexcite/indexer"
	"github.com/poiesic/lexcite/retrieval"
	"github.com/poiesic/lexcite/storage"
	"github.com/poiesic/lexcite/storage/badger"
)

// Engine owns the stored corpus, its metadata index and the AI provider,
// and serves retrieval and citation attribution over them.
type Engine struct {
	backend      *badger.Backend
	corpusRepo   storage.CorpusRepository
	vectors      storage.VectorStore
	checkpoints  storage.CheckpointRepository
	provider     ai.AIProvider
	options      *engineOptions
	ownsVectors  bool
	ownsProvider bool
	logger       *slog.Logger

	mu         sync.RWMutex
	index      *index.MetadataIndex
	retriever  *retrieval.Retriever
	attributor *attribution.Attributor
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig        *ai.Config
	provider        ai.AIProvider
	vectors         storage.VectorStore
	inMemory        bool
	regexOnly       bool
	retrievalOpts   []retrieval.Option
	attributionOpts []attribution.Option
	logger          *slog.Logger
}

// WithAIConfig sets the configuration used to build the OpenAI-compatible provider.
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider uses an existing provider instead of building one.
// The engine does not close it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithVectorStore stores and searches vectors outside badger, for example
// in PostgreSQL. The engine does not close it.
func WithVectorStore(store storage.VectorStore) EngineOption {
	return func(o *engineOptions) {
		o.vectors = store
	}
}

// WithInMemory keeps all storage in memory. The path is ignored.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithRegexExtraction disables the generative query and pair extractors.
func WithRegexExtraction() EngineOption {
	return func(o *engineOptions) {
		o.regexOnly = true
	}
}

// WithRetrievalOptions passes options through to the retriever.
func WithRetrievalOptions(opts ...retrieval.Option) EngineOption {
	return func(o *engineOptions) {
		o.retrievalOpts = append(o.retrievalOpts, opts...)
	}
}

// WithAttributionOptions passes options through to the attributor.
func WithAttributionOptions(opts ...attribution.Option) EngineOption {
	return func(o *engineOptions) {
		o.attributionOpts = append(o.attributionOpts, opts...)
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewEngine opens the store at path and builds the index from whatever
// corpus it already holds.
func NewEngine(ctx context.Context, path string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(path, options.inMemory)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		backend:     backend,
		checkpoints: badger.NewCheckpointRepository(backend),
		options:     options,
		logger:      options.logger.With("component", "engine"),
	}

	e.corpusRepo, err = badger.NewCorpusRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	if options.vectors != nil {
		e.vectors = options.vectors
	} else {
		e.vectors = badger.NewVectorStore(backend, 0)
		e.ownsVectors = true
	}

	if options.provider != nil {
		e.provider = options.provider
	} else {
		e.provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.ownsProvider = true
	}

	if err := e.Reload(ctx); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// Reload rebuilds the metadata index, retriever and attributor from the
// stored corpus.
func (e *Engine) Reload(ctx context.Context) error {
	chunks, err := e.corpusRepo.AllChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}
	idx := index.Build(chunks)

	queryExtractor, pairExtractor := e.extractors()
	retriever, err := retrieval.NewRetriever(idx, queryExtractor, e.provider.Embedder(), e.vectors,
		append([]retrieval.Option{retrieval.WithLogger(e.options.logger)}, e.options.retrievalOpts...)...)
	if err != nil {
		return err
	}
	attributor, err := attribution.NewAttributor(idx, pairExtractor, e.provider.Generator(),
		append([]attribution.Option{attribution.WithLogger(e.options.logger)}, e.options.attributionOpts...)...)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.index = idx
	e.retriever = retriever
	e.attributor = attributor
	e.mu.Unlock()

	e.logger.Info("index built", "chunks", len(chunks))
	return nil
}

func (e *Engine) extractors() (extract.QueryExtractor, extract.PairExtractor) {
	if e.options.regexOnly {
		return extract.NewFallbackQueryExtractor(nil, nil).WithLogger(e.options.logger),
			extract.NewFallbackPairExtractor(nil, nil).WithLogger(e.options.logger)
	}
	gen := e.provider.Generator()
	return extract.NewFallbackQueryExtractor(extract.NewGenerativeQueryExtractor(gen), nil).WithLogger(e.options.logger),
		extract.NewFallbackPairExtractor(extract.NewGenerativePairExtractor(gen), nil).WithLogger(e.options.logger)
}

// Index stores and embeds chunks, then reloads the index.
func (e *Engine) Index(ctx context.Context, chunks []*core.Chunk, opts ...indexer.Option) (*indexer.Stats, error) {
	ix, err := indexer.NewIndexer(e.corpusRepo, e.vectors, e.provider.Embedder(),
		append([]indexer.Option{indexer.WithCheckpoints(e.checkpoints), indexer.WithLogger(e.options.logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	defer ix.Release()

	stats, err := ix.Run(ctx, chunks)
	if err != nil {
		return stats, err
	}
	return stats, e.Reload(ctx)
}

// IndexLocation loads a corpus from a file path or s3:// URL and indexes it.
func (e *Engine) IndexLocation(ctx context.Context, location string, sourceOpts []corpus.SourceOption, opts ...indexer.Option) (*indexer.Stats, error) {
	chunks, err := corpus.Load(ctx, location, sourceOpts...)
	if err != nil {
		return nil, err
	}
	return e.Index(ctx, chunks, opts...)
}

// Retrieve returns up to k chunks for query; k <= 0 uses the retriever default.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) ([]*core.Chunk, error) {
	return e.Retriever().Retrieve(ctx, query, k)
}

// RetrieveScored is Retrieve with fused scores.
func (e *Engine) RetrieveScored(ctx context.Context, query string, k int) ([]core.ScoredChunk, error) {
	return e.Retriever().RetrieveScored(ctx, query, k)
}

// Attribute corrects the case citations in a generated answer. The caller
// drains the returned stream or calls Close on it.
func (e *Engine) Attribute(ctx context.Context, answer string) *attribution.Attribution {
	return e.Attributor().Attribute(ctx, answer)
}

// Retriever returns the retriever for the current index.
func (e *Engine) Retriever() *retrieval.Retriever {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.retriever
}

// Attributor returns the attributor for the current index.
func (e *Engine) Attributor() *attribution.Attributor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.attributor
}

// MetadataIndex returns the current index.
func (e *Engine) MetadataIndex() *index.MetadataIndex {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index
}

func (e *Engine) CorpusRepository() storage.CorpusRepository {
	return e.corpusRepo
}

func (e *Engine) VectorStore() storage.VectorStore {
	return e.vectors
}

func (e *Engine) CheckpointRepository() storage.CheckpointRepository {
	return e.checkpoints
}

// Close releases everything the engine opened. Injected providers and
// vector stores are left to their owners.
func (e *Engine) Close() error {
	var errs []error
	if e.ownsProvider && e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if e.ownsVectors && e.vectors != nil {
		if err := e.vectors.Close(); err != nil {
			e.logger.Error("error closing vector store", "err", err)
			errs = append(errs, err)
		}
	}
	if e.corpusRepo != nil {
		if err := e.corpusRepo.Close(); err != nil {
			e.logger.Error("error closing corpus repository", "err", err)
			errs = append(errs, err)
		}
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
