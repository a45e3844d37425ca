package indexer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lexcite/ai"
	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/storage"
)

// ProcessorType names the embedding checkpoint.
const ProcessorType = "embeddings"

const (
	DefaultBatchSize      = 64
	DefaultMaxAttempts    = 3
	DefaultRetryDelay     = time.Second
	DefaultReportInterval = 256
)

// Stats summarises one indexing run.
type Stats struct {
	Chunks   int
	Batches  int
	Embedded int
	// Resumed counts chunks skipped because a checkpoint showed them done.
	Resumed int
	Elapsed time.Duration
}

// Indexer stores a corpus and embeds it into a vector store.
type Indexer struct {
	corpus         storage.CorpusRepository
	vectors        storage.VectorStore
	checkpoints    storage.CheckpointRepository
	pool           *ants.Pool
	processor      *batchProcessor
	batchSize      int
	progress       io.Writer
	reportInterval int
	logger         *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithPoolSize sets the number of batches embedded concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if ix.pool != nil {
			ix.pool.Release()
		}
		ix.pool = pool
		return nil
	}
}

// WithBatchSize sets how many chunks go to the embedder per call.
func WithBatchSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			return fmt.Errorf("%w: batch size %d", ErrInvalidOption, size)
		}
		ix.batchSize = size
		return nil
	}
}

// WithRetry sets the attempts per batch and the base backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(ix *Indexer) error {
		if maxAttempts < 1 {
			return fmt.Errorf("%w: %w", ErrInvalidOption, ErrInvalidMaxAttempts)
		}
		ix.processor.maxAttempts = maxAttempts
		ix.processor.retryBaseDelay = baseDelay
		return nil
	}
}

// WithProgress writes a progress line to w every interval chunks.
func WithProgress(w io.Writer, interval int) Option {
	return func(ix *Indexer) error {
		ix.progress = w
		ix.reportInterval = interval
		return nil
	}
}

// WithCheckpoints enables resumable runs.
func WithCheckpoints(repo storage.CheckpointRepository) Option {
	return func(ix *Indexer) error {
		ix.checkpoints = repo
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// NewIndexer creates an indexer. Call Release when done with it.
func NewIndexer(corpus storage.CorpusRepository, vectors storage.VectorStore, embedder ai.Embedder, opts ...Option) (*Indexer, error) {
	if corpus == nil {
		return nil, ErrCorpusRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	ix := &Indexer{
		corpus:  corpus,
		vectors: vectors,
		pool:    pool,
		processor: &batchProcessor{
			embedder:       embedder,
			vectors:        vectors,
			maxAttempts:    DefaultMaxAttempts,
			retryBaseDelay: DefaultRetryDelay,
		},
		batchSize:      DefaultBatchSize,
		progress:       io.Discard,
		reportInterval: DefaultReportInterval,
		logger:         slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if optErr := opt(ix); optErr != nil {
			ix.Release()
			return nil, optErr
		}
	}
	ix.logger = ix.logger.With("component", "indexer")
	ix.processor.logger = ix.logger

	return ix, nil
}

// Run stores chunks and embeds every batch not already covered by a
// checkpoint. The first failing batch cancels the rest; batches finished
// before it stay checkpointed. A clean run clears the checkpoint.
func (ix *Indexer) Run(ctx context.Context, chunks []*core.Chunk) (*Stats, error) {
	stats := &Stats{Chunks: len(chunks)}
	if len(chunks) == 0 {
		return stats, nil
	}

	if err := ix.corpus.AddChunks(ctx, chunks...); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	batches := splitBatches(chunks, ix.batchSize)
	stats.Batches = len(batches)
	start := ix.resumePoint(ctx, batches)
	for _, batch := range batches[:start] {
		stats.Resumed += len(batch)
	}

	fmt.Fprintf(ix.progress, "Starting embedding of %d chunks (batch size: %d, resumed: %d)\n",
		len(chunks), ix.batchSize, stats.Resumed)
	tracker := NewProgressTracker(ix.progress, len(chunks), ix.reportInterval)
	tracker.Start(stats.Resumed)

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	state := &runState{done: make(map[int]bool), next: start}
	var wg sync.WaitGroup
	for i := start; i < len(batches); i++ {
		if runCtx.Err() != nil {
			break
		}
		wg.Add(1)
		err := ix.pool.Submit(func() {
			defer wg.Done()
			if runCtx.Err() != nil {
				return
			}
			if err := ix.processor.process(runCtx, batches[i]); err != nil {
				ix.logger.Error("batch failed", "batch", i, "err", err)
				cancel(fmt.Errorf("batch %d: %w", i, err))
				return
			}
			tracker.Increment(len(batches[i]))
			state.complete(i, func(next int) {
				ix.saveCheckpoint(ctx, batches, next)
			})
		})
		if err != nil {
			wg.Done()
			cancel(fmt.Errorf("failed to schedule batch %d: %w", i, err))
		}
	}
	wg.Wait()

	tracker.Finish()
	stats.Embedded = tracker.Current() - stats.Resumed
	stats.Elapsed = tracker.Elapsed()

	if err := context.Cause(runCtx); err != nil {
		return stats, err
	}

	if ix.checkpoints != nil {
		if err := ix.checkpoints.ClearCheckpoint(ctx, ProcessorType); err != nil {
			ix.logger.Warn("failed to clear checkpoint", "err", err)
		}
	}
	ix.logger.Info("indexing complete", "chunks", stats.Chunks, "embedded", stats.Embedded,
		"resumed", stats.Resumed, "elapsed", stats.Elapsed)
	return stats, nil
}

// resumePoint returns the number of leading batches a checkpoint marks as
// done. A checkpoint whose last chunk no longer lines up with the batches is
// ignored.
func (ix *Indexer) resumePoint(ctx context.Context, batches [][]*core.Chunk) int {
	if ix.checkpoints == nil {
		return 0
	}
	cp, err := ix.checkpoints.LoadCheckpoint(ctx, ProcessorType)
	if err != nil {
		ix.logger.Warn("failed to load checkpoint, starting over", "err", err)
		return 0
	}
	if cp == nil {
		return 0
	}
	if cp.LastBatch <= 0 || cp.LastBatch > len(batches) {
		ix.logger.Warn("checkpoint out of range, starting over", "last_batch", cp.LastBatch, "batches", len(batches))
		return 0
	}
	last := batches[cp.LastBatch-1]
	if last[len(last)-1].ID != cp.LastChunkID {
		ix.logger.Warn("corpus changed since checkpoint, starting over", "last_chunk_id", cp.LastChunkID)
		return 0
	}
	ix.logger.Info("resuming from checkpoint", "batches_done", cp.LastBatch, "processed", cp.Processed)
	return cp.LastBatch
}

// saveCheckpoint records that the first done batches are embedded.
func (ix *Indexer) saveCheckpoint(ctx context.Context, batches [][]*core.Chunk, done int) {
	if ix.checkpoints == nil {
		return
	}
	processed := 0
	for _, batch := range batches[:done] {
		processed += len(batch)
	}
	last := batches[done-1]
	cp := &core.Checkpoint{
		ProcessorType: ProcessorType,
		LastBatch:     done,
		LastChunkID:   last[len(last)-1].ID,
		Processed:     processed,
	}
	if err := ix.checkpoints.SaveCheckpoint(ctx, cp); err != nil {
		ix.logger.Warn("failed to save checkpoint", "err", err)
	}
}

// Release releases the worker pool.
// The indexer should not be used after calling Release.
func (ix *Indexer) Release() {
	if ix.pool != nil {
		ix.pool.Release()
	}
}

// runState tracks which batches finished so the checkpoint only ever covers
// a contiguous prefix.
type runState struct {
	mu   sync.Mutex
	done map[int]bool
	next int
}

// complete marks batch i finished and calls advanced with the new prefix
// length whenever the prefix grows. advanced runs under the lock.
func (s *runState) complete(i int, advanced func(next int)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.done[i] = true
	grew := false
	for s.done[s.next] {
		delete(s.done, s.next)
		s.next++
		grew = true
	}
	if grew {
		advanced(s.next)
	}
}
