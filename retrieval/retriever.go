package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/poiesic/lexcite/ai"
	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/extract"
	"github.com/poiesic/lexcite/index"
	"github.com/poiesic/lexcite/judgment"
	"github.com/poiesic/lexcite/statutory"
	"github.com/poiesic/lexcite/storage"
)

// StatutoryScore is the fused score of an exact statutory hit.
const StatutoryScore = 0.95

// bandEpsilon absorbs float error when comparing score differences to the band.
const bandEpsilon = 1e-9

// Retriever provides hybrid judgment, statutory and semantic retrieval over a corpus.
type Retriever struct {
	extractor  extract.QueryExtractor
	judgments  *judgment.Matcher
	statutes   *statutory.Matcher
	embedder   ai.Embedder
	vectors    storage.VectorSearcher
	topK       int
	vectorTopK int
	scoreBand  float64
	priority   map[core.ChunkType]int
	monitor    RetrievalMonitor
	logger     *slog.Logger
}

// NewRetriever creates a new retriever.
func NewRetriever(
	idx *index.MetadataIndex,
	extractor extract.QueryExtractor,
	embedder ai.Embedder,
	vectors storage.VectorSearcher,
	opts ...Option,
) (*Retriever, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if vectors == nil {
		return nil, ErrVectorSearcherRequired
	}

	r := &Retriever{
		extractor:  extractor,
		embedder:   embedder,
		vectors:    vectors,
		topK:       DefaultTopK,
		vectorTopK: DefaultVectorTopK,
		scoreBand:  DefaultScoreBand,
		priority:   priorityRanks(DefaultTypePriority),
		monitor:    &noopMonitor{},
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	r.judgments = judgment.NewMatcher(idx).WithLogger(r.logger)
	r.logger = r.logger.With("component", "retriever")
	r.statutes = statutory.NewMatcher(idx)
	return r, nil
}

// Retrieve returns up to k chunks ranked for the query. k <= 0 uses the
// configured default. Only a vector backend failure produces an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]*core.Chunk, error) {
	scored, err := r.RetrieveScored(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return Chunks(scored), nil
}

// RetrieveScored is Retrieve with the fused score of every chunk.
func (r *Retriever) RetrieveScored(ctx context.Context, query string, k int) ([]core.ScoredChunk, error) {
	results, err := r.retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// RetrieveDegraded behaves like RetrieveScored but, when the vector backend
// fails, still returns the judgment and statutory results alongside the
// ErrVectorBackend error so the caller can choose to proceed.
func (r *Retriever) RetrieveDegraded(ctx context.Context, query string, k int) ([]core.ScoredChunk, error) {
	return r.retrieve(ctx, query, k)
}

func (r *Retriever) retrieve(ctx context.Context, query string, k int) ([]core.ScoredChunk, error) {
	if k <= 0 {
		k = r.topK
	}
	logger := r.logger.With("request_id", uuid.NewString())
	r.monitor.Start(query)

	// 1. Extract intent
	extracted := r.extractor.Extract(ctx, query)
	r.monitor.AfterExtraction(extracted)

	// 2. Judgment matching, only when there is something to match on
	var matched judgment.Result
	if extracted.HasJudgmentSignal() {
		matched = r.judgments.FindMatchingJudgments(extracted)
	}
	r.monitor.AfterJudgmentMatch(matched)

	f := newFusion(r.monitor)
	for _, candidate := range matched.Exact {
		f.addJudgment(candidate)
	}
	for _, candidate := range matched.Partial {
		f.addJudgment(candidate)
	}

	boosts := make(map[string]float64, len(matched.Substring))
	for _, s := range matched.Substring {
		if !f.claimed(s.Chunk.ExternalID()) {
			boosts[s.Chunk.ID] = s.Score
		}
	}

	// 3. Exact statutory lookup
	statutoryHits, kind := r.statutes.MatchWithKind(query)
	r.monitor.AfterStatutoryMatch(kind, statutoryHits)
	for _, chunk := range statutoryHits {
		f.addHit(chunk, StatutoryScore+boosts[chunk.ID])
	}

	// 4. Semantic search
	hits, vecErr := r.vectorSearch(ctx, query)
	if vecErr != nil {
		logger.Error("vector search failed", "err", vecErr)
	}
	r.monitor.AfterVectorSearch(hits)
	for _, hit := range hits {
		f.addHit(hit.Chunk, VectorScore(hit.Distance)+boosts[hit.Chunk.ID])
	}

	// 5. Rank
	results := f.results()
	slices.SortStableFunc(results, func(a, b core.ScoredChunk) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	results = applyHierarchy(results, r.scoreBand, r.priority)
	if len(results) > k {
		results = results[:k]
	}
	r.monitor.Finish(results)

	logger.Info("retrieval complete",
		"exact_judgments", len(matched.Exact),
		"partial_judgments", len(matched.Partial),
		"substring_chunks", len(matched.Substring),
		"statutory_kind", kind,
		"statutory_hits", len(statutoryHits),
		"vector_hits", len(hits),
		"suppressed", f.suppressed,
		"returned", len(results))

	if vecErr != nil {
		return results, vecErr
	}
	return results, nil
}

func (r *Retriever) vectorSearch(ctx context.Context, query string) ([]storage.VectorHit, error) {
	embedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", ErrVectorBackend, err)
	}
	hits, err := r.vectors.Search(ctx, embedding, r.vectorTopK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVectorBackend, err)
	}
	return hits, nil
}

// FullJudgments reassembles the complete judgments behind the judgment
// chunks in a retrieved list.
func (r *Retriever) FullJudgments(retrieved []*core.Chunk) []judgment.FullJudgment {
	return r.judgments.FullJudgments(retrieved)
}

// VectorScore converts an L2 distance into a similarity in (0, 1].
func VectorScore(distance float32) float64 {
	return 1 / (1 + float64(distance))
}

// Chunks drops the scores from a ranked list.
func Chunks(scored []core.ScoredChunk) []*core.Chunk {
	chunks := make([]*core.Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = s.Chunk
	}
	return chunks
}

// fusion accumulates scored chunks. The first score recorded for a chunk ID
// wins, and any hit for a judgment already claimed by a judgment match is
// suppressed.
type fusion struct {
	order      []core.ScoredChunk
	seen       map[string]bool
	claimedIDs map[string]bool
	suppressed int
	monitor    RetrievalMonitor
}

func newFusion(monitor RetrievalMonitor) *fusion {
	return &fusion{
		seen:       make(map[string]bool),
		claimedIDs: make(map[string]bool),
		monitor:    monitor,
	}
}

func (f *fusion) claimed(externalID string) bool {
	return externalID != "" && f.claimedIDs[externalID]
}

// addJudgment claims the candidate's judgment and adds a copy of each of its
// chunks with the provenance header prepended.
func (f *fusion) addJudgment(candidate core.MatchCandidate) {
	f.claimedIDs[candidate.ExternalID] = true
	header := judgment.ProvenanceHeader(candidate)
	for _, chunk := range candidate.Chunks {
		if f.seen[chunk.ID] {
			continue
		}
		annotated := chunk.Clone()
		annotated.Text = header + chunk.Text
		f.seen[chunk.ID] = true
		f.order = append(f.order, core.ScoredChunk{Chunk: annotated, Score: candidate.Score})
	}
}

func (f *fusion) addHit(chunk *core.Chunk, score float64) {
	if chunk == nil {
		return
	}
	if f.claimed(chunk.ExternalID()) {
		f.suppressed++
		f.monitor.Suppressed(chunk)
		return
	}
	if f.seen[chunk.ID] {
		return
	}
	f.seen[chunk.ID] = true
	f.order = append(f.order, core.ScoredChunk{Chunk: chunk, Score: score})
}

func (f *fusion) results() []core.ScoredChunk {
	return f.order
}

// applyHierarchy walks a list sorted by descending score, groups consecutive
// entries whose score is within band of the group's first entry and stably
// reorders each group by type priority. Unknown types sort last.
func applyHierarchy(sorted []core.ScoredChunk, band float64, priority map[core.ChunkType]int) []core.ScoredChunk {
	if len(sorted) <= 1 {
		return sorted
	}
	rank := func(t core.ChunkType) int {
		if r, ok := priority[t]; ok {
			return r
		}
		return len(priority)
	}

	out := make([]core.ScoredChunk, 0, len(sorted))
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && math.Abs(sorted[i].Score-sorted[j].Score) <= band+bandEpsilon {
			j++
		}
		group := slices.Clone(sorted[i:j])
		slices.SortStableFunc(group, func(a, b core.ScoredChunk) int {
			return rank(a.Chunk.ChunkType) - rank(b.Chunk.ChunkType)
		})
		out = append(out, group...)
		i = j
	}
	return out
}
