package retrieval

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/poiesic/lexcite/ai/mock"
	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/extract"
	"github.com/poiesic/lexcite/index"
	"github.com/poiesic/lexcite/judgment"
	"github.com/poiesic/lexcite/statutory"
	"github.com/poiesic/lexcite/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type extractorFunc func(ctx context.Context, query string) core.ExtractedQuery

func (f extractorFunc) Extract(ctx context.Context, query string) core.ExtractedQuery {
	return f(ctx, query)
}

func fixedExtraction(q core.ExtractedQuery) extractorFunc {
	if q.PartyNames == nil {
		q.PartyNames = []string{}
	}
	return func(context.Context, string) core.ExtractedQuery { return q }
}

type searcherFunc func(ctx context.Context, vector []float32, topK int) ([]storage.VectorHit, error)

func (f searcherFunc) Search(ctx context.Context, vector []float32, topK int) ([]storage.VectorHit, error) {
	return f(ctx, vector, topK)
}

func fixedHits(hits ...storage.VectorHit) searcherFunc {
	return func(context.Context, []float32, int) ([]storage.VectorHit, error) { return hits, nil }
}

func judgmentChunk(id, ext, citation, text string) *core.Chunk {
	return &core.Chunk{
		ID:        id,
		ChunkType: core.ChunkTypeJudgment,
		Text:      text,
		Metadata: map[string]string{
			core.MetaExternalID: ext,
			core.MetaCitation:   citation,
			core.MetaPetitioner: "Alpha Traders",
			core.MetaRespondent: "State of Kerala",
			core.MetaCourt:      "High Court of Kerala",
			core.MetaYear:       "2025",
		},
	}
}

func testCorpus() []*core.Chunk {
	return []*core.Chunk{
		judgmentChunk("j1", "ext-1", "2025 Taxo.online 455", "The petitioner challenges the order."),
		{ID: "s16", ChunkType: core.ChunkTypeOperative, Text: "Eligibility for input tax credit.", IsStatutory: true, SectionNumber: "16", Subsection: "2"},
		judgmentChunk("j2", "ext-1", "2025 Taxo.online 455", "The department argues otherwise."),
		{ID: "u1", ChunkType: core.ChunkTypeDefinition, Text: "Supply includes all forms of supply."},
		judgmentChunk("j3", "ext-1", "2025 Taxo.online 455", "The writ petition is allowed."),
		{
			ID: "k1", ChunkType: core.ChunkTypeJudgment, Text: "Refund claim rejected.",
			Metadata: map[string]string{
				core.MetaExternalID: "ext-2",
				core.MetaCitation:   "2024 Taxo.online 4551",
				core.MetaPetitioner: "Beta Exports Private Limited",
				core.MetaRespondent: "Union of India",
			},
		},
	}
}

func newTestRetriever(t *testing.T, extractor extract.QueryExtractor, searcher storage.VectorSearcher, opts ...Option) *Retriever {
	t.Helper()
	r, err := NewRetriever(index.Build(testCorpus()), extractor, mock.NewMockEmbedder(), searcher, opts...)
	require.NoError(t, err)
	return r
}

func ids(chunks []*core.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.ID
	}
	return out
}

func TestNewRetriever(t *testing.T) {
	idx := index.Build(testCorpus())
	extractor := fixedExtraction(core.ExtractedQuery{})
	embedder := mock.NewMockEmbedder()
	searcher := fixedHits()

	t.Run("valid configuration", func(t *testing.T) {
		r, err := NewRetriever(idx, extractor, embedder, searcher)
		require.NoError(t, err)
		assert.Equal(t, DefaultTopK, r.topK)
		assert.Equal(t, DefaultVectorTopK, r.vectorTopK)
		assert.Equal(t, DefaultScoreBand, r.scoreBand)
	})

	t.Run("with options", func(t *testing.T) {
		r, err := NewRetriever(idx, extractor, embedder, searcher,
			WithTopK(5), WithVectorTopK(10), WithScoreBand(0.2), WithLogger(slog.Default()), WithMonitor(nil))
		require.NoError(t, err)
		assert.Equal(t, 5, r.topK)
		assert.Equal(t, 10, r.vectorTopK)
		assert.Equal(t, 0.2, r.scoreBand)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewRetriever(idx, extractor, embedder, searcher, WithTopK(0))
		assert.ErrorIs(t, err, ErrInvalidOption)
		_, err = NewRetriever(idx, extractor, embedder, searcher, WithScoreBand(-1))
		assert.ErrorIs(t, err, ErrInvalidOption)
		_, err = NewRetriever(idx, extractor, embedder, searcher, WithTypePriority())
		assert.ErrorIs(t, err, ErrInvalidOption)
	})

	t.Run("missing collaborators", func(t *testing.T) {
		_, err := NewRetriever(nil, extractor, embedder, searcher)
		assert.Equal(t, ErrIndexRequired, err)
		_, err = NewRetriever(idx, nil, embedder, searcher)
		assert.Equal(t, ErrExtractorRequired, err)
		_, err = NewRetriever(idx, extractor, nil, searcher)
		assert.Equal(t, ErrEmbedderRequired, err)
		_, err = NewRetriever(idx, extractor, embedder, nil)
		assert.Equal(t, ErrVectorSearcherRequired, err)
	})
}

func TestRetrieve_LogsOneComponentPerLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := newTestRetriever(t, fixedExtraction(core.ExtractedQuery{Citation: "2025 taxo.online 455"}), fixedHits(), WithLogger(logger))

	_, err := r.RetrieveScored(context.Background(), "2025 taxo.online 455", 5)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var matcherLines int
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, "component="), line)
		if strings.Contains(line, "component=judgment-matcher") {
			matcherLines++
		}
	}
	assert.Positive(t, matcherLines)
}

func TestRetrieve_ExactCitationEndToEnd(t *testing.T) {
	corpus := testCorpus()
	unrelated := corpus[3]
	searcher := fixedHits(
		storage.VectorHit{Chunk: unrelated, Distance: 1.5},
		storage.VectorHit{Chunk: corpus[2], Distance: 0.1},
	)
	r := newTestRetriever(t, fixedExtraction(core.ExtractedQuery{Citation: "2025 taxo.online 455"}), searcher)

	scored, err := r.RetrieveScored(context.Background(), "what was held in 2025 taxo.online 455", 10)
	require.NoError(t, err)
	require.Len(t, scored, 4)

	for i, want := range []string{"j1", "j2", "j3"} {
		assert.Equal(t, want, scored[i].Chunk.ID)
		assert.Equal(t, core.ExactMatchScore, scored[i].Score)
		assert.True(t, strings.HasPrefix(scored[i].Chunk.Text, "Citation: 2025 Taxo.online 455\n"), scored[i].Chunk.Text)
		assert.Contains(t, scored[i].Chunk.Text, "Petitioner: Alpha Traders")
	}
	assert.Equal(t, "u1", scored[3].Chunk.ID)
	assert.InDelta(t, 0.4, scored[3].Score, 1e-9)

	// corpus chunks are never mutated
	assert.Equal(t, "The petitioner challenges the order.", corpus[0].Text)
}

func TestRetrieve_SuppressesHitsForClaimedJudgments(t *testing.T) {
	corpus := testCorpus()
	monitor := &recordingMonitor{}
	searcher := fixedHits(
		storage.VectorHit{Chunk: corpus[0], Distance: 0},
		storage.VectorHit{Chunk: corpus[4], Distance: 0},
	)
	r := newTestRetriever(t,
		fixedExtraction(core.ExtractedQuery{PartyNames: []string{"Alpha Traders", "State of Kerala"}}),
		searcher, WithMonitor(monitor))

	chunks, err := r.Retrieve(context.Background(), "Alpha Traders v State of Kerala", 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"j1", "j2", "j3"}, ids(chunks))
	for _, c := range chunks {
		assert.True(t, strings.HasPrefix(c.Text, "Matched Parties: Alpha Traders v. State of Kerala\n"), c.Text)
	}
	assert.Equal(t, 2, monitor.suppressed)
	assert.Equal(t, 1, monitor.starts)
	assert.Len(t, monitor.finished, 3)
}

func TestRetrieve_StatutoryAndSubstringBoost(t *testing.T) {
	corpus := testCorpus()
	searcher := fixedHits(storage.VectorHit{Chunk: corpus[5], Distance: 1})
	r := newTestRetriever(t, fixedExtraction(core.ExtractedQuery{Citation: "taxo.online 4551"}), searcher)

	scored, err := r.RetrieveScored(context.Background(), "section 16(2) and taxo.online 4551", 10)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	assert.Equal(t, "s16", scored[0].Chunk.ID)
	assert.InDelta(t, StatutoryScore, scored[0].Score, 1e-9)
	assert.Equal(t, "k1", scored[1].Chunk.ID)
	assert.InDelta(t, 0.6, scored[1].Score, 1e-9)
	assert.Equal(t, "Refund claim rejected.", scored[1].Chunk.Text)
}

func TestRetrieve_NoJudgmentSignalSkipsMatching(t *testing.T) {
	monitor := &recordingMonitor{}
	r := newTestRetriever(t, fixedExtraction(core.ExtractedQuery{}), fixedHits(), WithMonitor(monitor))

	chunks, err := r.Retrieve(context.Background(), "general question", 10)
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.True(t, monitor.judgments.Empty())
}

func TestRetrieve_VectorBackendFailure(t *testing.T) {
	boom := errors.New("connection refused")
	searcher := searcherFunc(func(context.Context, []float32, int) ([]storage.VectorHit, error) {
		return nil, boom
	})
	r := newTestRetriever(t, fixedExtraction(core.ExtractedQuery{}), searcher)

	chunks, err := r.Retrieve(context.Background(), "section 16(2)", 10)
	assert.ErrorIs(t, err, ErrVectorBackend)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, chunks)

	scored, err := r.RetrieveDegraded(context.Background(), "section 16(2)", 10)
	assert.ErrorIs(t, err, ErrVectorBackend)
	require.Len(t, scored, 1)
	assert.Equal(t, "s16", scored[0].Chunk.ID)
}

func TestRetrieve_EmbedderFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return nil, errors.New("model unavailable")
	}
	r, err := NewRetriever(index.Build(testCorpus()), fixedExtraction(core.ExtractedQuery{}), embedder, fixedHits())
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, ErrVectorBackend)
}

func TestRetrieve_TruncatesToK(t *testing.T) {
	corpus := testCorpus()
	r := newTestRetriever(t, fixedExtraction(core.ExtractedQuery{Citation: "2025 Taxo.online 455"}),
		fixedHits(storage.VectorHit{Chunk: corpus[3], Distance: 0}), WithTopK(2))

	chunks, err := r.Retrieve(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestRetriever_FullJudgments(t *testing.T) {
	r := newTestRetriever(t, fixedExtraction(core.ExtractedQuery{Citation: "2025 Taxo.online 455"}), fixedHits())

	chunks, err := r.Retrieve(context.Background(), "q", 10)
	require.NoError(t, err)

	full := r.FullJudgments(chunks)
	require.Len(t, full, 1)
	assert.Equal(t, "ext-1", full[0].ExternalID)
}

func TestApplyHierarchy(t *testing.T) {
	sc := func(id string, t core.ChunkType, score float64) core.ScoredChunk {
		return core.ScoredChunk{Chunk: &core.Chunk{ID: id, ChunkType: t}, Score: score}
	}
	ranks := priorityRanks(DefaultTypePriority)

	t.Run("reorders within band", func(t *testing.T) {
		in := []core.ScoredChunk{
			sc("rule", core.ChunkTypeRule, 0.9),
			sc("judg", core.ChunkTypeJudgment, 0.8),
			sc("def", core.ChunkTypeDefinition, 0.5),
			sc("judg2", core.ChunkTypeJudgment, 0.45),
		}
		out := applyHierarchy(in, DefaultScoreBand, ranks)
		assert.Equal(t, []string{"judg", "rule", "judg2", "def"}, ids(Chunks(out)))
	})

	t.Run("band edge is inclusive", func(t *testing.T) {
		in := []core.ScoredChunk{
			sc("rule", core.ChunkTypeRule, 1.0),
			sc("judg", core.ChunkTypeJudgment, 0.85),
		}
		out := applyHierarchy(in, DefaultScoreBand, ranks)
		assert.Equal(t, []string{"judg", "rule"}, ids(Chunks(out)))
	})

	t.Run("never swaps across band", func(t *testing.T) {
		in := []core.ScoredChunk{
			sc("rule", core.ChunkTypeRule, 1.0),
			sc("judg", core.ChunkTypeJudgment, 0.84),
		}
		out := applyHierarchy(in, DefaultScoreBand, ranks)
		assert.Equal(t, []string{"rule", "judg"}, ids(Chunks(out)))
	})

	t.Run("unknown types sort last and stay stable", func(t *testing.T) {
		in := []core.ScoredChunk{
			sc("hsn", core.ChunkTypeHSN, 0.9),
			sc("act", core.ChunkTypeAct, 0.9),
			sc("circ", core.ChunkTypeCircular, 0.9),
		}
		out := applyHierarchy(in, DefaultScoreBand, ranks)
		assert.Equal(t, []string{"circ", "hsn", "act"}, ids(Chunks(out)))
	})
}

type recordingMonitor struct {
	noopMonitor
	starts     int
	judgments  judgment.Result
	statutory  statutory.Kind
	suppressed int
	finished   []core.ScoredChunk
}

func (m *recordingMonitor) Start(string)                         { m.starts++ }
func (m *recordingMonitor) AfterJudgmentMatch(r judgment.Result) { m.judgments = r }
func (m *recordingMonitor) AfterStatutoryMatch(k statutory.Kind, _ []*core.Chunk) {
	m.statutory = k
}
func (m *recordingMonitor) Suppressed(*core.Chunk)             { m.suppressed++ }
func (m *recordingMonitor) Finish(results []core.ScoredChunk) { m.finished = results }
