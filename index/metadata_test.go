package index

import (
	"testing"

	"github.com/poiesic/lexcite/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCorpus() []*core.Chunk {
	return []*core.Chunk{
		{ID: "s9-1", ChunkType: core.ChunkTypeOperative, Text: "9(1)", SectionNumber: "9", Subsection: "1", IsStatutory: true},
		{ID: "s9-2", ChunkType: core.ChunkTypeOperative, Text: "9(2)", SectionNumber: "9", Subsection: "2", IsStatutory: true},
		{ID: "s9-1b", ChunkType: core.ChunkTypeOperative, Text: "9(1) proviso", SectionNumber: "9", Subsection: "1", IsStatutory: true},
		{ID: "s16", ChunkType: core.ChunkTypeOperative, Text: "16", SectionNumber: "16", IsStatutory: true},
		{ID: "r36", ChunkType: core.ChunkTypeRule, Text: "Rule 36", RuleNumber: "36", IsStatutory: true},
		{ID: "hsn", ChunkType: core.ChunkTypeHSN, Text: "Tea", Metadata: map[string]string{core.MetaHSNCode: "0902"}},
		{ID: "sac", ChunkType: core.ChunkTypeSAC, Text: "Legal services", Metadata: map[string]string{core.MetaSACCode: "9982"}},
		{ID: "j1-0", ChunkType: core.ChunkTypeJudgment, Text: "part one", Metadata: map[string]string{
			core.MetaExternalID: "ext-1", core.MetaCitation: "2025 Taxo.online 455",
		}},
		{ID: "j1-1", ChunkType: core.ChunkTypeJudgment, Text: "part two", Metadata: map[string]string{
			core.MetaExternalID: "ext-1", core.MetaCitation: "2025 Taxo.online 455",
		}},
		nil,
	}
}

func TestBuild(t *testing.T) {
	idx := Build(testCorpus())
	require.NotNil(t, idx)
	assert.Equal(t, 10, idx.Len())

	t.Run("by citation", func(t *testing.T) {
		hits := idx.ByCitation("2025taxoonline455")
		require.Len(t, hits, 2)
		assert.Equal(t, "j1-0", hits[0].ID)
		assert.Equal(t, "j1-1", hits[1].ID)

		assert.Len(t, idx.ByCitation("2025 TAXO.ONLINE 455"), 2)
		assert.Empty(t, idx.ByCitation("2024 TMI 1"))
	})

	t.Run("by section and subsection", func(t *testing.T) {
		hits := idx.BySection("9", "1")
		require.Len(t, hits, 2)
		assert.Equal(t, "s9-1", hits[0].ID)
		assert.Equal(t, "s9-1b", hits[1].ID)
		assert.Empty(t, idx.BySection("9", "3"))
	})

	t.Run("by section number unions subsections", func(t *testing.T) {
		hits := idx.BySectionNumber("9")
		ids := make([]string, 0, len(hits))
		for _, h := range hits {
			ids = append(ids, h.ID)
		}
		assert.Equal(t, []string{"s9-1", "s9-1b", "s9-2"}, ids)
		assert.Len(t, idx.BySectionNumber("16"), 1)
		assert.Empty(t, idx.BySectionNumber("99"))
	})

	t.Run("by rule hsn sac", func(t *testing.T) {
		assert.Len(t, idx.ByRule("36"), 1)
		assert.Len(t, idx.ByHSN("0902"), 1)
		assert.Len(t, idx.BySAC("9982"), 1)
		assert.Empty(t, idx.ByRule("37"))
	})

	t.Run("by external id and judgments", func(t *testing.T) {
		assert.Len(t, idx.ByExternalID("ext-1"), 2)
		assert.Len(t, idx.Judgments(), 2)
	})
}

func TestBuildEmpty(t *testing.T) {
	idx := Build(nil)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Judgments())
	assert.Empty(t, idx.ByCitation("x"))
}

func TestLookupsDoNotExposeBuckets(t *testing.T) {
	corpus := testCorpus()
	idx := Build(corpus)

	hits := idx.ByCitation("2025 Taxo.online 455")
	require.Len(t, hits, 2)
	hits[0], hits[1] = hits[1], hits[0]
	_ = append(hits[:1], &core.Chunk{ID: "intruder"})
	assert.Equal(t, "j1-0", idx.ByCitation("2025 Taxo.online 455")[0].ID)
	assert.Equal(t, "j1-1", idx.ByCitation("2025 Taxo.online 455")[1].ID)

	judgments := idx.Judgments()
	judgments[0] = nil
	assert.NotNil(t, idx.Judgments()[0])

	section := idx.BySection("9", "1")
	section[1] = corpus[3]
	assert.Equal(t, "s9-1b", idx.BySection("9", "1")[1].ID)

	corpus[0] = nil
	assert.NotNil(t, idx.Chunks()[0])

	for _, lookup := range []func() []*core.Chunk{
		func() []*core.Chunk { return idx.ByRule("36") },
		func() []*core.Chunk { return idx.ByHSN("0902") },
		func() []*core.Chunk { return idx.BySAC("9982") },
		func() []*core.Chunk { return idx.ByExternalID("ext-1") },
	} {
		got := lookup()
		got[0] = nil
		assert.NotNil(t, lookup()[0])
	}
}
