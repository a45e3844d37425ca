package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepos(t *testing.T) *MemoryRepositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func chunk(id string, chunkType core.ChunkType, text string) *core.Chunk {
	c := &core.Chunk{ID: id, ChunkType: chunkType, Text: text}
	if chunkType == core.ChunkTypeJudgment {
		c.Metadata = map[string]string{core.MetaExternalID: "ext-" + id}
	}
	return c
}

func TestCorpus_AddAndGet(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	err := repos.Corpus.AddChunks(ctx,
		chunk("a", core.ChunkTypeDefinition, "supply includes all forms"),
		chunk("b", core.ChunkTypeJudgment, "the petitioner contends"),
	)
	require.NoError(t, err)

	got, err := repos.Corpus.GetChunk(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "the petitioner contends", got.Text)
	assert.Equal(t, "ext-b", got.ExternalID())

	_, err = repos.Corpus.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	many, err := repos.Corpus.GetChunks(ctx, "b", "missing", "a")
	require.NoError(t, err)
	require.Len(t, many, 2)
	assert.Equal(t, "b", many[0].ID)
	assert.Equal(t, "a", many[1].ID)
}

func TestCorpus_InvalidChunkRejected(t *testing.T) {
	repos := newTestRepos(t)

	err := repos.Corpus.AddChunks(context.Background(), &core.Chunk{ID: "x", ChunkType: core.ChunkTypeAct})
	assert.ErrorIs(t, err, core.ErrInvalidChunk)
}

func TestCorpus_AllChunksKeepsInsertionOrder(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	var chunks []*core.Chunk
	for i := 0; i < writeBatchSize+10; i++ {
		chunks = append(chunks, chunk(fmt.Sprintf("z%04d", writeBatchSize+10-i), core.ChunkTypeRule, "rule text"))
	}
	require.NoError(t, repos.Corpus.AddChunks(ctx, chunks...))

	all, err := repos.Corpus.AllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(chunks))
	for i := range chunks {
		assert.Equal(t, chunks[i].ID, all[i].ID)
	}

	count, err := repos.Corpus.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(chunks), count)
}

func TestCorpus_ReplaceKeepsPosition(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Corpus.AddChunks(ctx,
		chunk("first", core.ChunkTypeAct, "one"),
		chunk("second", core.ChunkTypeAct, "two"),
	))
	require.NoError(t, repos.Corpus.AddChunks(ctx, chunk("first", core.ChunkTypeAct, "one, revised")))

	all, err := repos.Corpus.AllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].ID)
	assert.Equal(t, "one, revised", all[0].Text)
	assert.Equal(t, "second", all[1].ID)
}
