package pgstore

import (
	"context"
	"os"
	"testing"

	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("LEXCITE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("LEXCITE_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	store, err := Open(ctx, dsn, 2, WithTable("lexcite_test_chunks"))
	require.NoError(t, err)
	t.Cleanup(func() {
		store.db.ExecContext(ctx, `DROP TABLE IF EXISTS lexcite_test_chunks`)
		store.Close()
	})
	return store
}

func TestOpen_RejectsZeroDimension(t *testing.T) {
	_, err := Open(context.Background(), "postgres://unused", 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestStore_PutAndSearch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a := &core.Chunk{ID: "a", ChunkType: core.ChunkTypeAct, Text: "alpha"}
	b := &core.Chunk{ID: "b", ChunkType: core.ChunkTypeAct, Text: "beta"}
	require.NoError(t, store.PutVectors(ctx,
		storage.VectorEntry{Chunk: a, Vector: []float32{0, 1}},
		storage.VectorEntry{Chunk: b, Vector: []float32{0, 5}},
	))

	hits, err := store.Search(ctx, []float32{0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Chunk.ID)
	assert.InDelta(t, 1.0, hits[0].Distance, 1e-5)

	count, err := store.CountVectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	err = store.PutVectors(ctx, storage.VectorEntry{Chunk: a, Vector: []float32{1}})
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}
