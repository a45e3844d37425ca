package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/lexcite/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbeddings struct {
	queries   []string
	documents [][]string
	vectors   [][]float32
	err       error
}

func (f *fakeEmbeddings) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.documents = append(f.documents, texts)
	return f.vectors, f.err
}

func (f *fakeEmbeddings) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors[0], nil
}

func TestEmbedder_EmbedTextUsesQueryPath(t *testing.T) {
	fake := &fakeEmbeddings{vectors: [][]float32{{0.1, 0.2}}}
	e := wrapEmbedder(fake, "all-minilm")

	v, err := e.EmbedText(context.Background(), "section 16(2) input tax credit")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, v)
	assert.Equal(t, []string{"section 16(2) input tax credit"}, fake.queries)
	assert.Empty(t, fake.documents)
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	t.Run("one vector per chunk", func(t *testing.T) {
		fake := &fakeEmbeddings{vectors: [][]float32{{1, 0}, {0, 1}}}
		e := wrapEmbedder(fake, "all-minilm")

		vectors, err := e.EmbedTexts(context.Background(), []string{"rule 36", "section 9"})
		require.NoError(t, err)
		assert.Len(t, vectors, 2)
		assert.Empty(t, fake.queries)
	})

	t.Run("no texts skips the request", func(t *testing.T) {
		fake := &fakeEmbeddings{}
		vectors, err := wrapEmbedder(fake, "m").EmbedTexts(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, vectors)
		assert.Empty(t, fake.documents)
	})

	t.Run("short response", func(t *testing.T) {
		fake := &fakeEmbeddings{vectors: [][]float32{{1, 0}}}
		_, err := wrapEmbedder(fake, "m").EmbedTexts(context.Background(), []string{"a", "b"})
		assert.ErrorIs(t, err, ai.ErrEmbeddingMismatch)
	})

	t.Run("ragged dimensions", func(t *testing.T) {
		fake := &fakeEmbeddings{vectors: [][]float32{{1, 0}, {1}}}
		_, err := wrapEmbedder(fake, "m").EmbedTexts(context.Background(), []string{"a", "b"})
		assert.ErrorIs(t, err, ai.ErrEmbeddingMismatch)
	})

	t.Run("backend error", func(t *testing.T) {
		boom := errors.New("connection refused")
		fake := &fakeEmbeddings{err: boom}
		_, err := wrapEmbedder(fake, "m").EmbedTexts(context.Background(), []string{"a"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestNewEmbedder_InvalidConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithGenerationModel(""))
	_, err := NewEmbedder(cfg)
	assert.Error(t, err)
}
