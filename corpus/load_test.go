package corpus

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/poiesic/lexcite/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arrayCorpus = `[
  {"id": "s16-2", "chunk_type": "operative", "text": "Every registered person shall...", "is_statutory": true, "section_number": "16", "subsection": "2"},
  {"chunk_type": "judgment", "text": "The petitioner contends...", "metadata": {"external_id": "ext-1", "citation": "2025 Taxo.online 455"}}
]`

const linesCorpus = `{"id": "r36", "chunk_type": "rule", "text": "Documentary requirements", "rule_number": "36"}

{"id": "hsn-8471", "chunk_type": "hsn", "text": "Automatic data processing machines", "metadata": {"hsn_code": "8471"}}
`

func TestDecode_Array(t *testing.T) {
	chunks, err := Decode(strings.NewReader(arrayCorpus))
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "s16-2", chunks[0].ID)
	assert.True(t, chunks[0].IsStatutory)
	assert.Equal(t, "2", chunks[0].Subsection)

	assert.True(t, strings.HasPrefix(chunks[1].ID, "chunk-"))
	assert.Equal(t, "ext-1", chunks[1].ExternalID())
}

func TestDecode_JSONLines(t *testing.T) {
	chunks, err := Decode(strings.NewReader(linesCorpus))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "36", chunks[0].RuleNumber)
	assert.Equal(t, "8471", chunks[1].Meta(core.MetaHSNCode))
}

func TestDecode_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		chunks, err := Decode(strings.NewReader("  \n"))
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{"id": "x",`))
		assert.ErrorIs(t, err, ErrInvalidCorpus)
	})

	t.Run("invalid chunk", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`[{"id": "j", "chunk_type": "judgment", "text": "no external id"}]`))
		assert.ErrorIs(t, err, ErrInvalidCorpus)
		assert.ErrorIs(t, err, core.ErrInvalidChunk)
	})
}

func TestDecode_DuplicateIDsKeepFirst(t *testing.T) {
	chunks, err := Decode(strings.NewReader(`[
		{"id": "a", "chunk_type": "act", "text": "first"},
		{"id": "a", "chunk_type": "act", "text": "second"}
	]`))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "first", chunks[0].Text)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(linesCorpus), 0o644))

	chunks, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

type fakeS3 struct {
	bucket, key string
	body        string
	err         error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket, f.key = *in.Bucket, *in.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(f.body))}, nil
}

func TestLoad_S3(t *testing.T) {
	client := &fakeS3{body: arrayCorpus}

	chunks, err := Load(context.Background(), "s3://legal-corpus/gst/chunks.json", WithS3Client(client))
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
	assert.Equal(t, "legal-corpus", client.bucket)
	assert.Equal(t, "gst/chunks.json", client.key)

	client.err = errors.New("access denied")
	_, err = Load(context.Background(), "s3://legal-corpus/gst/chunks.json", WithS3Client(client))
	assert.ErrorContains(t, err, "access denied")
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource(context.Background(), "data/chunks.json")
	require.NoError(t, err)
	assert.Equal(t, FileSource{Path: "data/chunks.json"}, src)

	src, err = ParseSource(context.Background(), "s3://bucket/a/b.jsonl", WithS3Client(&fakeS3{}))
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/a/b.jsonl", src.String())

	_, err = ParseSource(context.Background(), "s3://bucket-only")
	assert.ErrorIs(t, err, ErrInvalidSource)
	_, err = ParseSource(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidSource)
}
