package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/lexcite/core"
)

// Load resolves location, reads it and decodes the chunks.
func Load(ctx context.Context, location string, opts ...SourceOption) ([]*core.Chunk, error) {
	src, err := ParseSource(ctx, location, opts...)
	if err != nil {
		return nil, err
	}
	return LoadSource(ctx, src)
}

// LoadSource reads and decodes the chunks of a source.
func LoadSource(ctx context.Context, src Source) ([]*core.Chunk, error) {
	logger := slog.Default().With("component", "corpus")

	r, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	chunks, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	logger.Info("corpus loaded", "source", src.String(), "chunks", len(chunks))
	return chunks, nil
}

// Decode reads chunks from either a JSON array or a JSON Lines stream.
// Chunks without an ID get a content-derived one; every chunk is validated
// and the first chunk wins when IDs repeat.
func Decode(r io.Reader) ([]*core.Chunk, error) {
	br := bufio.NewReader(r)
	first, err := firstNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	dec := json.NewDecoder(br)
	var raw []*core.Chunk
	if first == '[' {
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCorpus, err)
		}
	} else {
		for line := 1; ; line++ {
			var chunk core.Chunk
			if err := dec.Decode(&chunk); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidCorpus, line, err)
			}
			raw = append(raw, &chunk)
		}
	}

	seen := make(map[string]bool, len(raw))
	chunks := make([]*core.Chunk, 0, len(raw))
	for i, chunk := range raw {
		core.AssignID(chunk)
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidCorpus, i+1, err)
		}
		if seen[chunk.ID] {
			slog.Default().Warn("duplicate chunk id, keeping first", "component", "corpus", "chunk_id", chunk.ID)
			continue
		}
		seen[chunk.ID] = true
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// firstNonSpace peeks at the first significant byte without consuming it.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
