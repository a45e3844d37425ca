// Package pgstore implements storage.VectorStore on PostgreSQL with the
// pgvector extension.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/storage"
)

const defaultTable = "lexcite_chunks"

// Store keeps chunk embeddings in a pgvector column next to the chunk JSON.
type Store struct {
	db        *sql.DB
	table     string
	dimension int
	logger    *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithTable overrides the table name.
func WithTable(name string) Option {
	return func(s *Store) {
		s.table = name
	}
}

// Open connects to dsn and creates the vector table if needed.
func Open(ctx context.Context, dsn string, dimension int, opts ...Option) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", storage.ErrInvalidQuery)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	s := &Store{
		db:        db,
		table:     defaultTable,
		dimension: dimension,
		logger:    slog.Default().With("component", "pgstore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if err := s.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		chunk_id TEXT PRIMARY KEY,
		chunk JSONB NOT NULL,
		embedding vector(%d) NOT NULL
	)`, s.table, s.dimension)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	s.logger.Debug("vector table ready", "table", s.table, "dimension", s.dimension)
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutVectors upserts embeddings and their chunks in one transaction.
func (s *Store) PutVectors(ctx context.Context, entries ...storage.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (chunk_id, chunk, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (chunk_id) DO UPDATE SET chunk = EXCLUDED.chunk, embedding = EXCLUDED.embedding`, s.table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range entries {
		if entry.Chunk == nil || entry.Chunk.ID == "" {
			return fmt.Errorf("%w: vector entry without chunk", storage.ErrInvalidQuery)
		}
		if len(entry.Vector) != s.dimension {
			return fmt.Errorf("%w: got %d, want %d", storage.ErrDimensionMismatch, len(entry.Vector), s.dimension)
		}
		data, err := json.Marshal(entry.Chunk)
		if err != nil {
			return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
		if _, err := stmt.ExecContext(ctx, entry.Chunk.ID, data, pgvector.NewVector(entry.Vector)); err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", entry.Chunk.ID, err)
		}
	}
	return tx.Commit()
}

// Search returns the topK chunks nearest to vector by L2 distance.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]storage.VectorHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", storage.ErrInvalidQuery)
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", storage.ErrDimensionMismatch, len(vector), s.dimension)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT chunk, embedding <-> $1 AS distance
		FROM %s ORDER BY embedding <-> $1 LIMIT $2`, s.table), pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	defer rows.Close()

	var hits []storage.VectorHit
	for rows.Next() {
		var data []byte
		var distance float64
		if err := rows.Scan(&data, &distance); err != nil {
			return nil, err
		}
		chunk := &core.Chunk{}
		if err := json.Unmarshal(data, chunk); err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
		hits = append(hits, storage.VectorHit{Chunk: chunk, Distance: float32(distance)})
	}
	return hits, rows.Err()
}

// CountVectors returns the number of rows in the vector table.
func (s *Store) CountVectors(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&count)
	return count, err
}
