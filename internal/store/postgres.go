// Package store persists chunks as content-addressed embedding records in
// Postgres with the pgvector extension, and serves filtered similarity
// search over them.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/CTepedino/deep-learning-tp2/internal/models"
)

// StoreError marks a backing-store failure. Store errors are fatal for the
// current operation; ingestion halts rather than reporting false success.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Embedder is the provider the store uses to embed query text and any chunk
// that arrives without a vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Store is the Postgres-backed vector store. It is handed to components
// explicitly; Close releases the pool.
type Store struct {
	pool     *pgxpool.Pool
	embedder Embedder
	dim      int
	logger   zerolog.Logger
}

// New connects to Postgres and verifies the connection.
func New(ctx context.Context, connStr string, embedder Embedder, dim int) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, &StoreError{Op: "connect", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &StoreError{Op: "ping", Err: err}
	}
	if dim <= 0 {
		dim = 768
	}
	return &Store{
		pool:     pool,
		embedder: embedder,
		dim:      dim,
		logger:   log.With().Str("component", "store").Logger(),
	}, nil
}

// Initialize sets up the pgvector extension, the chunk table and its indexes.
func (s *Store) Initialize(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`)
	if err != nil {
		return &StoreError{Op: "create extension", Err: err}
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS exercise_chunks (
            id TEXT PRIMARY KEY,
            source TEXT NOT NULL,
            chunk_index INTEGER NOT NULL,
            start_offset INTEGER NOT NULL DEFAULT 0,
            content TEXT NOT NULL,
            metadata JSONB NOT NULL DEFAULT '{}',
            embedding vector(%d) NOT NULL
        )
    `, s.dim))
	if err != nil {
		return &StoreError{Op: "create table", Err: err}
	}

	_, err = s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS exercise_chunks_embedding_idx ON exercise_chunks
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)
	`)
	if err != nil {
		return &StoreError{Op: "create vector index", Err: err}
	}

	_, err = s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS exercise_chunks_source_idx ON exercise_chunks (source);
		CREATE INDEX IF NOT EXISTS exercise_chunks_metadata_idx ON exercise_chunks USING gin (metadata);
	`)
	if err != nil {
		return &StoreError{Op: "create indices", Err: err}
	}

	return nil
}

// ChunkID derives the storage key from the chunk's identity. Re-ingesting an
// unchanged file produces the same ids, so upserts never duplicate.
func ChunkID(source string, chunkIndex int) string {
	sum := sha256.Sum256([]byte(source + "#" + strconv.Itoa(chunkIndex)))
	return hex.EncodeToString(sum[:])
}

// Upsert writes chunks to the store, embedding any that arrive without a
// vector. Existing records with the same id are overwritten.
func (s *Store) Upsert(ctx context.Context, chunks []models.Chunk) error {
	for i := range chunks {
		if len(chunks[i].Embedding) == 0 {
			emb, err := s.embedder.EmbedText(ctx, chunks[i].Content)
			if err != nil {
				return &StoreError{Op: "embed chunk", Err: err}
			}
			chunks[i].Embedding = emb
		}

		metadataJSON, err := json.Marshal(chunks[i].Metadata)
		if err != nil {
			return &StoreError{Op: "marshal metadata", Err: err}
		}

		_, err = s.pool.Exec(ctx, `
            INSERT INTO exercise_chunks (id, source, chunk_index, start_offset, content, metadata, embedding)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT (id) DO UPDATE SET
                source = EXCLUDED.source,
                chunk_index = EXCLUDED.chunk_index,
                start_offset = EXCLUDED.start_offset,
                content = EXCLUDED.content,
                metadata = EXCLUDED.metadata,
                embedding = EXCLUDED.embedding
        `,
			ChunkID(chunks[i].Source, chunks[i].ChunkIndex),
			chunks[i].Source,
			chunks[i].ChunkIndex,
			chunks[i].StartOffset,
			chunks[i].Content,
			metadataJSON,
			pgvector.NewVector(chunks[i].Embedding))
		if err != nil {
			return &StoreError{Op: "upsert chunk", Err: err}
		}
	}

	s.logger.Debug().Int("chunks", len(chunks)).Msg("upserted chunks")
	return nil
}

// Query embeds text and returns the k nearest chunks by cosine distance.
// filter, when non-empty, is an exact-match conjunction applied through JSONB
// containment; fewer than k matches returns however many exist.
func (s *Store) Query(ctx context.Context, text string, k int, filter map[string]any) ([]models.Chunk, error) {
	emb, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, &StoreError{Op: "embed query", Err: err}
	}
	vec := pgvector.NewVector(emb)

	var rows pgx.Rows
	if len(filter) > 0 {
		filterJSON, merr := json.Marshal(filter)
		if merr != nil {
			return nil, &StoreError{Op: "marshal filter", Err: merr}
		}
		rows, err = s.pool.Query(ctx, `
			SELECT source, chunk_index, start_offset, content, metadata
			FROM exercise_chunks
			WHERE metadata @> $1
			ORDER BY embedding <=> $2
			LIMIT $3
		`, filterJSON, vec, k)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT source, chunk_index, start_offset, content, metadata
			FROM exercise_chunks
			ORDER BY embedding <=> $1
			LIMIT $2
		`, vec, k)
	}
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var chunk models.Chunk
		var metadataJSON []byte
		if err := rows.Scan(&chunk.Source, &chunk.ChunkIndex, &chunk.StartOffset, &chunk.Content, &metadataJSON); err != nil {
			return nil, &StoreError{Op: "scan row", Err: err}
		}
		if err := json.Unmarshal(metadataJSON, &chunk.Metadata); err != nil {
			return nil, &StoreError{Op: "unmarshal metadata", Err: err}
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "iterate rows", Err: err}
	}

	return chunks, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exercise_chunks`).Scan(&n); err != nil {
		return 0, &StoreError{Op: "count", Err: err}
	}
	return n, nil
}

// DeleteBySource removes every chunk belonging to one source file. Force
// re-ingestion calls this before upserting so stale chunks from an edited
// file cannot remain.
func (s *Store) DeleteBySource(ctx context.Context, source string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM exercise_chunks WHERE source = $1`, source)
	if err != nil {
		return &StoreError{Op: "delete by source", Err: err}
	}
	s.logger.Debug().Str("source", source).Int64("deleted", tag.RowsAffected()).Msg("deleted source chunks")
	return nil
}

// DeleteAll empties the store.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM exercise_chunks`); err != nil {
		return &StoreError{Op: "delete all", Err: err}
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
