// Package pipeline composes the loader, splitter, store, retriever and
// generator into the two end-to-end operations: batch ingestion and
// exercise generation.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/CTepedino/deep-learning-tp2/internal/generator"
	"github.com/CTepedino/deep-learning-tp2/internal/loader"
	"github.com/CTepedino/deep-learning-tp2/internal/models"
	"github.com/CTepedino/deep-learning-tp2/internal/query"
	"github.com/CTepedino/deep-learning-tp2/internal/splitter"
)

// ErrNoContext is returned when retrieval comes back empty even after full
// filter relaxation. The generator is never called with an empty context; an
// unfounded exercise is worse than no exercise.
var ErrNoContext = errors.New("no hay contexto disponible para la consulta")

// Store is the persistence surface the pipeline writes to and reads from.
type Store interface {
	Upsert(ctx context.Context, chunks []models.Chunk) error
	DeleteBySource(ctx context.Context, source string) error
	Count(ctx context.Context) (int, error)
	Query(ctx context.Context, text string, k int, filter map[string]any) ([]models.Chunk, error)
}

// Retriever runs filtered similarity search with relaxation.
type Retriever interface {
	Retrieve(ctx context.Context, params query.Params, k int) ([]models.Chunk, string, error)
}

// ChunkEmbedder pre-embeds chunks in bulk before they reach the store.
// Optional; without one the store embeds chunk by chunk at write time.
type ChunkEmbedder interface {
	EmbedChunks(ctx context.Context, chunks []models.Chunk, progressFunc func(processed, total int)) ([]models.Chunk, error)
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	DocumentsLoaded int
	ChunksCreated   int
	Failures        []loader.Failure
}

// Result is one generation request's outcome, with enough metadata to trace
// where the exercises came from.
type Result struct {
	RequestID       string
	Ejercicios      []models.Exercise
	ChunksUsed      int
	Sources         []string
	RelaxationLevel string
}

type Pipeline struct {
	loader    *loader.Loader
	splitter  *splitter.Splitter
	embedder  ChunkEmbedder
	store     Store
	retriever Retriever
	generator generator.Generator
	logger    zerolog.Logger
}

func New(l *loader.Loader, s *splitter.Splitter, emb ChunkEmbedder, store Store, r Retriever, gen generator.Generator) *Pipeline {
	return &Pipeline{
		loader:    l,
		splitter:  s,
		embedder:  emb,
		store:     store,
		retriever: r,
		generator: gen,
		logger:    log.With().Str("component", "pipeline").Logger(),
	}
}

// Ingest loads every supported file under root, splits it, and upserts the
// chunks. Per-file load failures are recorded and skipped; a store failure
// aborts the run with the report built so far. With force, each file's old
// chunks are deleted before the new ones land.
func (p *Pipeline) Ingest(ctx context.Context, root string, force bool) (*IngestReport, error) {
	batch, err := p.loader.LoadDirectory(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("loading directory %s: %w", root, err)
	}

	report := &IngestReport{
		DocumentsLoaded: batch.Loaded,
		Failures:        batch.Failures,
	}

	for _, doc := range batch.Documents {
		chunks := p.splitter.Split(doc)
		if len(chunks) == 0 {
			continue
		}

		if p.embedder != nil {
			chunks, err = p.embedder.EmbedChunks(ctx, chunks, func(processed, total int) {
				if processed == total {
					p.logger.Debug().Str("source", doc.Source).Int("chunks", total).Msg("embedded document")
				}
			})
			if err != nil {
				return report, fmt.Errorf("embedding %s: %w", doc.Source, err)
			}
		}

		if force {
			if err := p.store.DeleteBySource(ctx, doc.Source); err != nil {
				return report, err
			}
		}
		if err := p.store.Upsert(ctx, chunks); err != nil {
			return report, err
		}
		report.ChunksCreated += len(chunks)
	}

	p.logger.Info().
		Int("documents", report.DocumentsLoaded).
		Int("chunks", report.ChunksCreated).
		Int("failures", len(report.Failures)).
		Msg("ingestion finished")
	return report, nil
}

// GenerateExercises runs one request end to end: normalize, retrieve with
// the relaxation ladder, guard against an empty context, generate, validate.
func (p *Pipeline) GenerateExercises(ctx context.Context, params query.Params, k int) (*Result, error) {
	params.Normalize()

	chunks, level, err := p.retriever.Retrieve(ctx, params, k)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrNoContext
	}

	exercises, err := p.generator.Generate(ctx, chunks, params)
	if err != nil {
		return nil, err
	}

	return &Result{
		RequestID:       uuid.NewString(),
		Ejercicios:      exercises,
		ChunksUsed:      len(chunks),
		Sources:         uniqueSources(chunks),
		RelaxationLevel: level,
	}, nil
}

// SearchMaterials exposes raw filtered retrieval, mainly for inspecting what
// the index holds for a given query.
func (p *Pipeline) SearchMaterials(ctx context.Context, text string, k int, filter map[string]any) ([]models.Chunk, error) {
	return p.store.Query(ctx, text, k, filter)
}

func uniqueSources(chunks []models.Chunk) []string {
	seen := make(map[string]bool, len(chunks))
	var sources []string
	for _, c := range chunks {
		if !seen[c.Source] {
			seen[c.Source] = true
			sources = append(sources, c.Source)
		}
	}
	return sources
}
