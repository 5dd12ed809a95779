// Package retriever runs filtered similarity search with a progressive
// filter-relaxation ladder: the corpus is small, and a strict filter must
// not starve generation of context.
package retriever

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/CTepedino/deep-learning-tp2/internal/models"
	"github.com/CTepedino/deep-learning-tp2/internal/query"
)

// Searcher is the store capability the retriever needs.
type Searcher interface {
	Query(ctx context.Context, text string, k int, filter map[string]any) ([]models.Chunk, error)
}

// Relaxation is one rung of the ladder: a name for logging and the filter
// keys it gives up on.
type Relaxation struct {
	Level string
	Drop  []string
}

// Ladder is applied in order until a rung returns results. The final rung
// drops the filter entirely, leaving pure similarity search.
var Ladder = []Relaxation{
	{Level: "filtro_completo"},
	{Level: "sin_unidad", Drop: []string{"unidad_numero", "unidad_tema"}},
	{Level: "solo_materia", Drop: []string{"unidad_numero", "unidad_tema", "tipo_documento"}},
	{Level: "sin_filtro", Drop: []string{"materia", "unidad_numero", "unidad_tema", "tipo_documento"}},
}

type Retriever struct {
	store  Searcher
	logger zerolog.Logger
}

func New(store Searcher) *Retriever {
	return &Retriever{
		store:  store,
		logger: log.With().Str("component", "retriever").Logger(),
	}
}

// Retrieve walks the ladder until a rung yields chunks, returning them
// most-similar first along with the relaxation level used. An empty result
// after the last rung is not an error; the caller decides what an empty
// context means.
func (r *Retriever) Retrieve(ctx context.Context, params query.Params, k int) ([]models.Chunk, string, error) {
	params.Normalize()
	text := params.SearchText()
	full := params.Filter()

	var lastLevel string
	prevLen := -1
	for _, rung := range Ladder {
		filter := applyRelaxation(full, rung)
		if len(filter) == prevLen {
			// Dropping keys the filter never had; same query, skip it.
			continue
		}
		prevLen = len(filter)
		lastLevel = rung.Level

		chunks, err := r.store.Query(ctx, text, k, filter)
		if err != nil {
			return nil, "", fmt.Errorf("retrieving at level %s: %w", rung.Level, err)
		}
		if len(chunks) > 0 {
			if rung.Level != Ladder[0].Level {
				r.logger.Info().Str("level", rung.Level).Int("chunks", len(chunks)).Msg("filter relaxed to find context")
			}
			return chunks, rung.Level, nil
		}
	}

	r.logger.Warn().Str("query", text).Msg("no chunks found at any relaxation level")
	return nil, lastLevel, nil
}

func applyRelaxation(full map[string]any, rung Relaxation) map[string]any {
	filter := make(map[string]any, len(full))
	for k, v := range full {
		filter[k] = v
	}
	for _, key := range rung.Drop {
		delete(filter, key)
	}
	return filter
}
