// Package query normalizes user-supplied generation parameters into the
// canonical filter vocabulary and search text the retriever works with.
package query

import (
	"strconv"
	"strings"

	"github.com/CTepedino/deep-learning-tp2/internal/metadata"
)

const (
	MinCantidad = 1
	MaxCantidad = 10

	DefaultNivel = "intermedio"
)

// Exercise types the generator knows how to produce.
const (
	TipoMultipleChoice = "multiple_choice"
	TipoDesarrollo     = "desarrollo"
	TipoPractico       = "practico"
	TipoTeorico        = "teorico"
)

// Params is one generation request as the user states it. Unidad accepts a
// bare number ("2") or a topic name; ConsultaLibre is free text appended to
// the similarity search.
type Params struct {
	Materia         string
	Unidad          string
	TipoEjercicio   string
	Cantidad        int
	NivelDificultad string
	ConsultaLibre   string
}

// searchHints biases the similarity search toward the kind of passage each
// exercise type feeds on.
var searchHints = map[string]string{
	TipoMultipleChoice: "conceptos definiciones",
	TipoPractico:       "ejercicios problemas calculos",
	TipoDesarrollo:     "teoria explicaciones",
	TipoTeorico:        "teoria explicaciones",
}

var tipoEjercicioSynonyms = map[string]string{
	"multiple_choice": TipoMultipleChoice,
	"multiple choice": TipoMultipleChoice,
	"opcion multiple": TipoMultipleChoice,
	"desarrollo":      TipoDesarrollo,
	"practico":        TipoPractico,
	"practica":        TipoPractico,
	"teorico":         TipoTeorico,
	"teoria":          TipoTeorico,
}

// Normalize canonicalizes the request in place: subject through the shared
// subject table, cantidad bounded to [1,10], difficulty defaulted. Values the
// tables don't recognize pass through as literal best-effort filters.
func (p *Params) Normalize() {
	p.Materia = strings.TrimSpace(p.Materia)
	if p.Materia != "" {
		canon, _ := metadata.CanonicalSubject(p.Materia)
		p.Materia = canon
	}

	p.Unidad = strings.TrimSpace(p.Unidad)

	tipo := metadata.Fold(strings.TrimSpace(p.TipoEjercicio))
	if canon, ok := tipoEjercicioSynonyms[tipo]; ok {
		p.TipoEjercicio = canon
	}

	if p.Cantidad < MinCantidad {
		p.Cantidad = MinCantidad
	}
	if p.Cantidad > MaxCantidad {
		p.Cantidad = MaxCantidad
	}

	p.NivelDificultad = metadata.Fold(strings.TrimSpace(p.NivelDificultad))
	if p.NivelDificultad == "" {
		p.NivelDificultad = DefaultNivel
	}
}

// UnidadNumero reports the unit as a number when the user gave one.
func (p *Params) UnidadNumero() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(p.Unidad))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// SearchText builds the similarity-search query: subject, unit, type hints
// and whatever the user typed.
func (p *Params) SearchText() string {
	var parts []string
	if p.Materia != "" {
		parts = append(parts, p.Materia)
	}
	if p.Unidad != "" {
		parts = append(parts, "unidad "+p.Unidad)
	}
	if hint, ok := searchHints[p.TipoEjercicio]; ok {
		parts = append(parts, hint)
	}
	if p.NivelDificultad != "" && p.NivelDificultad != DefaultNivel {
		parts = append(parts, "nivel "+p.NivelDificultad)
	}
	if p.ConsultaLibre != "" {
		parts = append(parts, p.ConsultaLibre)
	}
	return strings.Join(parts, " ")
}

// Filter builds the canonical metadata filter for the store: an exact-match
// conjunction over the serialized metadata keys.
func (p *Params) Filter() map[string]any {
	filter := map[string]any{}
	if p.Materia != "" {
		filter["materia"] = p.Materia
	}
	if n, ok := p.UnidadNumero(); ok {
		filter["unidad_numero"] = n
	} else if p.Unidad != "" {
		filter["unidad_tema"] = p.Unidad
	}
	if p.TipoEjercicio != "" {
		if tipo := tipoDocumentoFor(p.TipoEjercicio); tipo != "" {
			filter["tipo_documento"] = tipo
		}
	}
	return filter
}

// tipoDocumentoFor maps an exercise type to the document category most
// likely to contain raw material for it.
func tipoDocumentoFor(tipoEjercicio string) string {
	switch tipoEjercicio {
	case TipoPractico, TipoMultipleChoice:
		return "ejercicios"
	case TipoDesarrollo, TipoTeorico:
		return "apuntes"
	default:
		return ""
	}
}
