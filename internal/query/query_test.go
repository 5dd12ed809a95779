package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCanonicalizesMateria(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SIA", "Sistemas de Inteligencia Artificial"},
		{"probabilidad", "Probabilidad y estadistica"},
		{"Probabilidad y Estadística", "Probabilidad y estadistica"},
		{"Materia Inventada", "Materia Inventada"},
	}
	for _, tt := range tests {
		p := Params{Materia: tt.in}
		p.Normalize()
		assert.Equal(t, tt.want, p.Materia, "input %q", tt.in)
	}
}

func TestNormalizeBoundsCantidad(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 1},
		{-5, 1},
		{3, 3},
		{10, 10},
		{50, 10},
	}
	for _, tt := range tests {
		p := Params{Cantidad: tt.in}
		p.Normalize()
		assert.Equal(t, tt.want, p.Cantidad)
	}
}

func TestNormalizeDefaultsNivel(t *testing.T) {
	p := Params{}
	p.Normalize()
	assert.Equal(t, "intermedio", p.NivelDificultad)

	p = Params{NivelDificultad: "Avanzado"}
	p.Normalize()
	assert.Equal(t, "avanzado", p.NivelDificultad)
}

func TestNormalizeTipoSynonyms(t *testing.T) {
	p := Params{TipoEjercicio: "Opcion Multiple"}
	p.Normalize()
	assert.Equal(t, TipoMultipleChoice, p.TipoEjercicio)

	p = Params{TipoEjercicio: "practica"}
	p.Normalize()
	assert.Equal(t, TipoPractico, p.TipoEjercicio)
}

func TestFilter(t *testing.T) {
	p := Params{Materia: "SIA", Unidad: "2", TipoEjercicio: TipoPractico}
	p.Normalize()

	assert.Equal(t, map[string]any{
		"materia":        "Sistemas de Inteligencia Artificial",
		"unidad_numero":  2,
		"tipo_documento": "ejercicios",
	}, p.Filter())
}

func TestFilterUnidadTema(t *testing.T) {
	p := Params{Materia: "probabilidad", Unidad: "Distribucion Normal"}
	p.Normalize()

	f := p.Filter()
	assert.Equal(t, "Distribucion Normal", f["unidad_tema"])
	assert.NotContains(t, f, "unidad_numero")
}

func TestFilterEmptyParams(t *testing.T) {
	p := Params{}
	p.Normalize()
	assert.Empty(t, p.Filter())
}

func TestSearchTextIncludesHints(t *testing.T) {
	p := Params{Materia: "SIA", Unidad: "3", TipoEjercicio: TipoMultipleChoice, ConsultaLibre: "heuristicas de busqueda"}
	p.Normalize()

	text := p.SearchText()
	assert.Contains(t, text, "Sistemas de Inteligencia Artificial")
	assert.Contains(t, text, "unidad 3")
	assert.Contains(t, text, "conceptos definiciones")
	assert.Contains(t, text, "heuristicas de busqueda")
}
