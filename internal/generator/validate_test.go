package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CTepedino/deep-learning-tp2/internal/models"
	"github.com/CTepedino/deep-learning-tp2/internal/query"
)

const validMC = `{"ejercicios": [{
	"pregunta": "¿Cual es la media de una distribucion normal estandar?",
	"opciones": ["0", "1", "-1", "0.5"],
	"respuesta_correcta": "0",
	"pista": "Pensar en la definicion de la normal estandar.",
	"solucion": "La normal estandar tiene media 0 y varianza 1."
}]}`

func TestParseExercisesValid(t *testing.T) {
	exercises, err := ParseExercises(validMC, query.TipoMultipleChoice)
	require.NoError(t, err)
	require.Len(t, exercises, 1)
	assert.Equal(t, "0", exercises[0].RespuestaCorrecta)
	assert.Len(t, exercises[0].Opciones, 4)
}

func TestParseExercisesFencedBlock(t *testing.T) {
	raw := "Aca estan los ejercicios:\n```json\n" + validMC + "\n```\nEspero que sirvan."
	exercises, err := ParseExercises(raw, query.TipoMultipleChoice)
	require.NoError(t, err)
	assert.Len(t, exercises, 1)
}

func TestParseExercisesLeadingProse(t *testing.T) {
	raw := "Claro, aca va el resultado: " + validMC
	_, err := ParseExercises(raw, query.TipoMultipleChoice)
	assert.NoError(t, err)
}

func TestParseExercisesNotJSON(t *testing.T) {
	raw := "1) ¿Que es la varianza? Respuesta: una medida de dispersion."
	_, err := ParseExercises(raw, query.TipoDesarrollo)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, raw, verr.Payload)
}

func TestParseExercisesWrongOptionCount(t *testing.T) {
	raw := `{"ejercicios": [{
		"pregunta": "¿Pregunta?",
		"opciones": ["a", "b", "c"],
		"respuesta_correcta": "a",
		"pista": "pista",
		"solucion": "solucion"
	}]}`
	_, err := ParseExercises(raw, query.TipoMultipleChoice)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "4 opciones")
}

func TestParseExercisesAnswerNotAnOption(t *testing.T) {
	raw := `{"ejercicios": [{
		"pregunta": "¿Pregunta?",
		"opciones": ["a", "b", "c", "d"],
		"respuesta_correcta": "e",
		"pista": "pista",
		"solucion": "solucion"
	}]}`
	_, err := ParseExercises(raw, query.TipoMultipleChoice)
	assert.Error(t, err)
}

func TestParseExercisesMissingFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing pregunta", `{"ejercicios": [{"respuesta_correcta": "x", "pista": "p", "solucion": "s"}]}`},
		{"missing solucion", `{"ejercicios": [{"pregunta": "q", "respuesta_correcta": "x", "pista": "p"}]}`},
		{"empty list", `{"ejercicios": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExercises(tt.raw, query.TipoDesarrollo)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestParseExercisesOptionsOutsideMultipleChoice(t *testing.T) {
	raw := `{"ejercicios": [{"pregunta": "q", "opciones": ["a"], "respuesta_correcta": "x", "pista": "p", "solucion": "s"}]}`
	_, err := ParseExercises(raw, query.TipoDesarrollo)
	assert.Error(t, err)
}

func TestBuildPromptIncludesSources(t *testing.T) {
	chunks := []models.Chunk{
		{Source: "docs/SIA/apuntes/teoria.pdf", Content: "Un perceptron es..."},
		{Source: "docs/SIA/guias/guia1.pdf", Content: "Ejercicio resuelto..."},
	}
	params := query.Params{
		Materia:         "Sistemas de Inteligencia Artificial",
		TipoEjercicio:   query.TipoMultipleChoice,
		Cantidad:        2,
		NivelDificultad: "intermedio",
	}

	prompt := BuildPrompt(chunks, params)

	assert.Contains(t, prompt, "[Fuente 1: docs/SIA/apuntes/teoria.pdf]")
	assert.Contains(t, prompt, "[Fuente 2: docs/SIA/guias/guia1.pdf]")
	assert.Contains(t, prompt, "Un perceptron es...")
	assert.Contains(t, prompt, "exactamente 4 opciones")
	assert.Contains(t, prompt, "2 ejercicio(s)")
}
