// Package generator produces academic exercises from retrieved context
// through an LLM, and validates that the model's output matches the
// documented exercise shape before anything downstream sees it.
package generator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/CTepedino/deep-learning-tp2/internal/models"
	"github.com/CTepedino/deep-learning-tp2/internal/query"
)

// Generator is what the pipeline consumes; tests inject a fake.
type Generator interface {
	Generate(ctx context.Context, chunks []models.Chunk, params query.Params) ([]models.Exercise, error)
}

// OllamaGenerator generates exercises through a local Ollama model.
type OllamaGenerator struct {
	Client *api.Client
	Model  string
}

func NewOllamaGenerator(host, model string) (*OllamaGenerator, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	return &OllamaGenerator{
		Client: api.NewClient(hostURL, http.DefaultClient),
		Model:  model,
	}, nil
}

// Generate builds the prompt from the retrieved chunks, runs the model and
// validates the parsed output. The request's cantidad is an upper bound; the
// model may return fewer exercises.
func (g *OllamaGenerator) Generate(ctx context.Context, chunks []models.Chunk, params query.Params) ([]models.Exercise, error) {
	prompt := BuildPrompt(chunks, params)

	raw, err := g.generateResponse(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate exercises: %w", err)
	}

	exercises, err := ParseExercises(raw, params.TipoEjercicio)
	if err != nil {
		return nil, err
	}
	if len(exercises) > params.Cantidad && params.Cantidad > 0 {
		exercises = exercises[:params.Cantidad]
	}
	return exercises, nil
}

func (g *OllamaGenerator) generateResponse(ctx context.Context, prompt string) (string, error) {
	req := api.GenerateRequest{
		Model:  g.Model,
		Prompt: prompt,
		Options: map[string]interface{}{
			"temperature": 0.7,
			"num_predict": 2048,
		},
	}

	var responseBuilder strings.Builder

	err := g.Client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return responseBuilder.String(), nil
}

// BuildPrompt assembles the Spanish generation prompt: instructions for the
// exercise type, the retrieved context with source headers, and the exact
// JSON shape the model must return.
func BuildPrompt(chunks []models.Chunk, params query.Params) string {
	var b strings.Builder

	b.WriteString("Sos un generador de ejercicios academicos. ")
	b.WriteString("Genera ejercicios basados unicamente en el material de estudio provisto. ")
	b.WriteString("No inventes contenido que no aparezca en el contexto.\n\n")

	b.WriteString("Material de estudio:\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "[Fuente %d: %s]\n%s\n\n", i+1, c.Source, c.Content)
	}

	fmt.Fprintf(&b, "Genera %d ejercicio(s) de tipo %s, nivel %s",
		params.Cantidad, tipoDescription(params.TipoEjercicio), params.NivelDificultad)
	if params.Materia != "" {
		fmt.Fprintf(&b, ", de la materia %s", params.Materia)
	}
	if params.Unidad != "" {
		fmt.Fprintf(&b, ", unidad %s", params.Unidad)
	}
	b.WriteString(".\n\n")

	b.WriteString("Responde unicamente con JSON valido con esta forma exacta:\n")
	if params.TipoEjercicio == query.TipoMultipleChoice {
		b.WriteString(`{"ejercicios": [{"pregunta": "...", "opciones": ["...", "...", "...", "..."], "respuesta_correcta": "...", "pista": "...", "solucion": "..."}]}`)
		b.WriteString("\nCada ejercicio debe tener exactamente 4 opciones y respuesta_correcta debe ser una de ellas.\n")
	} else {
		b.WriteString(`{"ejercicios": [{"pregunta": "...", "respuesta_correcta": "...", "pista": "...", "solucion": "..."}]}`)
		b.WriteString("\n")
	}

	return b.String()
}

func tipoDescription(tipo string) string {
	switch tipo {
	case query.TipoMultipleChoice:
		return "opcion multiple"
	case query.TipoPractico:
		return "practico (con calculos)"
	case query.TipoDesarrollo:
		return "desarrollo"
	case query.TipoTeorico:
		return "teorico"
	default:
		return "desarrollo"
	}
}
