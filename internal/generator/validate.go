package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/CTepedino/deep-learning-tp2/internal/models"
	"github.com/CTepedino/deep-learning-tp2/internal/query"
)

// ValidationError reports model output that doesn't match the required
// exercise shape. The raw payload travels with it for diagnosis; malformed
// output is never silently coerced.
type ValidationError struct {
	Reason  string
	Payload string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid generator output: %s", e.Reason)
}

type exerciseList struct {
	Ejercicios []models.Exercise `json:"ejercicios"`
}

// ParseExercises parses and validates the model's response. Models wrap JSON
// in fenced code blocks often enough that the fence is stripped first.
func ParseExercises(raw, tipoEjercicio string) ([]models.Exercise, error) {
	payload := stripFences(raw)

	var list exerciseList
	if err := json.Unmarshal([]byte(payload), &list); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("not valid JSON: %v", err), Payload: raw}
	}
	if len(list.Ejercicios) == 0 {
		return nil, &ValidationError{Reason: "no exercises in response", Payload: raw}
	}

	for i, ex := range list.Ejercicios {
		if err := validateExercise(ex, tipoEjercicio); err != nil {
			return nil, &ValidationError{Reason: fmt.Sprintf("exercise %d: %v", i+1, err), Payload: raw}
		}
	}
	return list.Ejercicios, nil
}

func validateExercise(ex models.Exercise, tipoEjercicio string) error {
	if strings.TrimSpace(ex.Pregunta) == "" {
		return fmt.Errorf("missing pregunta")
	}
	if strings.TrimSpace(ex.RespuestaCorrecta) == "" {
		return fmt.Errorf("missing respuesta_correcta")
	}
	if strings.TrimSpace(ex.Pista) == "" {
		return fmt.Errorf("missing pista")
	}
	if strings.TrimSpace(ex.Solucion) == "" {
		return fmt.Errorf("missing solucion")
	}

	if tipoEjercicio == query.TipoMultipleChoice {
		if len(ex.Opciones) != 4 {
			return fmt.Errorf("multiple_choice needs exactly 4 opciones, got %d", len(ex.Opciones))
		}
		found := false
		for _, op := range ex.Opciones {
			if op == ex.RespuestaCorrecta {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("respuesta_correcta is not one of the opciones")
		}
	} else if len(ex.Opciones) > 0 {
		return fmt.Errorf("opciones only belong to multiple_choice exercises")
	}

	return nil
}

// stripFences unwraps ```json fenced blocks and trims anything outside the
// outermost JSON object.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	if start := strings.Index(s, "{"); start > 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}
