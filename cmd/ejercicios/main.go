package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/CTepedino/deep-learning-tp2/internal/config"
	"github.com/CTepedino/deep-learning-tp2/internal/embedding"
	"github.com/CTepedino/deep-learning-tp2/internal/generator"
	"github.com/CTepedino/deep-learning-tp2/internal/pipeline"
	"github.com/CTepedino/deep-learning-tp2/internal/query"
	"github.com/CTepedino/deep-learning-tp2/internal/retriever"
	"github.com/CTepedino/deep-learning-tp2/internal/store"
)

const defaultContextLimit = 5

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	pgConnString := flag.String("pg", cfg.DatabaseURL, "PostgreSQL connection string")
	ollamaHost := flag.String("ollama", cfg.OllamaHost, "Ollama host")
	model := flag.String("model", cfg.GeneratorModel, "Ollama model for generation")
	embeddingModel := flag.String("embedding-model", cfg.EmbeddingModel, "Ollama model for embeddings")
	embeddingDim := flag.Int("dim", cfg.EmbeddingDim, "Embedding vector dimension")
	contextLimit := flag.Int("k", defaultContextLimit, "Number of similar chunks to retrieve")
	materia := flag.String("materia", "", "Subject to generate exercises for")
	unidad := flag.String("unidad", "", "Unit number or topic")
	tipo := flag.String("tipo", query.TipoMultipleChoice, "Exercise type: multiple_choice, desarrollo, practico, teorico")
	cantidad := flag.Int("cantidad", 3, "Number of exercises to generate (1-10)")
	nivel := flag.String("nivel", "", "Difficulty: introductorio, intermedio, avanzado")
	consulta := flag.String("q", "", "Free-text query appended to the search")
	interactive := flag.Bool("i", false, "Run in interactive mode")
	flag.Parse()

	ctx := context.Background()

	embedder, err := embedding.NewOllamaEmbedder(*ollamaHost, *embeddingModel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create embedder")
	}

	db, err := store.New(ctx, *pgConnString, embedder, *embeddingDim)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	gen, err := generator.NewOllamaGenerator(*ollamaHost, *model)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create generator")
	}

	p := pipeline.New(nil, nil, nil, db, retriever.New(db), gen)

	params := query.Params{
		Materia:         *materia,
		Unidad:          *unidad,
		TipoEjercicio:   *tipo,
		Cantidad:        *cantidad,
		NivelDificultad: *nivel,
		ConsultaLibre:   *consulta,
	}

	if *interactive {
		runInteractive(ctx, p, params, *contextLimit)
		return
	}

	if params.Materia == "" && params.ConsultaLibre == "" {
		log.Fatal().Msg("either -materia or -q is required. Use -i for interactive mode")
	}
	generate(ctx, p, params, *contextLimit)
}

func runInteractive(ctx context.Context, p *pipeline.Pipeline, params query.Params, k int) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Generador de ejercicios - escribi una consulta libre o un comando (/materia, /unidad, /tipo, /cantidad, /nivel; 'salir' para terminar)")
	printParams(params)

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		lower := strings.ToLower(input)
		if lower == "salir" || lower == "exit" || lower == "quit" {
			break
		}

		if strings.HasPrefix(input, "/") {
			if handleCommand(&params, input) {
				printParams(params)
			}
			continue
		}

		params.ConsultaLibre = input
		generate(ctx, p, params, k)
	}
}

func handleCommand(params *query.Params, input string) bool {
	parts := strings.SplitN(input, " ", 2)
	value := ""
	if len(parts) == 2 {
		value = strings.TrimSpace(parts[1])
	}

	switch parts[0] {
	case "/materia":
		params.Materia = value
	case "/unidad":
		params.Unidad = value
	case "/tipo":
		params.TipoEjercicio = value
	case "/nivel":
		params.NivelDificultad = value
	case "/cantidad":
		if _, err := fmt.Sscanf(value, "%d", &params.Cantidad); err != nil {
			fmt.Println("Cantidad invalida")
			return false
		}
	default:
		fmt.Println("Comando desconocido:", parts[0])
		return false
	}
	return true
}

func printParams(params query.Params) {
	normalized := params
	normalized.Normalize()
	fmt.Printf("Parametros: materia=%q unidad=%q tipo=%s cantidad=%d nivel=%s\n",
		normalized.Materia, normalized.Unidad, normalized.TipoEjercicio, normalized.Cantidad, normalized.NivelDificultad)
}

func generate(ctx context.Context, p *pipeline.Pipeline, params query.Params, k int) {
	result, err := p.GenerateExercises(ctx, params, k)
	if errors.Is(err, pipeline.ErrNoContext) {
		fmt.Println("No hay contexto disponible para esa consulta: el indice no tiene material que coincida.")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("generation failed")
		return
	}

	fmt.Println(formatResult(result))
}

func formatResult(result *pipeline.Result) string {
	var b strings.Builder

	for i, ex := range result.Ejercicios {
		fmt.Fprintf(&b, "\nEjercicio %d: %s\n", i+1, ex.Pregunta)
		for j, op := range ex.Opciones {
			fmt.Fprintf(&b, "  %c) %s\n", 'a'+j, op)
		}
		fmt.Fprintf(&b, "  Pista: %s\n", ex.Pista)
		fmt.Fprintf(&b, "  Respuesta: %s\n", ex.RespuestaCorrecta)
		fmt.Fprintf(&b, "  Solucion: %s\n", ex.Solucion)
	}

	b.WriteString("\nFuentes:\n")
	for _, src := range result.Sources {
		b.WriteString("  " + src + "\n")
	}
	if result.RelaxationLevel != "filtro_completo" {
		fmt.Fprintf(&b, "(filtro relajado a: %s)\n", result.RelaxationLevel)
	}
	return b.String()
}
