package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/CTepedino/deep-learning-tp2/internal/config"
	"github.com/CTepedino/deep-learning-tp2/internal/embedding"
	"github.com/CTepedino/deep-learning-tp2/internal/loader"
	"github.com/CTepedino/deep-learning-tp2/internal/metadata"
	"github.com/CTepedino/deep-learning-tp2/internal/ocr"
	"github.com/CTepedino/deep-learning-tp2/internal/pipeline"
	"github.com/CTepedino/deep-learning-tp2/internal/splitter"
	"github.com/CTepedino/deep-learning-tp2/internal/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	docsRoot := flag.String("docs", cfg.DocsRoot, "Root directory of course documents")
	pgConnString := flag.String("pg", cfg.DatabaseURL, "PostgreSQL connection string")
	ollamaHost := flag.String("ollama", cfg.OllamaHost, "Ollama host")
	embeddingModel := flag.String("model", cfg.EmbeddingModel, "Ollama model for embeddings")
	embeddingDim := flag.Int("dim", cfg.EmbeddingDim, "Embedding vector dimension")
	chunkSize := flag.Int("chunk-size", cfg.ChunkSize, "Character size for text chunks")
	chunkOverlap := flag.Int("chunk-overlap", cfg.ChunkOverlap, "Character overlap between chunks")
	maxConcurrent := flag.Int("max-concurrent", runtime.NumCPU()/2, "Maximum concurrent embedding requests")
	force := flag.Bool("force", false, "Delete each file's previous chunks before re-ingesting")
	useOCR := flag.Bool("ocr", false, "Merge OCR output into PDF text (needs a build with the ocr tag and pdftoppm)")
	ocrLangs := flag.String("ocr-langs", cfg.OCRLanguages, "Tesseract language set")
	dpi := flag.Int("dpi", cfg.OCRDPI, "Rasterization DPI for OCR")
	flag.Parse()

	if _, err := os.Stat(*docsRoot); os.IsNotExist(err) {
		log.Fatal().Str("docs", *docsRoot).Msg("documents root does not exist")
	}

	ctx := context.Background()

	embedder, err := embedding.NewOllamaEmbedder(*ollamaHost, *embeddingModel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create embedder")
	}
	if *maxConcurrent > 0 {
		embedder.MaxConcurrent = *maxConcurrent
	}

	db, err := store.New(ctx, *pgConnString, embedder, *embeddingDim)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database schema")
	}
	log.Info().Msg("database initialized")

	opts := loader.Options{OCRLanguages: *ocrLangs, DPI: *dpi}
	if *useOCR {
		if !ocr.Available {
			log.Fatal().Msg("this binary was built without the ocr tag")
		}
		opts.Engine = ocr.NewTesseract()
		opts.Rasterizer = ocr.NewPdftoppm()
	}
	ld := loader.New(metadata.NewExtractor(*docsRoot), opts)

	sp, err := splitter.New(splitter.Config{ChunkSize: *chunkSize, ChunkOverlap: *chunkOverlap})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid chunking configuration")
	}

	p := pipeline.New(ld, sp, embedder, db, nil, nil)

	log.Info().
		Str("docs", *docsRoot).
		Str("model", *embeddingModel).
		Bool("force", *force).
		Msg("starting ingestion")
	start := time.Now()

	report, err := p.Ingest(ctx, *docsRoot, *force)
	if err != nil {
		log.Fatal().Err(err).Msg("ingestion failed")
	}

	count, err := db.Count(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to count stored chunks")
	}

	fmt.Printf("\nIngestion finished in %v\n", time.Since(start).Round(time.Second))
	fmt.Printf("  Documents loaded: %d\n", report.DocumentsLoaded)
	fmt.Printf("  Chunks created:   %d\n", report.ChunksCreated)
	fmt.Printf("  Chunks in store:  %d\n", count)
	if len(report.Failures) > 0 {
		fmt.Printf("  Failures:         %d\n", len(report.Failures))
		for _, f := range report.Failures {
			fmt.Printf("    %s: %v\n", f.Path, f.Err)
		}
	}
}
