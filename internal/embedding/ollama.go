// Package embedding turns chunk text into fixed-dimension vectors through a
// local Ollama instance.
package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/CTepedino/deep-learning-tp2/internal/models"
)

// OllamaEmbedder generates embeddings through the Ollama API with retry and
// bounded concurrency.
type OllamaEmbedder struct {
	Client        *api.Client
	Model         string
	MaxRetries    int
	Timeout       time.Duration
	MaxConcurrent int
}

func NewOllamaEmbedder(host, model string) (*OllamaEmbedder, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}

	return &OllamaEmbedder{
		Client:        api.NewClient(hostURL, http.DefaultClient),
		Model:         model,
		MaxRetries:    3,
		Timeout:       time.Second * 30,
		MaxConcurrent: 3,
	}, nil
}

// EmbedText generates one embedding, retrying with linear backoff.
func (e *OllamaEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32
	var err error

	for retries := 0; retries <= e.MaxRetries; retries++ {
		if retries > 0 {
			select {
			case <-time.After(time.Duration(retries) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		embedding, err = e.createEmbedding(ctx, text)
		if err == nil {
			return embedding, nil
		}
	}

	return nil, fmt.Errorf("failed to create embedding after %d retries: %w", e.MaxRetries, err)
}

func (e *OllamaEmbedder) createEmbedding(ctx context.Context, text string) ([]float32, error) {
	req := api.EmbeddingRequest{
		Model:  e.Model,
		Prompt: text,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	resp, err := e.Client.Embeddings(ctxWithTimeout, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	out := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}

// EmbedChunks fills in the Embedding field of every chunk in parallel,
// bounded by MaxConcurrent. progressFunc, when non-nil, is called after each
// chunk completes.
func (e *OllamaEmbedder) EmbedChunks(ctx context.Context, chunks []models.Chunk,
	progressFunc func(processed, total int)) ([]models.Chunk, error) {

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.MaxConcurrent)

	var mu sync.Mutex
	processed := 0
	total := len(chunks)

	errChan := make(chan error, total)

	for i := range chunks {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int) {
			defer func() {
				wg.Done()
				<-semaphore
			}()

			embedding, err := e.EmbedText(ctx, chunks[i].Content)
			if err != nil {
				errChan <- fmt.Errorf("failed to embed chunk %d of %s: %w", chunks[i].ChunkIndex, chunks[i].Source, err)
				return
			}

			mu.Lock()
			chunks[i].Embedding = embedding
			processed++
			if progressFunc != nil {
				progressFunc(processed, total)
			}
			mu.Unlock()
		}(i)
	}

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}

	return chunks, nil
}
