package embedding

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/kiku/internal/ollama"
	"github.com/hyperjump/kiku/pkg/utils"
)

// maxBatchTexts is the largest number of texts sent in one Ollama embed call.
// Larger batches are split and embedded concurrently.
const maxBatchTexts = 64

// embedConcurrency bounds concurrent embed calls to avoid overwhelming the model server.
const embedConcurrency = 4

// OllamaEmbedder produces embeddings through a local Ollama instance.
// Vectors are L2-normalized so inner product equals cosine similarity.
type OllamaEmbedder struct {
	client *ollama.Client
	model  string

	mu         sync.Mutex
	dimensions int // learned from the first successful call
}

// NewOllamaEmbedder creates an embedder using the given client and model name.
func NewOllamaEmbedder(client *ollama.Client, model string) *OllamaEmbedder {
	return &OllamaEmbedder{client: client, model: model}
}

// Embed returns the normalized embedding vector for a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns normalized embedding vectors for multiple texts.
// The batch is split into sub-batches embedded concurrently with bounded
// parallelism. Returns nil (not an error) for empty input.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	results := make([][]float32, len(texts))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for start := 0; start < len(texts); start += maxBatchTexts {
		start := start
		end := start + maxBatchTexts
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			vecs, err := e.embed(gCtx, texts[start:end])
			if err != nil {
				return fmt.Errorf("embedding texts %d-%d: %w", start, end-1, err)
			}
			copy(results[start:], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *OllamaEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.client.Embed(ctx, e.model, texts)
	if err != nil {
		return nil, err
	}
	for _, v := range vecs {
		utils.NormalizeL2(v)
	}
	e.mu.Lock()
	if e.dimensions == 0 && len(vecs) > 0 {
		e.dimensions = len(vecs[0])
	}
	e.mu.Unlock()
	return vecs, nil
}

// Dimensions returns the embedding dimension, or 0 before the first call.
func (e *OllamaEmbedder) Dimensions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dimensions
}

// ModelID returns the Ollama model name used for embedding.
func (e *OllamaEmbedder) ModelID() string {
	return e.model
}
