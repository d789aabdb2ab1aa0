// Package embedding provides text embedding via the Ollama API and caching.
package embedding

import "context"

// Embedder produces vector embeddings for text. Corpus and query embeddings
// must come from the same model: ModelID identifies the model and version so
// an index built with one embedder is never silently queried with another.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelID() string
}
