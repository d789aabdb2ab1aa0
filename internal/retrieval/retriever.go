// Package retrieval implements semantic search over the in-memory corpus.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/hyperjump/kiku/internal/corpus"
	"github.com/hyperjump/kiku/internal/embedding"
	"github.com/hyperjump/kiku/internal/models"
)

// DefaultTopK is the number of chunks returned when the caller does not ask
// for a specific count.
const DefaultTopK = 3

// RetrievalError wraps embedding or search failures on the document path.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("semantic retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Retriever embeds a question and returns the most similar indexed chunks.
type Retriever struct {
	embedder embedding.Embedder
	store    *corpus.Store
}

// NewRetriever creates a retriever over the given corpus store. The embedder
// must be the same one used for indexing; a model mismatch is reported as a
// RetrievalError rather than silently degrading results.
func NewRetriever(embedder embedding.Embedder, store *corpus.Store) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Search returns up to topK chunks ordered by descending cosine similarity,
// ties broken by insertion order. topK is clamped to the corpus size; a
// non-positive topK falls back to DefaultTopK. An empty corpus returns an
// empty slice, not an error.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]models.RetrievedChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	snap := r.store.Snapshot()
	if snap.Size() == 0 {
		return []models.RetrievedChunk{}, nil
	}
	if snap.ModelID != r.embedder.ModelID() {
		return nil, &RetrievalError{Err: fmt.Errorf("corpus embedded with model %q, query embedder is %q", snap.ModelID, r.embedder.ModelID())}
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Err: fmt.Errorf("embedding query: %w", err)}
	}

	type scored struct {
		index int
		score float64
	}
	scores := make([]scored, len(snap.Vectors))
	for i, vec := range snap.Vectors {
		scores[i] = scored{index: i, score: cosineSimilarity(queryVec, vec)}
	}
	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if topK > len(scores) {
		topK = len(scores)
	}
	results := make([]models.RetrievedChunk, topK)
	for i := 0; i < topK; i++ {
		ch := snap.Chunks[scores[i].index]
		results[i] = models.RetrievedChunk{
			Text:       ch.Text,
			SourceFile: ch.SourceFile,
			Score:      scores[i].score,
		}
	}
	return results, nil
}

// cosineSimilarity returns the cosine of the angle between a and b. For the
// unit-length vectors the embedders produce this is a plain dot product; the
// norms are still computed so unnormalized vectors score correctly.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
