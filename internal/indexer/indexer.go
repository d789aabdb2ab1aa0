package indexer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kiku/internal/corpus"
	"github.com/hyperjump/kiku/internal/embedding"
	"github.com/hyperjump/kiku/internal/extract"
	"github.com/hyperjump/kiku/internal/models"
)

// Indexer extracts, chunks, and embeds uploaded documents, then replaces the
// shared corpus snapshot with the new chunk set. Each Index call is a full
// replace: previously indexed chunks are discarded.
type Indexer struct {
	extractor *extract.Extractor
	chunker   *Chunker
	embedder  embedding.Embedder
	store     *corpus.Store
	logger    *zap.Logger // optional; when set, logs per-file debug events
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets a logger for debug output (file extracted, file skipped, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(extractor *extract.Extractor, chunker *Chunker, embedder embedding.Embedder, store *corpus.Store, opts ...Option) *Indexer {
	idx := &Indexer{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Index processes a batch of uploaded files and replaces the corpus with the
// resulting chunks. Unsupported extensions are skipped silently; a file that
// fails to parse contributes zero chunks without aborting the batch. All
// retained chunks are embedded in one batched call. Returns the number of
// chunks indexed; an empty batch yields an empty, queryable index.
func (idx *Indexer) Index(ctx context.Context, files []models.File) (int, error) {
	var chunks []models.DocumentChunk
	for _, f := range files {
		text, err := idx.extractor.Extract(f.Name, f.Content)
		if err != nil {
			if idx.logger != nil {
				idx.logger.Debug("skipping file", zap.String("file", f.Name), zap.Error(err))
			}
			continue
		}
		pieces := idx.chunker.Chunk(Preprocess(text))
		for i, piece := range pieces {
			chunks = append(chunks, models.DocumentChunk{
				ID:         fmt.Sprintf("%s_%s", f.Name, uuid.New().String()[:8]),
				SourceFile: f.Name,
				Text:       piece,
				ChunkIndex: i,
			})
		}
		if idx.logger != nil {
			idx.logger.Debug("file extracted", zap.String("file", f.Name), zap.Int("chunks", len(pieces)))
		}
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	snap := idx.store.Replace(idx.embedder.ModelID(), chunks, vectors)
	if idx.logger != nil {
		idx.logger.Info("corpus replaced",
			zap.Int("version", snap.Version),
			zap.Int("files", len(files)),
			zap.Int("chunks", len(chunks)))
	}
	return len(chunks), nil
}
