// Package engine routes natural-language questions to either SQL synthesis
// over a relational database or semantic retrieval over indexed documents,
// and caches successful answers.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kiku/internal/cache"
	"github.com/hyperjump/kiku/internal/classify"
	"github.com/hyperjump/kiku/internal/database"
	"github.com/hyperjump/kiku/internal/models"
	"github.com/hyperjump/kiku/internal/retrieval"
	"github.com/hyperjump/kiku/internal/synthesize"
)

// ErrEmptyQuestion is returned when a request carries no question text.
var ErrEmptyQuestion = errors.New("question cannot be empty")

// SchemaDiscoverer resolves a connection string to a database schema.
type SchemaDiscoverer func(ctx context.Context, connString string) (*models.Schema, error)

// QueryExecutor runs a SQL query against the database behind connString.
type QueryExecutor func(ctx context.Context, connString, query string) ([]map[string]any, error)

// Engine is the query router. It is safe for concurrent use.
type Engine struct {
	classifier  *classify.Classifier
	synthesizer *synthesize.Synthesizer
	retriever   *retrieval.Retriever
	answers     *cache.Cache
	discover    SchemaDiscoverer
	execute     QueryExecutor
	topK        int
	logger      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDatabase overrides the schema discovery and query execution hooks.
// Tests use this to substitute fakes for a live database.
func WithDatabase(discover SchemaDiscoverer, execute QueryExecutor) Option {
	return func(e *Engine) {
		e.discover = discover
		e.execute = execute
	}
}

// WithTopK sets how many chunks the document path retrieves per question.
// Values below one keep the default.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// NewEngine creates an engine wired to the given collaborators.
func NewEngine(classifier *classify.Classifier, synthesizer *synthesize.Synthesizer, retriever *retrieval.Retriever, answers *cache.Cache, opts ...Option) *Engine {
	e := &Engine{
		classifier:  classifier,
		synthesizer: synthesizer,
		retriever:   retriever,
		answers:     answers,
		discover:    database.Discover,
		execute:     database.Execute,
		topK:        retrieval.DefaultTopK,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query answers one natural-language question. Identical questions against
// the same connection string are served from the cache until the TTL
// elapses; only successful answers are cached. Failures on either path are
// returned as typed errors from the database, synthesize, or retrieval
// packages.
func (e *Engine) Query(ctx context.Context, req models.QueryRequest) (*models.Answer, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}

	key := cacheKey(req.ConnectionString, req.Question)
	if cached, ok := e.answers.Get(key); ok {
		if ans, ok := cached.(*models.Answer); ok {
			e.logger.Debug("cache hit", zap.String("question", req.Question))
			hit := *ans
			hit.FromCache = true
			return &hit, nil
		}
	}

	kind := e.classifier.Classify(req.Question)
	e.logger.Info("routing question",
		zap.String("classification", string(kind)),
		zap.String("question", req.Question))

	var (
		ans *models.Answer
		err error
	)
	switch kind {
	case models.Document:
		ans, err = e.queryDocuments(ctx, req.Question)
	default:
		ans, err = e.queryStructured(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	e.answers.Set(key, ans)
	return ans, nil
}

func (e *Engine) queryStructured(ctx context.Context, req models.QueryRequest) (*models.Answer, error) {
	schema, err := e.discover(ctx, req.ConnectionString)
	if err != nil {
		return nil, err
	}

	query, err := e.synthesizer.Synthesize(ctx, req.Question, schema)
	if err != nil {
		return nil, err
	}

	rows, err := e.execute(ctx, req.ConnectionString, query)
	if err != nil {
		return nil, err
	}

	return &models.Answer{
		Message:      fmt.Sprintf("Query returned %d rows.", len(rows)),
		QueryType:    models.Structured,
		Rows:         rows,
		GeneratedSQL: query,
	}, nil
}

func (e *Engine) queryDocuments(ctx context.Context, question string) (*models.Answer, error) {
	chunks, err := e.retriever.Search(ctx, question, e.topK)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Found %d relevant passages.", len(chunks))
	if len(chunks) == 0 {
		message = "No relevant passages found in the indexed documents."
	}
	return &models.Answer{
		Message:   message,
		QueryType: models.Document,
		Chunks:    chunks,
	}, nil
}

// cacheKey derives a stable key from the connection string and the
// case-normalized question. The NUL separator keeps distinct
// (connection, question) pairs from colliding.
func cacheKey(connString, question string) string {
	normalized := strings.ToLower(strings.TrimSpace(question))
	sum := sha256.Sum256([]byte(connString + "\x00" + normalized))
	return hex.EncodeToString(sum[:])
}
