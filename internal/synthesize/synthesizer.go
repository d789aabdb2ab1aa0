package synthesize

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kiku/internal/models"
	"github.com/hyperjump/kiku/pkg/utils"
)

// Failure reasons carried by SynthesisError.
const (
	ReasonEmptyQuery  = "empty query"
	ReasonNotSelect   = "not a SELECT"
	ReasonUnavailable = "generation unavailable"
)

// SynthesisError reports that no usable query could be produced: either the
// model call failed or its output did not validate. Synthesis failures are
// terminal for the request; retrying the same prompt rarely self-corrects.
type SynthesisError struct {
	Reason string
	Err    error
}

func (e *SynthesisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sql synthesis failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("sql synthesis failed: %s", e.Reason)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Generator is the generative language model collaborator: prompt in,
// completion text out. Its output is untrusted and always validated.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Synthesizer builds prompts and validates generated SQL.
type Synthesizer struct {
	generator Generator
	model     string
	logger    *zap.Logger // optional
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets a logger for debug output (raw model responses).
func WithLogger(l *zap.Logger) Option {
	return func(s *Synthesizer) { s.logger = l }
}

// NewSynthesizer creates a synthesizer delegating to the given generator and
// model name.
func NewSynthesizer(generator Generator, model string, opts ...Option) *Synthesizer {
	s := &Synthesizer{generator: generator, model: model}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize produces a single read-only SQL query answering the question
// against the schema, or a SynthesisError. An empty question fails fast
// without invoking the model. Transport failures surface as
// ReasonUnavailable, never as raw errors. Generated text is trimmed of
// formatting artifacts and must begin with the SELECT keyword; anything else
// is rejected as ReasonNotSelect.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, schema *models.Schema) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", &SynthesisError{Reason: ReasonEmptyQuery}
	}

	prompt := BuildPrompt(question, schema)
	raw, err := s.generator.Generate(ctx, s.model, prompt)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("model call failed", zap.Error(err))
		}
		return "", &SynthesisError{Reason: ReasonUnavailable, Err: err}
	}
	if s.logger != nil {
		s.logger.Debug("model response", zap.String("raw", raw))
	}

	query := CleanGenerated(raw)
	if !isSelect(query) {
		return "", &SynthesisError{Reason: ReasonNotSelect, Err: fmt.Errorf("generated %q", utils.Truncate(query, 120))}
	}
	return query, nil
}

// CleanGenerated strips formatting artifacts models wrap around SQL:
// markdown code fences (with or without a language tag), stray backticks,
// and surrounding whitespace.
func CleanGenerated(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Drop a language tag like "sql" on the fence line.
		if nl := strings.IndexByte(text, '\n'); nl >= 0 && len(strings.Fields(text[:nl])) <= 1 {
			text = text[nl+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	text = strings.ReplaceAll(text, "`", "")
	return strings.TrimSpace(text)
}

// isSelect reports whether the statement begins with the read-only query
// keyword. Everything else, including WITH-prefixed or mutating statements,
// is rejected.
func isSelect(query string) bool {
	fields := strings.Fields(strings.ToUpper(query))
	return len(fields) > 0 && fields[0] == "SELECT"
}
