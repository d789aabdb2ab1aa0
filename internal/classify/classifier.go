// Package classify routes questions between the structured (SQL) and
// document (semantic retrieval) paths.
package classify

import (
	"strings"

	"github.com/hyperjump/kiku/internal/models"
)

// defaultVocabulary lists terms signaling document-style intent. Any hit
// classifies the question as Document; otherwise it goes to the SQL path.
// Misclassification is recoverable: the wrong path returns an empty answer,
// it never corrupts state.
var defaultVocabulary = []string{
	"document", "documents", "file", "files", "resume", "resumes",
	"cv", "cvs", "contract", "contracts", "clause", "clauses",
	"pdf", "attachment", "attachments", "upload", "uploaded",
	"report", "reports", "skill", "skills", "certification", "certifications",
}

// Classifier decides whether a question targets structured data or document
// content. It is a pure function of the question text: no model call, no
// mutation, case-insensitive.
type Classifier struct {
	terms map[string]struct{}
}

// NewClassifier creates a classifier with the default vocabulary.
func NewClassifier() *Classifier {
	return NewClassifierWithTerms(defaultVocabulary)
}

// NewClassifierWithTerms creates a classifier with a custom term set.
// Terms are matched case-insensitively against whole words of the question.
func NewClassifierWithTerms(terms []string) *Classifier {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[strings.ToLower(t)] = struct{}{}
	}
	return &Classifier{terms: set}
}

// Classify returns Document when any word of the question is in the
// vocabulary, Structured otherwise. It never fails: an empty question simply
// classifies as Structured and is rejected downstream.
func (c *Classifier) Classify(question string) models.Classification {
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if _, ok := c.terms[word]; ok {
			return models.Document
		}
	}
	return models.Structured
}
