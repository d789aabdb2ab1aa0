package classify

import (
	"testing"

	"github.com/hyperjump/kiku/internal/models"
)

func TestClassify(t *testing.T) {
	c := NewClassifier()
	cases := []struct {
		question string
		want     models.Classification
	}{
		{"What skills does the candidate list on their resume?", models.Document},
		{"Summarize the uploaded contract.", models.Document},
		{"Which files mention a non-compete clause?", models.Document},
		{"How many employees earn more than 50000?", models.Structured},
		{"List all departments sorted by headcount", models.Structured},
		{"What is the average salary?", models.Structured},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.question); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.question, got, tc.want)
		}
	}
}

func TestClassify_wholeWordsOnly(t *testing.T) {
	c := NewClassifier()
	// "profile" contains "file" as a substring but is not a document term.
	if got := c.Classify("Show the profile with the highest score"); got != models.Structured {
		t.Errorf("substring of a vocabulary term should not trigger document routing, got %v", got)
	}
}

func TestClassify_punctuationAndCase(t *testing.T) {
	c := NewClassifier()
	if got := c.Classify("Anything about the CONTRACT?"); got != models.Document {
		t.Errorf("uppercase and trailing punctuation should still match, got %v", got)
	}
}

func TestClassify_customTerms(t *testing.T) {
	c := NewClassifierWithTerms([]string{"invoice"})
	if got := c.Classify("Find the invoice from June"); got != models.Document {
		t.Errorf("custom term should route to documents, got %v", got)
	}
	if got := c.Classify("What does the resume say?"); got != models.Structured {
		t.Errorf("default vocabulary should not apply with custom terms, got %v", got)
	}
}

func TestClassify_empty(t *testing.T) {
	c := NewClassifier()
	if got := c.Classify(""); got != models.Structured {
		t.Errorf("empty question should default to structured, got %v", got)
	}
}
