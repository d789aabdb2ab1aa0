package models

import "fmt"

// Classification is the routing decision for a question.
type Classification string

const (
	// Structured routes the question to SQL synthesis and execution.
	Structured Classification = "STRUCTURED"
	// Document routes the question to semantic retrieval.
	Document Classification = "DOCUMENT"
)

// QueryRequest is an incoming natural-language question together with the
// connection string of the database it targets. The connection string is
// opaque to the core; it is handed to the relational layer unparsed.
type QueryRequest struct {
	Question         string `json:"question"`
	ConnectionString string `json:"connection_string,omitempty"`
}

// Validate checks that the question is present.
func (q *QueryRequest) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	return nil
}

// Answer is the unified result of one routed question. Rows is populated on
// the structured path, Chunks on the document path. GeneratedSQL is returned
// for auditability whenever SQL was synthesized. FromCache distinguishes a
// cache hit from a fresh computation.
type Answer struct {
	Message      string           `json:"message"`
	QueryType    Classification   `json:"query_type"`
	Rows         []map[string]any `json:"data,omitempty"`
	Chunks       []RetrievedChunk `json:"chunks,omitempty"`
	GeneratedSQL string           `json:"generated_sql,omitempty"`
	FromCache    bool             `json:"from_cache"`
}
