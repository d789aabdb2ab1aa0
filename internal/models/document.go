package models

// DocumentChunk is a contiguous slice of extracted document text stored and
// embedded as one retrieval unit.
type DocumentChunk struct {
	ID         string    `json:"id"`
	SourceFile string    `json:"source_file"`
	Text       string    `json:"text"`
	ChunkIndex int       `json:"chunk_index"`
	Embedding  []float32 `json:"-"`
}

// RetrievedChunk is a chunk returned by semantic search with its similarity score.
type RetrievedChunk struct {
	Text       string  `json:"chunk_text"`
	SourceFile string  `json:"source_file"`
	Score      float64 `json:"score"`
}

// File is an uploaded document: a filename (its extension selects the
// extraction path) and raw bytes.
type File struct {
	Name    string
	Content []byte
}
