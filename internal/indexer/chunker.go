// Package indexer provides document chunking and full-replace corpus indexing.
package indexer

import (
	"strings"
	"unicode"
)

// Chunker splits text into overlapping word-window chunks. Overlap carries
// context across chunk boundaries so a sentence cut by a window edge is
// still retrievable from the neighboring chunk.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given window size and overlap, both
// in word tokens. Non-positive or inconsistent values fall back to defaults.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 50
		if chunkOverlap >= chunkSize {
			chunkOverlap = chunkSize / 4
		}
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Chunk splits text into overlapping windows of words. Empty or
// whitespace-only text yields no chunks.
func (c *Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := c.chunkSize - c.chunkOverlap
	if step <= 0 {
		step = 1
	}
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end >= len(words) {
			break
		}
	}
	return chunks
}

// Preprocess normalizes extracted text before chunking (trim, collapse
// whitespace runs to single spaces).
func Preprocess(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}
