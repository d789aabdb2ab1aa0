// Package extract provides text extraction from uploaded document bytes.
package extract

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for file extensions the extractor does not
// handle. Callers skip such files rather than failing the batch.
var ErrUnsupported = errors.New("unsupported document format")

// Extractor extracts plain text from document bytes.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text content of the named document. The extension of
// filename selects the extraction path: .pdf and .docx are supported, any
// other extension returns ErrUnsupported.
func (e *Extractor) Extract(filename string, content []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	default:
		return "", ErrUnsupported
	}
}

// Supported reports whether the extension of filename has an extraction path.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx":
		return true
	}
	return false
}
