package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// extractPDF extracts plain text from PDF bytes, page by page. Pages that
// fail to decode are skipped; an error is returned only when no page yielded
// any text.
func extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}

	var buf bytes.Buffer
	var lastErr error
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			lastErr = fmt.Errorf("extract page %d: %w", i, err)
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(text)
	}
	if buf.Len() == 0 && lastErr != nil {
		return "", lastErr
	}
	return buf.String(), nil
}
