package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

// defaultDocxBodyPath is the usual location of the document body in a .docx zip.
const defaultDocxBodyPath = "word/document.xml"

// docxBodyContentType identifies the main document part in [Content_Types].xml.
const docxBodyContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// runText matches <w:t>text</w:t> including attributed forms
// like <w:t xml:space="preserve">.
var runText = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// paragraphEnd marks paragraph boundaries in the body XML.
var paragraphEnd = regexp.MustCompile(`</w:p>`)

// overridePartName extracts the PartName of the main-document Override,
// in either attribute order.
var overridePartName = []*regexp.Regexp{
	regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxBodyContentType) + `"`),
	regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxBodyContentType) + `"[^>]+PartName="([^"]+)"`),
}

// extractDOCX extracts text from .docx bytes. DOCX is a zip containing an
// OOXML body; all <w:t> text runs are collected regardless of paragraph and
// run attributes, with paragraph boundaries preserved as newlines so that
// downstream chunking sees natural breaks.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	bodyPath := docxBodyPath(zr)
	body, err := readZipFile(zr, bodyPath)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	paragraphs := paragraphEnd.Split(string(body), -1)
	for _, para := range paragraphs {
		runs := runText.FindAllStringSubmatch(para, -1)
		if len(runs) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		for i, r := range runs {
			if i > 0 {
				b.WriteByte(' ')
			}
			// Run text is XML-escaped inside <w:t>.
			b.WriteString(strings.TrimSpace(html.UnescapeString(r[1])))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// docxBodyPath resolves the body part path from [Content_Types].xml, falling
// back to the conventional word/document.xml.
func docxBodyPath(zr *zip.Reader) string {
	types, err := readZipFile(zr, "[Content_Types].xml")
	if err != nil {
		return defaultDocxBodyPath
	}
	for _, re := range overridePartName {
		if m := re.FindStringSubmatch(string(types)); len(m) > 1 {
			return strings.TrimPrefix(m[1], "/")
		}
	}
	return defaultDocxBodyPath
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extract DOCX: open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("extract DOCX: read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("extract DOCX: %s not found", name)
}
