package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// buildDocx assembles a minimal .docx zip with one body part containing the
// given paragraphs.
func buildDocx(t *testing.T, bodyPath string, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	body.WriteString(`<?xml version="1.0"?><w:document><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		body.WriteString(p)
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	contentTypes := fmt.Sprintf(
		`<?xml version="1.0"?><Types><Override PartName="/%s" ContentType="%s"/></Types>`,
		bodyPath, docxBodyContentType)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"[Content_Types].xml": contentTypes,
		bodyPath:              body.String(),
	} {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	content := buildDocx(t, "word/document.xml", "First paragraph.", "Second paragraph.")
	e := NewExtractor()

	text, err := e.Extract("report.docx", content)
	if err != nil {
		t.Fatal(err)
	}
	want := "First paragraph.\nSecond paragraph."
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestExtractDOCX_xmlEntities(t *testing.T) {
	content := buildDocx(t, "word/document.xml",
		"Black &amp; white", "Profit &lt; loss &gt; break-even")
	e := NewExtractor()

	text, err := e.Extract("escaped.docx", content)
	if err != nil {
		t.Fatal(err)
	}
	want := "Black & white\nProfit < loss > break-even"
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestExtractDOCX_customBodyPath(t *testing.T) {
	content := buildDocx(t, "word/document2.xml", "Body lives elsewhere.")
	e := NewExtractor()

	text, err := e.Extract("odd.docx", content)
	if err != nil {
		t.Fatal(err)
	}
	if text != "Body lives elsewhere." {
		t.Errorf("got %q", text)
	}
}

func TestExtractDOCX_notAZip(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract("broken.docx", []byte("plain text, not a zip")); err == nil {
		t.Fatal("expected error for non-zip content")
	}
}

func TestExtract_unsupportedExtension(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract("notes.txt", []byte("hello"))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestExtract_caseInsensitiveExtension(t *testing.T) {
	content := buildDocx(t, "word/document.xml", "Upper case extension.")
	e := NewExtractor()
	if _, err := e.Extract("REPORT.DOCX", content); err != nil {
		t.Fatal(err)
	}
}

func TestSupported(t *testing.T) {
	cases := map[string]bool{
		"a.pdf":   true,
		"a.docx":  true,
		"A.PDF":   true,
		"a.txt":   false,
		"a.doc":   false,
		"no-ext":  false,
		"a.docx2": false,
	}
	for name, want := range cases {
		if got := Supported(name); got != want {
			t.Errorf("Supported(%q) = %v, want %v", name, got, want)
		}
	}
}
