package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/kiku/internal/cache"
	"github.com/hyperjump/kiku/internal/classify"
	"github.com/hyperjump/kiku/internal/config"
	"github.com/hyperjump/kiku/internal/corpus"
	"github.com/hyperjump/kiku/internal/database"
	"github.com/hyperjump/kiku/internal/embedding"
	"github.com/hyperjump/kiku/internal/engine"
	"github.com/hyperjump/kiku/internal/extract"
	"github.com/hyperjump/kiku/internal/indexer"
	"github.com/hyperjump/kiku/internal/models"
	"github.com/hyperjump/kiku/internal/retrieval"
	"github.com/hyperjump/kiku/internal/synthesize"
)

type fakeGenerator struct {
	response string
}

func (f *fakeGenerator) Generate(context.Context, string, string) (string, error) {
	return f.response, nil
}

func fakeDiscover(schema *models.Schema, err error) SchemaDiscoverer {
	return func(context.Context, string) (*models.Schema, error) {
		return schema, err
	}
}

func newTestServer(t *testing.T, discover SchemaDiscoverer) *Server {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	embedder := embedding.NewMockEmbedder(16)
	store := corpus.NewStore()
	idx := indexer.NewIndexer(
		extract.NewExtractor(),
		indexer.NewChunker(cfg.Indexing.ChunkSize, cfg.Indexing.ChunkOverlap),
		embedder,
		store,
	)
	eng := engine.NewEngine(
		classify.NewClassifier(),
		synthesize.NewSynthesizer(&fakeGenerator{response: "SELECT 1"}, "test-model"),
		retrieval.NewRetriever(embedder, store),
		cache.New(cache.DefaultTTL),
	)
	if discover == nil {
		discover = database.Discover
	}
	return NewServer(eng, idx, store, discover, cfg, zap.NewNop())
}

// docxBytes builds a minimal .docx zip containing the given paragraphs.
func docxBytes(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var doc bytes.Buffer
	doc.WriteString(`<?xml version="1.0"?><w:document><w:body>`)
	for _, p := range paragraphs {
		fmt.Fprintf(&doc, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	doc.WriteString(`</w:body></w:document>`)

	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(doc.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return zipBuf.Bytes()
}

// multipartUpload assembles a multipart body from filename to content.
func multipartUpload(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, mw.FormDataContentType()
}

func docxUpload(t *testing.T, fieldFile string, paragraphs ...string) (*bytes.Buffer, string) {
	t.Helper()
	return multipartUpload(t, map[string][]byte{fieldFile: docxBytes(t, paragraphs...)})
}

// errorBody decodes the JSON error envelope of a failed response.
func errorBody(t *testing.T, rec *httptest.ResponseRecorder) (message, kind string) {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Error, resp.Kind
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleQuery_documentPath(t *testing.T) {
	srv := newTestServer(t, nil)
	router := srv.Router()

	// Index a document first.
	body, contentType := docxUpload(t, "notes.docx", "the contract expires in June")
	req := httptest.NewRequest("POST", "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload failed with %d: %s", rec.Code, rec.Body.String())
	}

	payload, _ := json.Marshal(models.QueryRequest{Question: "What does the contract say?"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/query", bytes.NewReader(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var answer models.Answer
	if err := json.Unmarshal(rec.Body.Bytes(), &answer); err != nil {
		t.Fatal(err)
	}
	if answer.QueryType != models.Document {
		t.Errorf("expected document routing, got %v", answer.QueryType)
	}
	if len(answer.Chunks) == 0 {
		t.Error("expected retrieved chunks in the response")
	}
}

func TestHandleQuery_emptyQuestion(t *testing.T) {
	srv := newTestServer(t, nil)
	payload := []byte(`{"question": ""}`)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/query", bytes.NewReader(payload)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if _, kind := errorBody(t, rec); kind != "validation" {
		t.Errorf("expected validation error kind, got %q", kind)
	}
}

func TestHandleQuery_invalidBody(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/query", bytes.NewReader([]byte("{not json"))))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleConnectDatabase(t *testing.T) {
	schema := &models.Schema{Tables: []models.TableSchema{{Name: "employees"}}}
	srv := newTestServer(t, fakeDiscover(schema, nil))

	payload := []byte(`{"connection_string": "app.db"}`)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/connect-database", bytes.NewReader(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Tables int `json:"tables"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Tables != 1 {
		t.Errorf("expected 1 table, got %d", resp.Tables)
	}
}

func TestHandleConnectDatabase_emptySchema(t *testing.T) {
	srv := newTestServer(t, fakeDiscover(&models.Schema{}, nil))

	payload := []byte(`{"connection_string": "empty.db"}`)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/connect-database", bytes.NewReader(payload)))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a database with no user tables, got %d", rec.Code)
	}
}

func TestHandleConnectDatabase_failure(t *testing.T) {
	srv := newTestServer(t, fakeDiscover(nil, &database.ConnectionError{Err: context.DeadlineExceeded}))

	payload := []byte(`{"connection_string": "bad"}`)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/connect-database", bytes.NewReader(payload)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if _, kind := errorBody(t, rec); kind != "connection" {
		t.Errorf("expected connection error kind, got %q", kind)
	}
}

func TestHandleUploadDocuments_skipsUnsupported(t *testing.T) {
	srv := newTestServer(t, nil)

	body, contentType := multipartUpload(t, map[string][]byte{
		"notes.txt":   []byte("plain text"),
		"report.docx": docxBytes(t, "quarterly revenue grew"),
	})
	req := httptest.NewRequest("POST", "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a batch with one supported file, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Files   int `json:"files"`
		Skipped int `json:"skipped"`
		Chunks  int `json:"chunks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Files != 1 || resp.Skipped != 1 {
		t.Errorf("expected 1 indexed and 1 skipped, got %+v", resp)
	}
	if resp.Chunks == 0 {
		t.Error("expected chunks from the supported file")
	}
}

func TestHandleUploadDocuments_allUnsupported(t *testing.T) {
	srv := newTestServer(t, nil)

	body, contentType := multipartUpload(t, map[string][]byte{
		"notes.txt": []byte("plain text"),
		"data.csv":  []byte("a,b\n1,2"),
	})
	req := httptest.NewRequest("POST", "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when no file is supported, got %d", rec.Code)
	}
	if _, kind := errorBody(t, rec); kind != "validation" {
		t.Errorf("expected validation error kind, got %q", kind)
	}
}

func TestHandleUploadDocuments_noFiles(t *testing.T) {
	srv := newTestServer(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("note", "nothing attached")
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		IndexedChunks int `json:"indexed_chunks"`
		CorpusVersion int `json:"corpus_version"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.IndexedChunks != 0 || resp.CorpusVersion != 0 {
		t.Errorf("fresh server should report an empty corpus, got %+v", resp)
	}
}
