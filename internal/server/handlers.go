package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/kiku/internal/database"
	"github.com/hyperjump/kiku/internal/engine"
	"github.com/hyperjump/kiku/internal/extract"
	"github.com/hyperjump/kiku/internal/models"
	"github.com/hyperjump/kiku/internal/retrieval"
	"github.com/hyperjump/kiku/internal/synthesize"
)

const maxUploadBytes = 64 << 20

// Machine-readable error kinds carried alongside the human message so
// clients can branch without parsing text.
const (
	errKindValidation = "validation"
	errKindConnection = "connection"
	errKindSynthesis  = "synthesis"
	errKindExecution  = "execution"
	errKindRetrieval  = "retrieval"
	errKindInternal   = "internal"
)

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, errKindValidation, "invalid request body")
		return
	}
	if req.ConnectionString == "" {
		req.ConnectionString = s.config.Database.ConnectionString
	}
	s.logger.Debug("query request", zap.String("question", req.Question))

	answer, err := s.engine.Query(r.Context(), req)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, statusFor(err), kindFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

type connectRequest struct {
	ConnectionString string `json:"connection_string"`
}

func (s *Server) handleConnectDatabase(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, errKindValidation, "invalid request body")
		return
	}
	schema, err := s.discover(r.Context(), req.ConnectionString)
	if err != nil {
		s.logger.Error("database connection failed", zap.Error(err))
		s.respondError(w, statusFor(err), kindFor(err), err.Error())
		return
	}
	if schema.TableCount() == 0 {
		s.respondError(w, http.StatusNotFound, errKindConnection, "no user tables found in the database")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Database connected successfully.",
		"tables":  schema.TableCount(),
		"schema":  schema,
	})
}

func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, errKindValidation, "invalid multipart form")
		return
	}

	var files []models.File
	skipped := 0
	for _, headers := range r.MultipartForm.File {
		for _, hdr := range headers {
			// Unsupported extensions are skipped, the rest of the batch
			// still indexes.
			if !extract.Supported(hdr.Filename) {
				s.logger.Debug("skipping unsupported upload", zap.String("file", hdr.Filename))
				skipped++
				continue
			}
			f, err := hdr.Open()
			if err != nil {
				s.respondError(w, http.StatusBadRequest, errKindValidation, "cannot read upload: "+hdr.Filename)
				return
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				s.respondError(w, http.StatusBadRequest, errKindValidation, "cannot read upload: "+hdr.Filename)
				return
			}
			files = append(files, models.File{Name: hdr.Filename, Content: content})
		}
	}
	if len(files) == 0 {
		s.respondError(w, http.StatusBadRequest, errKindValidation, "no supported files provided")
		return
	}

	count, err := s.indexer.Index(r.Context(), files)
	if err != nil {
		s.logger.Error("document indexing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, errKindInternal, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Documents processed and indexed successfully.",
		"files":   len(files),
		"skipped": skipped,
		"chunks":  count,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	s.respondJSON(w, http.StatusOK, map[string]any{
		"indexed_chunks":  len(snap.Chunks),
		"corpus_version":  snap.Version,
		"embedding_model": snap.ModelID,
		"config": map[string]any{
			"chunk_size":    s.config.Indexing.ChunkSize,
			"chunk_overlap": s.config.Indexing.ChunkOverlap,
			"top_k":         s.config.Retrieval.TopK,
			"cache_ttl":     s.config.Cache.TTLSeconds,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps typed engine errors to HTTP status codes. Caller input
// problems map to 4xx, downstream failures to 5xx.
func statusFor(err error) int {
	var connErr *database.ConnectionError
	var synErr *synthesize.SynthesisError
	switch {
	case errors.Is(err, engine.ErrEmptyQuestion),
		errors.Is(err, database.ErrEmptyConnection):
		return http.StatusBadRequest
	case errors.As(err, &connErr):
		return http.StatusBadRequest
	case errors.As(err, &synErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// kindFor maps typed engine errors to machine-readable kind strings.
func kindFor(err error) string {
	var (
		connErr *database.ConnectionError
		execErr *database.ExecutionError
		synErr  *synthesize.SynthesisError
		retErr  *retrieval.RetrievalError
	)
	switch {
	case errors.Is(err, engine.ErrEmptyQuestion),
		errors.Is(err, database.ErrEmptyConnection):
		return errKindValidation
	case errors.As(err, &connErr):
		return errKindConnection
	case errors.As(err, &synErr):
		return errKindSynthesis
	case errors.As(err, &execErr):
		return errKindExecution
	case errors.As(err, &retErr):
		return errKindRetrieval
	default:
		return errKindInternal
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, kind, message string) {
	s.respondJSON(w, status, map[string]string{"error": message, "kind": kind})
}
