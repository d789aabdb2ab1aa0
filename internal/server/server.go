// Package server provides the HTTP API for Kiku.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kiku/internal/config"
	"github.com/hyperjump/kiku/internal/corpus"
	"github.com/hyperjump/kiku/internal/engine"
	"github.com/hyperjump/kiku/internal/indexer"
	"github.com/hyperjump/kiku/internal/models"
)

// SchemaDiscoverer resolves a connection string to a database schema.
type SchemaDiscoverer func(ctx context.Context, connString string) (*models.Schema, error)

// Server is the HTTP server for the Kiku API.
type Server struct {
	engine   *engine.Engine
	indexer  *indexer.Indexer
	store    *corpus.Store
	discover SchemaDiscoverer
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	eng *engine.Engine,
	idx *indexer.Indexer,
	store *corpus.Store,
	discover SchemaDiscoverer,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:   eng,
		indexer:  idx,
		store:    store,
		discover: discover,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/query", s.handleQuery)
	r.Post("/api/v1/connect-database", s.handleConnectDatabase)
	r.Post("/api/v1/documents", s.handleUploadDocuments)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
