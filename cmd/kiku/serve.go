package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
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
	"github.com/hyperjump/kiku/internal/ollama"
	"github.com/hyperjump/kiku/internal/retrieval"
	"github.com/hyperjump/kiku/internal/server"
	"github.com/hyperjump/kiku/internal/synthesize"
	"github.com/hyperjump/kiku/internal/watcher"
	"github.com/hyperjump/kiku/pkg/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Kiku HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := ollama.New(cfg.Ollama.BaseURL, nil)
	if !client.IsRunning(ctx) {
		logger.Warn("ollama is not reachable, queries will fail until it is up",
			zap.String("base_url", cfg.Ollama.BaseURL))
	}

	embedder := embedding.NewCachedEmbedder(
		embedding.NewOllamaEmbedder(client, cfg.Ollama.EmbeddingModel),
		cfg.Embedding.CacheSize,
	)
	store := corpus.NewStore()

	idx := indexer.NewIndexer(
		extract.NewExtractor(),
		indexer.NewChunker(cfg.Indexing.ChunkSize, cfg.Indexing.ChunkOverlap),
		embedder,
		store,
		indexer.WithLogger(logger),
	)

	eng := engine.NewEngine(
		classify.NewClassifier(),
		synthesize.NewSynthesizer(client, cfg.Ollama.GenerateModel, synthesize.WithLogger(logger)),
		retrieval.NewRetriever(embedder, store),
		cache.New(cfg.Cache.TTL()),
		engine.WithTopK(cfg.Retrieval.TopK),
		engine.WithLogger(logger),
	)

	if cfg.Watch.Directory != "" {
		w := watcher.NewWatcher(cfg.Watch.Directory, cfg.Watch.Extensions,
			func(ctx context.Context, files []models.File) error {
				_, err := idx.Index(ctx, files)
				return err
			},
			watcher.WithLogger(logger),
		)
		if err := w.Start(ctx); err != nil {
			return err
		}
	}

	srv := server.NewServer(eng, idx, store, database.Discover, cfg, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
