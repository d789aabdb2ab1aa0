package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kiku.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
ollama:
  generate_model: "mistral"
cache:
  ttl_seconds: 60
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Ollama.GenerateModel != "mistral" {
		t.Errorf("unexpected generate model: %q", cfg.Ollama.GenerateModel)
	}
	if cfg.Cache.TTL() != time.Minute {
		t.Errorf("unexpected cache TTL: %v", cfg.Cache.TTL())
	}
	// Unset fields fall back to defaults.
	if cfg.Ollama.EmbeddingModel == "" {
		t.Error("embedding model should default when unset")
	}
	if cfg.Indexing.ChunkSize != 512 || cfg.Indexing.ChunkOverlap != 50 {
		t.Errorf("unexpected chunking defaults: %+v", cfg.Indexing)
	}
}

func TestLoad_missingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("expected default top_k, got %d", cfg.Retrieval.TopK)
	}
}

func TestLoad_malformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kiku.yaml")
	if err := os.WriteFile(path, []byte("server: [not: a: map"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error for malformed yaml")
	}
}

func TestLoad_envOverrides(t *testing.T) {
	t.Setenv("KIKU_PORT", "9999")
	t.Setenv("KIKU_CONNECTION_STRING", "postgres://localhost/app")
	t.Setenv("KIKU_DEBUG", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("env port override lost, got %d", cfg.Server.Port)
	}
	if cfg.Database.ConnectionString != "postgres://localhost/app" {
		t.Errorf("env connection string lost, got %q", cfg.Database.ConnectionString)
	}
	if !cfg.Debug {
		t.Error("env debug override lost")
	}
}

func TestApplyDefaults_watchExtensions(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	if len(cfg.Watch.Extensions) != 2 {
		t.Errorf("unexpected default extensions: %v", cfg.Watch.Extensions)
	}
}
