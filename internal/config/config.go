// Package config provides configuration loading and structs for the Kiku server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Cache     CacheConfig     `yaml:"cache"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds the default connection string used when a request
// does not carry one.
type DatabaseConfig struct {
	ConnectionString string `yaml:"connection_string"`
}

// OllamaConfig holds the Ollama endpoint and model names.
type OllamaConfig struct {
	BaseURL        string `yaml:"base_url"`
	GenerateModel  string `yaml:"generate_model"`
	EmbeddingModel string `yaml:"embedding_model"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// IndexingConfig holds document chunking settings.
type IndexingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// RetrievalConfig holds semantic search settings.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// CacheConfig holds answer cache settings.
type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, applies environment
// overrides, and fills in defaults. A missing file is not an error; the
// returned config then comes from the environment and defaults alone.
func Load(path string) (*Config, error) {
	// Values in an adjacent .env file are exported for the overrides below.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
			configDir := filepath.Dir(path)
			cfg.Watch.Directory = expandPath(cfg.Watch.Directory, configDir)
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	applyEnv(&cfg)
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// applyEnv overrides config fields from KIKU_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("KIKU_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("KIKU_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("KIKU_CONNECTION_STRING"); v != "" {
		cfg.Database.ConnectionString = v
	}
	if v := os.Getenv("KIKU_OLLAMA_URL"); v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v := os.Getenv("KIKU_GENERATE_MODEL"); v != "" {
		cfg.Ollama.GenerateModel = v
	}
	if v := os.Getenv("KIKU_EMBEDDING_MODEL"); v != "" {
		cfg.Ollama.EmbeddingModel = v
	}
	if v := os.Getenv("KIKU_CACHE_TTL_SECONDS"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil {
			cfg.Cache.TTLSeconds = ttl
		}
	}
	if v := os.Getenv("KIKU_DEBUG"); v != "" {
		cfg.Debug = v == "1" || strings.EqualFold(v, "true")
	}
}

// expandPath converts a path to absolute. Relative paths starting with "./"
// are resolved against configDir; empty paths are returned unchanged.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
