package config

import (
	"fmt"
	"time"
)

// Config is the process-wide configuration, constructed once at startup and
// passed into each component's constructor. There is no ambient global state.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Qdrant    QdrantConfig    `koanf:"qdrant"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	LLM       LLMConfig       `koanf:"llm"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Retry     RetryConfig     `koanf:"retry"`
	Log       LogConfig       `koanf:"log"`
}

// ServerConfig controls the HTTP front door.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"gte=0,lte=65535"`
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// QdrantConfig points at the vector database collection.
type QdrantConfig struct {
	URL        string        `koanf:"url" validate:"required"`
	APIKey     string        `koanf:"api_key"`
	Collection string        `koanf:"collection" validate:"required"`
	Metric     string        `koanf:"metric"`
	Timeout    time.Duration `koanf:"timeout"`
}

// EmbeddingConfig selects and sizes the embedding provider.
type EmbeddingConfig struct {
	Provider  string `koanf:"provider" validate:"required"`
	Model     string `koanf:"model" validate:"required"`
	APIKey    string `koanf:"api_key"`
	Dimension int    `koanf:"dimension" validate:"gt=0"`
	BatchSize int    `koanf:"batch_size" validate:"gt=0"`
}

// LLMConfig selects the generative model.
type LLMConfig struct {
	Provider    string        `koanf:"provider" validate:"required"`
	Model       string        `koanf:"model" validate:"required"`
	APIKey      string        `koanf:"api_key"`
	Temperature float64       `koanf:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `koanf:"timeout"`
}

// PipelineConfig sizes the ingestion and retrieval pipeline.
type PipelineConfig struct {
	DocsRoot      string `koanf:"docs_root"`
	ChunkSize     int    `koanf:"chunk_size" validate:"gt=0"`
	ChunkOverlap  int    `koanf:"chunk_overlap" validate:"gte=0"`
	TopK          int    `koanf:"top_k" validate:"gt=0"`
	ContextBudget int    `koanf:"context_budget" validate:"gt=0"`
}

// RetryConfig is the boundary-layer retry policy for remote calls during
// ingestion. Provider wrappers never retry on their own.
type RetryConfig struct {
	Attempts    int           `koanf:"attempts" validate:"gt=0"`
	BackoffBase time.Duration `koanf:"backoff_base"`
	BackoffMax  time.Duration `koanf:"backoff_max"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `koanf:"level"`
	JSON   bool   `koanf:"json"`
	Source bool   `koanf:"source"`
}

// Default returns the baseline configuration before env overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Qdrant: QdrantConfig{
			URL:        "http://localhost:6333",
			Collection: "airline_policies",
			Metric:     "cosine",
			Timeout:    10 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			BatchSize: 64,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.1,
			Timeout:     30 * time.Second,
		},
		Pipeline: PipelineConfig{
			DocsRoot:      "./docs/policies",
			ChunkSize:     1000,
			ChunkOverlap:  120,
			TopK:          5,
			ContextBudget: 3000,
		},
		Retry: RetryConfig{
			Attempts:    3,
			BackoffBase: 200 * time.Millisecond,
			BackoffMax:  2 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate enforces cross-field invariants the struct tags cannot express.
func (c *Config) Validate() error {
	if c.Pipeline.ChunkOverlap >= c.Pipeline.ChunkSize {
		return fmt.Errorf(
			"config: chunk overlap %d must be smaller than chunk size %d",
			c.Pipeline.ChunkOverlap, c.Pipeline.ChunkSize,
		)
	}
	if c.Retry.BackoffMax > 0 && c.Retry.BackoffMax < c.Retry.BackoffBase {
		return fmt.Errorf(
			"config: retry backoff max %s must not be below backoff base %s",
			c.Retry.BackoffMax, c.Retry.BackoffBase,
		)
	}
	return nil
}
