// Package vectordb wraps the remote vector database behind the minimal
// contract ingestion and retrieval need: idempotent collection setup, batch
// upsert, and filtered similarity search.
package vectordb

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider enumerates supported vector database backends.
type Provider string

const (
	ProviderQdrant Provider = "qdrant"
)

// Record represents a chunk persisted to the vector store. Re-upserting a
// record with the same ID overwrites it.
type Record struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// SearchOptions controls similarity search execution. Filters is a
// conjunction of exact-match payload fields.
type SearchOptions struct {
	TopK    int
	Filters map[string]string
}

// Match captures a similarity search result. An empty result set is valid,
// never an error.
type Match struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Store exposes the contract for ingestion and retrieval. Implementations
// must be safe for concurrent use.
type Store interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, vector []float32, opts SearchOptions) ([]Match, error)
	Close(ctx context.Context) error
}

// Config captures normalized connection details for a vector database.
type Config struct {
	Provider   Provider
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Metric     string
	Timeout    time.Duration
}

// New selects a backend by explicit factory switch.
func New(cfg *Config) (Store, error) {
	if cfg == nil {
		return nil, errors.New("vectordb: config is required")
	}
	switch cfg.Provider {
	case ProviderQdrant:
		return newQdrantStore(cfg)
	default:
		return nil, fmt.Errorf("vectordb: provider %q is not supported", cfg.Provider)
	}
}

func clonePayload(src map[string]any) map[string]any {
	if src == nil {
		return make(map[string]any)
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
