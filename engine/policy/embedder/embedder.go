// Package embedder wraps a remote text-embedding model behind a small
// interface. The wrapper validates vector dimensions on every response and
// never retries: transport failures surface immediately so the boundary
// layer owns retry policy.
package embedder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/skywise-ai/skywise/engine/policy"
)

// Provider enumerates supported embedding backends.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
)

// Embedder is the contract the pipeline depends on.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Config holds the embedding provider settings.
type Config struct {
	Provider  Provider
	Model     string
	APIKey    string
	Dimension int
	BatchSize int
}

func (c *Config) validate() error {
	if strings.TrimSpace(string(c.Provider)) == "" {
		return errors.New("embedder: provider is required")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("embedder: model is required")
	}
	if c.Dimension <= 0 {
		return errors.New("embedder: dimension must be greater than zero")
	}
	if c.BatchSize <= 0 {
		return errors.New("embedder: batch size must be greater than zero")
	}
	return nil
}

// Adapter wraps a langchaingo embedder and enforces the configured vector
// dimension before anything downstream can see a vector.
type Adapter struct {
	model     string
	dimension int
	batchSize int
	impl      embeddings.Embedder
}

// New constructs a provider-backed adapter. Backends are selected by an
// explicit factory switch, not runtime type inspection.
func New(cfg *Config) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("embedder: config is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	impl, err := buildProviderEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
		impl:      impl,
	}, nil
}

// Wrap constructs an adapter around an existing langchaingo embedder.
// Used by tests and by callers that manage their own client.
func Wrap(cfg *Config, impl embeddings.Embedder) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("embedder: config is required")
	}
	if impl == nil {
		return nil, errors.New("embedder: implementation is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Adapter{
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
		impl:      impl,
	}, nil
}

// Dimension returns the configured vector dimension.
func (a *Adapter) Dimension() int {
	return a.dimension
}

// BatchSize returns the configured batch size.
func (a *Adapter) BatchSize() int {
	return a.batchSize
}

// EmbedDocuments embeds a batch of texts, preserving input order.
func (a *Adapter) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := a.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: model %s: %v", policy.ErrEmbeddingProvider, a.model, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: model %s: received %d vectors for %d texts",
			policy.ErrEmbeddingProvider, a.model, len(vectors), len(texts))
	}
	for i := range vectors {
		if err := a.checkDimension(vectors[i]); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

// EmbedQuery embeds a single query text.
func (a *Adapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := a.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: model %s: %v", policy.ErrEmbeddingProvider, a.model, err)
	}
	if err := a.checkDimension(vector); err != nil {
		return nil, err
	}
	return vector, nil
}

func (a *Adapter) checkDimension(vector []float32) error {
	if len(vector) != a.dimension {
		return fmt.Errorf("%w: model %s returned %d dimensions, expected %d",
			policy.ErrEmbeddingDimension, a.model, len(vector), a.dimension)
	}
	return nil
}

func buildProviderEmbedder(cfg *Config) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return buildOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("embedder: provider %q is not supported", cfg.Provider)
	}
}

func buildOpenAIEmbedder(cfg *Config) (embeddings.Embedder, error) {
	opts := []openai.Option{
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("embedder: failed to initialize openai client: %w", err)
	}
	impl, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(cfg.BatchSize),
		embeddings.WithStripNewLines(true),
	)
	if err != nil {
		return nil, fmt.Errorf("embedder: failed to construct openai embedder: %w", err)
	}
	return impl, nil
}
