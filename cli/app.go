package cli

import (
	"github.com/skywise-ai/skywise/engine/policy/chunk"
	"github.com/skywise-ai/skywise/engine/policy/contextbuild"
	"github.com/skywise-ai/skywise/engine/policy/embedder"
	"github.com/skywise-ai/skywise/engine/policy/generate"
	"github.com/skywise-ai/skywise/engine/policy/ingest"
	"github.com/skywise-ai/skywise/engine/policy/retriever"
	"github.com/skywise-ai/skywise/engine/policy/vectordb"
	"github.com/skywise-ai/skywise/pkg/config"
)

// buildEmbedder and friends translate the loaded configuration into
// component constructors. Everything receives its settings explicitly; no
// component reads the environment on its own.

func buildEmbedder(cfg *config.Config) (embedder.Embedder, error) {
	return embedder.New(&embedder.Config{
		Provider:  embedder.Provider(cfg.Embedding.Provider),
		Model:     cfg.Embedding.Model,
		APIKey:    cfg.Embedding.APIKey,
		Dimension: cfg.Embedding.Dimension,
		BatchSize: cfg.Embedding.BatchSize,
	})
}

func buildStore(cfg *config.Config) (vectordb.Store, error) {
	return vectordb.New(&vectordb.Config{
		Provider:   vectordb.ProviderQdrant,
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
		Dimension:  cfg.Embedding.Dimension,
		Metric:     cfg.Qdrant.Metric,
		Timeout:    cfg.Qdrant.Timeout,
	})
}

func buildIngestPipeline(cfg *config.Config, emb embedder.Embedder, store vectordb.Store) (*ingest.Pipeline, error) {
	splitter, err := chunk.NewSplitter(chunk.Settings{
		Size:    cfg.Pipeline.ChunkSize,
		Overlap: cfg.Pipeline.ChunkOverlap,
	})
	if err != nil {
		return nil, err
	}
	return ingest.NewPipeline(splitter, emb, store, cfg.Embedding.BatchSize, ingest.RetryPolicy{
		Attempts:    cfg.Retry.Attempts,
		BackoffBase: cfg.Retry.BackoffBase,
		BackoffMax:  cfg.Retry.BackoffMax,
	})
}

func buildQueryPipeline(cfg *config.Config, emb embedder.Embedder, store vectordb.Store) (*retriever.Service, *contextbuild.Builder, *generate.Service, error) {
	ret, err := retriever.NewService(emb, store, cfg.Pipeline.TopK)
	if err != nil {
		return nil, nil, nil, err
	}
	builder, err := contextbuild.NewBuilder(cfg.Pipeline.ContextBudget)
	if err != nil {
		return nil, nil, nil, err
	}
	gen, err := generate.NewService(&generate.Config{
		Provider:    generate.Provider(cfg.LLM.Provider),
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return ret, builder, gen, nil
}
