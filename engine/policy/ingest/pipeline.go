// Package ingest composes loader, splitter, embedder, and vector store into
// one airline's ingestion run. A single document's failure is logged and
// skipped; embedding or storage failures abort the batch and surface to the
// caller, which owns the decision to rerun.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/skywise-ai/skywise/engine/policy"
	"github.com/skywise-ai/skywise/engine/policy/chunk"
	"github.com/skywise-ai/skywise/engine/policy/embedder"
	"github.com/skywise-ai/skywise/engine/policy/loader"
	"github.com/skywise-ai/skywise/engine/policy/vectordb"
	"github.com/skywise-ai/skywise/pkg/logger"
)

// pointNamespace seeds deterministic point ids. Re-ingesting an unchanged
// document set regenerates identical ids, so upserts overwrite instead of
// duplicating.
var pointNamespace = uuid.MustParse("7ab1f3f4-52ce-4a90-9d2c-6eb1f2a9d8e1")

// RetryPolicy bounds the boundary-layer retries around remote calls.
type RetryPolicy struct {
	Attempts    int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

func (p RetryPolicy) backoff() retry.Backoff {
	base := p.BackoffBase
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	backoff := retry.NewExponential(base)
	if p.BackoffMax > 0 {
		backoff = retry.WithMaxDuration(p.BackoffMax, backoff)
	}
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	// retry.WithMaxRetries counts retries after the first attempt.
	return retry.WithMaxRetries(uint64(attempts-1), backoff)
}

// Pipeline ingests one airline's policy set.
type Pipeline struct {
	splitter  *chunk.Splitter
	embedder  embedder.Embedder
	store     vectordb.Store
	batchSize int
	retry     RetryPolicy
	load      func(path string) (policy.Document, error)
}

// Result summarizes one ingestion run.
type Result struct {
	Airline   policy.Airline
	Documents int
	Skipped   int
	Chunks    int
	Persisted int
}

// NewPipeline wires the ingestion stages together.
func NewPipeline(
	splitter *chunk.Splitter,
	emb embedder.Embedder,
	store vectordb.Store,
	batchSize int,
	retryPolicy RetryPolicy,
) (*Pipeline, error) {
	if splitter == nil {
		return nil, errors.New("ingest: splitter is required")
	}
	if emb == nil {
		return nil, errors.New("ingest: embedder is required")
	}
	if store == nil {
		return nil, errors.New("ingest: vector store is required")
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Pipeline{
		splitter:  splitter,
		embedder:  emb,
		store:     store,
		batchSize: batchSize,
		retry:     retryPolicy,
		load:      loader.Load,
	}, nil
}

// Run ingests every policy file found for airline under root.
func (p *Pipeline) Run(ctx context.Context, root string, airline policy.Airline) (*Result, error) {
	log := logger.With("airline", airline)
	if err := p.store.EnsureCollection(ctx); err != nil {
		return nil, err
	}
	files, err := ListPolicyFiles(root, airline)
	if err != nil {
		return nil, err
	}
	result := &Result{Airline: airline}
	var pending []pendingChunk
	for _, path := range files {
		doc, err := p.load(path)
		if err != nil {
			// Load problems are structural, not transient: report the
			// document and continue with the rest of the batch.
			if errors.Is(err, policy.ErrUnsupportedDocument) || errors.Is(err, policy.ErrLoad) {
				log.Warn("skipping document", "path", path, "error", err)
				result.Skipped++
				continue
			}
			return nil, err
		}
		chunks := p.splitter.Split(doc.Text)
		if len(chunks) == 0 {
			log.Warn("document produced no chunks", "path", path)
			result.Skipped++
			continue
		}
		result.Documents++
		category := DeriveCategory(path)
		for i := range chunks {
			pending = append(pending, pendingChunk{doc: doc, chunk: chunks[i], category: category})
		}
		log.Info("document chunked", "path", path, "chunks", len(chunks))
	}
	result.Chunks = len(pending)
	if len(pending) == 0 {
		log.Warn("no chunks to index", "root", root)
		return result, nil
	}
	persisted, err := p.persist(ctx, pending)
	if err != nil {
		return nil, err
	}
	result.Persisted = persisted
	log.Info("ingestion finished",
		"documents", result.Documents,
		"skipped", result.Skipped,
		"chunks", result.Chunks,
		"persisted", result.Persisted,
	)
	return result, nil
}

type pendingChunk struct {
	doc      policy.Document
	chunk    chunk.Chunk
	category policy.Category
}

func (p *Pipeline) persist(ctx context.Context, pending []pendingChunk) (int, error) {
	total := 0
	for start := 0; start < len(pending); start += p.batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		end := min(start+p.batchSize, len(pending))
		batch := pending[start:end]
		vectors, err := p.embedBatch(ctx, batch)
		if err != nil {
			return total, err
		}
		records := make([]vectordb.Record, len(batch))
		for i := range batch {
			records[i] = buildRecord(batch[i], vectors[i])
		}
		if err := p.upsertBatch(ctx, records); err != nil {
			return total, err
		}
		total += len(records)
	}
	return total, nil
}

func (p *Pipeline) embedBatch(ctx context.Context, batch []pendingChunk) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].chunk.Text
	}
	var vectors [][]float32
	err := retry.Do(ctx, p.retry.backoff(), func(ctx context.Context) error {
		out, err := p.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			// A dimension mismatch is fatal configuration; retrying cannot
			// fix it and nothing may reach the store.
			if errors.Is(err, policy.ErrEmbeddingDimension) {
				return err
			}
			return retry.RetryableError(err)
		}
		vectors = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: embed batch failed: %w", err)
	}
	return vectors, nil
}

func (p *Pipeline) upsertBatch(ctx context.Context, records []vectordb.Record) error {
	err := retry.Do(ctx, p.retry.backoff(), func(ctx context.Context) error {
		if err := p.store.Upsert(ctx, records); err != nil {
			if errors.Is(err, policy.ErrEmbeddingDimension) || errors.Is(err, policy.ErrCollectionConfig) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ingest: persist batch failed: %w", err)
	}
	return nil
}

func buildRecord(item pendingChunk, vector []float32) vectordb.Record {
	payload := map[string]any{
		policy.PayloadSource:     item.doc.Path,
		policy.PayloadText:       item.chunk.Text,
		policy.PayloadAirline:    string(item.doc.Airline),
		policy.PayloadChunkIndex: item.chunk.Index,
		policy.PayloadSHA256:     hashText(item.chunk.Text),
	}
	if item.category != "" {
		payload[policy.PayloadCategory] = string(item.category)
	}
	return vectordb.Record{
		ID:      PointID(item.doc.Path, item.chunk.Index),
		Vector:  vector,
		Payload: payload,
	}
}

// PointID derives the deterministic id for one chunk of one source file.
func PointID(source string, chunkIndex int) string {
	return uuid.NewSHA1(pointNamespace, fmt.Appendf(nil, "%s#%d", source, chunkIndex)).String()
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
