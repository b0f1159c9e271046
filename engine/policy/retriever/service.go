// Package retriever answers the retrieval half of a query: embed the
// question, search the vector store under a validated metadata filter, and
// return chunks ordered by descending similarity.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/skywise-ai/skywise/engine/policy"
	"github.com/skywise-ai/skywise/engine/policy/embedder"
	"github.com/skywise-ai/skywise/engine/policy/vectordb"
	"github.com/skywise-ai/skywise/pkg/logger"
)

// Query scopes a retrieval to one airline and, optionally, one category.
type Query struct {
	Airline  policy.Airline
	Category policy.Category
	TopK     int
}

// Validate rejects bad filters before any remote call is made. Searching
// without a valid airline filter would leak answers across carriers.
func (q *Query) Validate() error {
	if _, err := policy.ParseAirline(string(q.Airline)); err != nil {
		return err
	}
	return nil
}

func (q *Query) filters() map[string]string {
	filters := map[string]string{
		policy.PayloadAirline: string(q.Airline),
	}
	if q.Category != "" && q.Category != policy.CategoryGeneral {
		filters[policy.PayloadCategory] = string(q.Category)
	}
	return filters
}

// Service embeds questions and searches the vector store.
type Service struct {
	embedder    embedder.Embedder
	store       vectordb.Store
	defaultTopK int
}

// NewService wires the retriever. defaultTopK applies when a query does not
// set its own.
func NewService(emb embedder.Embedder, store vectordb.Store, defaultTopK int) (*Service, error) {
	if emb == nil {
		return nil, errors.New("retriever: embedder is required")
	}
	if store == nil {
		return nil, errors.New("retriever: vector store is required")
	}
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &Service{embedder: emb, store: store, defaultTopK: defaultTopK}, nil
}

// Retrieve returns the chunks most similar to question, restricted by the
// query filter, ordered by descending score. An empty result is valid and
// feeds the "no policy found" answer path downstream.
func (s *Service) Retrieve(ctx context.Context, question string, query Query) ([]policy.RetrievedChunk, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is required", policy.ErrInvalidFilter)
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	log := logger.With("airline", query.Airline)
	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}
	topK := query.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}
	matches, err := s.store.Search(ctx, vector, vectordb.SearchOptions{
		TopK:    topK,
		Filters: query.filters(),
	})
	if err != nil {
		return nil, err
	}
	chunks := make([]policy.RetrievedChunk, 0, len(matches))
	for i := range matches {
		chunks = append(chunks, toRetrievedChunk(matches[i]))
	}
	sortChunks(chunks)
	log.Debug("retrieval executed", "question_length", len(question), "results", len(chunks))
	return chunks, nil
}

func toRetrievedChunk(match vectordb.Match) policy.RetrievedChunk {
	chunk := policy.RetrievedChunk{Score: match.Score}
	if text, ok := match.Payload[policy.PayloadText].(string); ok {
		chunk.Text = text
	}
	if source, ok := match.Payload[policy.PayloadSource].(string); ok {
		chunk.Source = source
	}
	if airline, ok := match.Payload[policy.PayloadAirline].(string); ok {
		chunk.Airline = airline
	}
	return chunk
}

func sortChunks(chunks []policy.RetrievedChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})
}
