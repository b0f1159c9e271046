package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/skywise-ai/skywise/engine/policy"
	"github.com/skywise-ai/skywise/engine/policy/contextbuild"
	"github.com/skywise-ai/skywise/engine/policy/generate"
	"github.com/skywise-ai/skywise/engine/policy/retriever"
	"github.com/skywise-ai/skywise/engine/policy/uc"
	"github.com/skywise-ai/skywise/engine/policy/vectordb"
	"github.com/skywise-ai/skywise/server"
)

type stubEmbedder struct{}

func (stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func (stubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (stubEmbedder) Dimension() int { return 3 }

type stubStore struct {
	matches []vectordb.Match
}

func (s *stubStore) EnsureCollection(context.Context) error { return nil }

func (s *stubStore) Upsert(context.Context, []vectordb.Record) error { return nil }

func (s *stubStore) Close(context.Context) error { return nil }

func (s *stubStore) Search(context.Context, []float32, vectordb.SearchOptions) ([]vectordb.Match, error) {
	return s.matches, nil
}

type stubModel struct {
	response string
	err      error
}

func (s *stubModel) GenerateContent(
	context.Context,
	[]llms.MessageContent,
	...llms.CallOption,
) (*llms.ContentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s.response}}}, nil
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := s.GenerateContent(ctx, nil, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func newTestServer(t *testing.T, store *stubStore, model *stubModel) http.Handler {
	t.Helper()
	ret, err := retriever.NewService(stubEmbedder{}, store, 5)
	require.NoError(t, err)
	builder, err := contextbuild.NewBuilder(3000)
	require.NoError(t, err)
	gen, err := generate.NewServiceWithModel(&generate.Config{
		Provider: generate.ProviderOpenAI,
		Model:    "gpt-4o-mini",
	}, model)
	require.NoError(t, err)
	ask, err := uc.NewAsk(ret, builder, gen)
	require.NoError(t, err)
	return server.New("127.0.0.1:0", ask).Handler()
}

func postAsk(t *testing.T, handler http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	handler := newTestServer(t, &stubStore{}, &stubModel{response: "ok"})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAsk(t *testing.T) {
	t.Run("Should answer a valid question", func(t *testing.T) {
		store := &stubStore{matches: []vectordb.Match{{
			Score: 0.9,
			Payload: map[string]any{
				policy.PayloadText:    "First checked bag is free.",
				policy.PayloadSource:  "Delta/baggage.md",
				policy.PayloadAirline: "Delta",
			},
		}}}
		handler := newTestServer(t, store, &stubModel{response: "Your first bag flies free."})

		rec := postAsk(t, handler, map[string]any{
			"question": "How many free bags do I get?",
			"airline":  "Delta",
			"category": "baggage",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp server.AskResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "How many free bags do I get?", resp.Question)
		assert.Equal(t, "Your first bag flies free.", resp.Answer)
		assert.Contains(t, resp.Context, "First checked bag is free.")
		assert.Equal(t, []string{"Delta/baggage.md"}, resp.Sources)
	})

	t.Run("Should reject a body without question or airline", func(t *testing.T) {
		handler := newTestServer(t, &stubStore{}, &stubModel{response: "ok"})
		rec := postAsk(t, handler, map[string]any{"question": "How many bags?"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = postAsk(t, handler, map[string]any{"airline": "Delta"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should reject malformed JSON", func(t *testing.T) {
		handler := newTestServer(t, &stubStore{}, &stubModel{response: "ok"})
		req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should reject a non-positive top k", func(t *testing.T) {
		handler := newTestServer(t, &stubStore{}, &stubModel{response: "ok"})
		rec := postAsk(t, handler, map[string]any{
			"question": "How many bags?",
			"airline":  "Delta",
			"top_k":    -1,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should return 400 for an unknown airline", func(t *testing.T) {
		handler := newTestServer(t, &stubStore{}, &stubModel{response: "ok"})
		rec := postAsk(t, handler, map[string]any{
			"question": "How many bags?",
			"airline":  "Ryanair",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown airline")
	})

	t.Run("Should return 502 with an apology when generation fails", func(t *testing.T) {
		handler := newTestServer(t, &stubStore{}, &stubModel{err: errors.New("rate limited")})
		rec := postAsk(t, handler, map[string]any{
			"question": "How many bags?",
			"airline":  "Delta",
		})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "unable to process your question")
		assert.NotContains(t, rec.Body.String(), "rate limited")
	})
}
