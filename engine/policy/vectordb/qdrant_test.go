package vectordb_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skywise-ai/skywise/engine/policy"
	"github.com/skywise-ai/skywise/engine/policy/vectordb"
)

func newTestStore(t *testing.T, serverURL string) vectordb.Store {
	t.Helper()
	store, err := vectordb.New(&vectordb.Config{
		Provider:   vectordb.ProviderQdrant,
		URL:        serverURL,
		Collection: "airline_policies",
		Dimension:  3,
	})
	require.NoError(t, err)
	return store
}

func TestNew(t *testing.T) {
	t.Run("Should reject nil config", func(t *testing.T) {
		_, err := vectordb.New(nil)
		require.Error(t, err)
	})

	t.Run("Should reject unknown providers", func(t *testing.T) {
		_, err := vectordb.New(&vectordb.Config{Provider: "pinecone"})
		require.Error(t, err)
	})

	t.Run("Should reject missing url collection or dimension", func(t *testing.T) {
		_, err := vectordb.New(&vectordb.Config{Provider: vectordb.ProviderQdrant, Collection: "c", Dimension: 3})
		require.Error(t, err)
		_, err = vectordb.New(&vectordb.Config{Provider: vectordb.ProviderQdrant, URL: "http://localhost:6333", Dimension: 3})
		require.Error(t, err)
		_, err = vectordb.New(&vectordb.Config{Provider: vectordb.ProviderQdrant, URL: "http://localhost:6333", Collection: "c"})
		require.Error(t, err)
	})
}

func TestQdrantStore_EnsureCollection(t *testing.T) {
	t.Run("Should accept an existing collection with matching dimension", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, "/collections/airline_policies", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"result":{"config":{"params":{"vectors":{"size":3,"distance":"Cosine"}}}}}`))
		}))
		defer server.Close()
		store := newTestStore(t, server.URL)
		require.NoError(t, store.EnsureCollection(context.Background()))
	})

	t.Run("Should fail with ErrCollectionConfig on a dimension mismatch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"result":{"config":{"params":{"vectors":{"size":1536,"distance":"Cosine"}}}}}`))
		}))
		defer server.Close()
		store := newTestStore(t, server.URL)
		err := store.EnsureCollection(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, policy.ErrCollectionConfig)
	})

	t.Run("Should create the collection when absent", func(t *testing.T) {
		var created map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				http.Error(w, `{"status":{"error":"Collection not found"}}`, http.StatusNotFound)
			case http.MethodPut:
				require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
				_, _ = w.Write([]byte(`{"result":true}`))
			default:
				t.Fatalf("unexpected method %s", r.Method)
			}
		}))
		defer server.Close()
		store := newTestStore(t, server.URL)
		require.NoError(t, store.EnsureCollection(context.Background()))
		require.NotNil(t, created)
		vectors, ok := created["vectors"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(3), vectors["size"])
		assert.Equal(t, "Cosine", vectors["distance"])
	})

	t.Run("Should propagate server errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"status":{"error":"internal"}}`, http.StatusInternalServerError)
		}))
		defer server.Close()
		store := newTestStore(t, server.URL)
		err := store.EnsureCollection(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, policy.ErrCollectionConfig)
	})
}

func TestQdrantStore_Upsert(t *testing.T) {
	t.Run("Should send points with ids vectors and payloads", func(t *testing.T) {
		var body struct {
			Points []struct {
				ID      string         `json:"id"`
				Vector  []float32      `json:"vector"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPut, r.Method)
			require.Equal(t, "/collections/airline_policies/points", r.URL.Path)
			require.Equal(t, "true", r.URL.Query().Get("wait"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
		}))
		defer server.Close()
		store := newTestStore(t, server.URL)
		err := store.Upsert(context.Background(), []vectordb.Record{{
			ID:     "point-1",
			Vector: []float32{0.1, 0.2, 0.3},
			Payload: map[string]any{
				policy.PayloadSource:  "Delta/baggage.md",
				policy.PayloadText:    "Checked bags fly free.",
				policy.PayloadAirline: "Delta",
			},
		}})
		require.NoError(t, err)
		require.Len(t, body.Points, 1)
		assert.Equal(t, "point-1", body.Points[0].ID)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, body.Points[0].Vector)
		assert.Equal(t, "Delta", body.Points[0].Payload[policy.PayloadAirline])
	})

	t.Run("Should be a no-op for an empty batch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Fatal("no request expected")
		}))
		defer server.Close()
		store := newTestStore(t, server.URL)
		require.NoError(t, store.Upsert(context.Background(), nil))
	})

	t.Run("Should fail with ErrEmbeddingDimension before any request", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			requests++
		}))
		defer server.Close()
		store := newTestStore(t, server.URL)
		err := store.Upsert(context.Background(), []vectordb.Record{{
			ID:     "point-1",
			Vector: []float32{0.1, 0.2},
		}})
		require.Error(t, err)
		assert.ErrorIs(t, err, policy.ErrEmbeddingDimension)
		assert.Zero(t, requests)
	})
}

func TestQdrantStore_Search(t *testing.T) {
	t.Run("Should send filters and map results to matches", func(t *testing.T) {
		var request struct {
			Vector      []float32 `json:"vector"`
			Limit       int       `json:"limit"`
			WithPayload bool      `json:"with_payload"`
			Filter      *struct {
				Must []struct {
					Key   string `json:"key"`
					Match struct {
						Value string `json:"value"`
					} `json:"match"`
				} `json:"must"`
			} `json:"filter"`
		}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/collections/airline_policies/points/search", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"result":[
				{"id":"p1","score":0.92,"payload":{"page_content":"Bags up to 23kg.","source":"Delta/baggage.md","airline":"Delta"}},
				{"id":"p2","score":0.81,"payload":{"page_content":"Fees apply after the first bag.","source":"Delta/fees.md","airline":"Delta"}}
			]}`))
		}))
		defer server.Close()
		store := newTestStore(t, server.URL)
		matches, err := store.Search(context.Background(), []float32{0.1, 0.2, 0.3}, vectordb.SearchOptions{
			TopK:    2,
			Filters: map[string]string{policy.PayloadAirline: "Delta"},
		})
		require.NoError(t, err)

		assert.Equal(t, 2, request.Limit)
		assert.True(t, request.WithPayload)
		require.NotNil(t, request.Filter)
		require.Len(t, request.Filter.Must, 1)
		assert.Equal(t, policy.PayloadAirline, request.Filter.Must[0].Key)
		assert.Equal(t, "Delta", request.Filter.Must[0].Match.Value)

		require.Len(t, matches, 2)
		assert.Equal(t, "p1", matches[0].ID)
		assert.InDelta(t, 0.92, matches[0].Score, 1e-9)
		assert.Equal(t, "Bags up to 23kg.", matches[0].Payload[policy.PayloadText])
	})

	t.Run("Should return an empty match list without error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"result":[]}`))
		}))
		defer server.Close()
		store := newTestStore(t, server.URL)
		matches, err := store.Search(context.Background(), []float32{0.1, 0.2, 0.3}, vectordb.SearchOptions{TopK: 5})
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("Should default the limit when top k is unset", func(t *testing.T) {
		var request struct {
			Limit int `json:"limit"`
		}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"result":[]}`))
		}))
		defer server.Close()
		store := newTestStore(t, server.URL)
		_, err := store.Search(context.Background(), []float32{0.1, 0.2, 0.3}, vectordb.SearchOptions{})
		require.NoError(t, err)
		assert.Equal(t, 5, request.Limit)
	})

	t.Run("Should fail with ErrEmbeddingDimension for a mismatched query vector", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Fatal("no request expected")
		}))
		defer server.Close()
		store := newTestStore(t, server.URL)
		_, err := store.Search(context.Background(), []float32{0.1}, vectordb.SearchOptions{TopK: 5})
		require.Error(t, err)
		assert.ErrorIs(t, err, policy.ErrEmbeddingDimension)
	})

	t.Run("Should send the api key header when configured", func(t *testing.T) {
		var gotKey string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("api-key")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"result":[]}`))
		}))
		defer server.Close()
		store, err := vectordb.New(&vectordb.Config{
			Provider:   vectordb.ProviderQdrant,
			URL:        server.URL,
			Collection: "airline_policies",
			Dimension:  3,
			APIKey:     "secret",
		})
		require.NoError(t, err)
		_, err = store.Search(context.Background(), []float32{0.1, 0.2, 0.3}, vectordb.SearchOptions{TopK: 1})
		require.NoError(t, err)
		assert.Equal(t, "secret", gotKey)
	})
}
