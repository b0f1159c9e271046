package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skywise-ai/skywise/engine/policy"
)

type qdrantStore struct {
	client     *http.Client
	baseURL    string
	collection string
	dimension  int
	metric     string
	apiKey     string
}

// qdrantSearchResult captures the fields returned by Qdrant search responses.
type qdrantSearchResult struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

const (
	qdrantDefaultTimeout = 10 * time.Second
	qdrantDefaultTopK    = 5
)

func newQdrantStore(cfg *Config) (Store, error) {
	base := strings.TrimRight(cfg.URL, "/")
	if base == "" {
		return nil, errors.New("vectordb: qdrant url is required")
	}
	collection := strings.TrimSpace(cfg.Collection)
	if collection == "" {
		return nil, errors.New("vectordb: qdrant collection is required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("vectordb: qdrant dimension must be greater than zero")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = qdrantDefaultTimeout
	}
	return &qdrantStore{
		client:     &http.Client{Timeout: timeout},
		baseURL:    base,
		collection: collection,
		dimension:  cfg.Dimension,
		metric:     chooseMetric(cfg.Metric),
		apiKey:     cfg.APIKey,
	}, nil
}

func chooseMetric(metric string) string {
	switch strings.ToLower(strings.TrimSpace(metric)) {
	case "euclid", "euclidean", "l2":
		return "Euclid"
	case "dot", "dotproduct":
		return "Dot"
	default:
		return "Cosine"
	}
}

// EnsureCollection creates the collection when absent and verifies the
// vector size of an existing one. A size mismatch is fatal configuration:
// stored vectors are never silently reinterpreted.
func (q *qdrantStore) EnsureCollection(ctx context.Context) error {
	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size     int    `json:"size"`
						Distance string `json:"distance"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s", q.collection)
	err := q.doRequest(ctx, http.MethodGet, path, nil, &info)
	switch {
	case err == nil:
		if info.Result.Config.Params.Vectors.Size != q.dimension {
			return fmt.Errorf("%w: collection %q stores %d-dimension vectors, configured for %d",
				policy.ErrCollectionConfig, q.collection, info.Result.Config.Params.Vectors.Size, q.dimension)
		}
		return nil
	case isNotFound(err):
		body := map[string]any{
			"vectors": map[string]any{
				"size":     q.dimension,
				"distance": q.metric,
			},
		}
		return q.doRequest(ctx, http.MethodPut, path, body, nil)
	default:
		return err
	}
}

func (q *qdrantStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]any, 0, len(records))
	for i := range records {
		rec := records[i]
		if len(rec.Vector) != q.dimension {
			return fmt.Errorf("%w: record %q carries %d dimensions, collection expects %d",
				policy.ErrEmbeddingDimension, rec.ID, len(rec.Vector), q.dimension)
		}
		points = append(points, map[string]any{
			"id":      rec.ID,
			"vector":  rec.Vector,
			"payload": clonePayload(rec.Payload),
		})
	}
	body := map[string]any{"points": points}
	path := fmt.Sprintf("/collections/%s/points?wait=true", q.collection)
	return q.doRequest(ctx, http.MethodPut, path, body, nil)
}

func (q *qdrantStore) Search(ctx context.Context, vector []float32, opts SearchOptions) ([]Match, error) {
	if len(vector) != q.dimension {
		return nil, fmt.Errorf("%w: query carries %d dimensions, collection expects %d",
			policy.ErrEmbeddingDimension, len(vector), q.dimension)
	}
	limit := opts.TopK
	if limit <= 0 {
		limit = qdrantDefaultTopK
	}
	request := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter := buildQdrantFilter(opts.Filters); filter != nil {
		request["filter"] = filter
	}
	var response struct {
		Result []qdrantSearchResult `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", q.collection)
	if err := q.doRequest(ctx, http.MethodPost, path, request, &response); err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(response.Result))
	for _, res := range response.Result {
		matches = append(matches, Match{
			ID:      fmt.Sprint(res.ID),
			Score:   res.Score,
			Payload: clonePayload(res.Payload),
		})
	}
	return matches, nil
}

func (q *qdrantStore) Close(context.Context) error {
	return nil
}

// buildQdrantFilter builds the request filter payload: a conjunction of
// exact-match payload fields.
func buildQdrantFilter(filters map[string]string) map[string]any {
	if len(filters) == 0 {
		return nil
	}
	must := make([]any, 0, len(filters))
	for key, val := range filters {
		must = append(must, map[string]any{
			"key":   key,
			"match": map[string]any{"value": val},
		})
	}
	return map[string]any{"must": must}
}

type qdrantStatusError struct {
	status  int
	message string
}

func (e *qdrantStatusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("vectordb: qdrant request failed with status %d", e.status)
	}
	return fmt.Sprintf("vectordb: qdrant request failed (%d): %s", e.status, e.message)
}

func isNotFound(err error) bool {
	var statusErr *qdrantStatusError
	return errors.As(err, &statusErr) && statusErr.status == http.StatusNotFound
}

func (q *qdrantStore) doRequest(ctx context.Context, method, path string, body, out any) error {
	var buf *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("vectordb: qdrant marshal request: %w", err)
		}
		buf = bytes.NewReader(payload)
	} else {
		buf = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, buf)
	if err != nil {
		return fmt.Errorf("vectordb: qdrant build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("vectordb: qdrant request failed: %w", err)
	}
	defer resp.Body.Close()
	payload, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("vectordb: qdrant read response: %w", readErr)
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Status struct {
				Error string `json:"error"`
			} `json:"status"`
		}
		message := ""
		if err := json.Unmarshal(payload, &apiErr); err == nil {
			message = apiErr.Status.Error
		}
		return &qdrantStatusError{status: resp.StatusCode, message: message}
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("vectordb: qdrant decode response: %w", err)
		}
	}
	return nil
}
