package uc_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skywise-ai/skywise/engine/policy"
	"github.com/skywise-ai/skywise/engine/policy/chunk"
	"github.com/skywise-ai/skywise/engine/policy/ingest"
	"github.com/skywise-ai/skywise/engine/policy/uc"
	"github.com/skywise-ai/skywise/engine/policy/vectordb"
)

type recordingStore struct {
	stubStore
	upserted int
}

func (r *recordingStore) Upsert(_ context.Context, records []vectordb.Record) error {
	r.upserted += len(records)
	return nil
}

func newIngestUC(t *testing.T, root string, store vectordb.Store) *uc.Ingest {
	t.Helper()
	splitter, err := chunk.NewSplitter(chunk.Settings{Size: 200, Overlap: 20})
	require.NoError(t, err)
	pipeline, err := ingest.NewPipeline(splitter, stubEmbedder{}, store, 16, ingest.RetryPolicy{
		Attempts:    1,
		BackoffBase: time.Millisecond,
	})
	require.NoError(t, err)
	ingestUC, err := uc.NewIngest(pipeline, root)
	require.NoError(t, err)
	return ingestUC
}

func seedAirline(t *testing.T, root string, airline policy.Airline) {
	t.Helper()
	dir := filepath.Join(root, string(airline))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "baggage.md"),
		[]byte("Checked bags up to 23kg fly free."), 0o644))
}

func TestIngest_Execute(t *testing.T) {
	t.Run("Should ingest every supported airline when none are named", func(t *testing.T) {
		root := t.TempDir()
		for _, airline := range policy.Airlines() {
			seedAirline(t, root, airline)
		}
		store := &recordingStore{}

		results, err := newIngestUC(t, root, store).Execute(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, results, len(policy.Airlines()))
		assert.Equal(t, len(policy.Airlines()), store.upserted)
	})

	t.Run("Should ingest only the named airlines", func(t *testing.T) {
		root := t.TempDir()
		seedAirline(t, root, policy.AirlineDelta)
		store := &recordingStore{}

		results, err := newIngestUC(t, root, store).Execute(context.Background(), []string{"delta"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, policy.AirlineDelta, results[0].Airline)
	})

	t.Run("Should reject unknown airline names before touching the store", func(t *testing.T) {
		store := &recordingStore{}
		_, err := newIngestUC(t, t.TempDir(), store).Execute(context.Background(), []string{"Ryanair"})
		require.Error(t, err)
		assert.ErrorIs(t, err, policy.ErrInvalidFilter)
		assert.Zero(t, store.upserted)
	})

	t.Run("Should return partial results when a later airline fails", func(t *testing.T) {
		root := t.TempDir()
		seedAirline(t, root, policy.AirlineAmericanAirlines)
		// Delta folder is missing, so its run fails after American succeeds.
		store := &recordingStore{}

		results, err := newIngestUC(t, root, store).Execute(context.Background(),
			[]string{"AmericanAirlines", "Delta"})
		require.Error(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, policy.AirlineAmericanAirlines, results[0].Airline)
	})
}
