package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/logseer/ai/mock"
	"github.com/poiesic/logseer/core"
	"github.com/poiesic/logseer/vectorstore"
	"github.com/poiesic/logseer/vectorstore/memory"
)

func makeChunks(n int) []core.Chunk {
	chunks := make([]core.Chunk, n)
	for i := range chunks {
		text := fmt.Sprintf("chunk %d", i)
		chunks[i] = core.Chunk{
			Id:     core.IDFromContent(text),
			Text:   text,
			Source: "logs/app.json",
			Seq:    i,
		}
	}
	return chunks
}

func newTestStore(t *testing.T, collection string) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.EnsureCollection(context.Background(), collection, 384, vectorstore.MetricCosine))
	return store
}

func TestNewWriter(t *testing.T) {
	t.Run("requires store", func(t *testing.T) {
		_, err := NewWriter(nil, mock.NewMockEmbedder())
		assert.ErrorIs(t, err, ErrStoreRequired)
	})

	t.Run("requires embedder", func(t *testing.T) {
		_, err := NewWriter(memory.NewStore(), nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("invalid option values", func(t *testing.T) {
		_, err := NewWriter(memory.NewStore(), mock.NewMockEmbedder(), WithBatchSize(0))
		assert.Error(t, err)

		_, err = NewWriter(memory.NewStore(), mock.NewMockEmbedder(), WithPacing(-time.Second))
		assert.Error(t, err)
	})
}

func TestWriterWrite(t *testing.T) {
	t.Run("splits into batches and paces between them", func(t *testing.T) {
		store := newTestStore(t, "logs")
		w, err := NewWriter(store, mock.NewMockEmbedder(), WithBatchSize(10))
		require.NoError(t, err)

		sleeps := 0
		w.sleep = func(ctx context.Context, d time.Duration) error {
			sleeps++
			assert.Equal(t, DefaultPacing, d)
			return nil
		}

		written, err := w.Write(context.Background(), "logs", makeChunks(25))
		require.NoError(t, err)
		assert.Equal(t, 25, written)

		batches := store.UpsertBatches()
		require.Len(t, batches, 3)
		assert.Len(t, batches[0], 10)
		assert.Len(t, batches[1], 10)
		assert.Len(t, batches[2], 5)

		// Pacing happens between batches, not after the last one.
		assert.Equal(t, 2, sleeps)
	})

	t.Run("zero pacing never sleeps", func(t *testing.T) {
		store := newTestStore(t, "logs")
		w, err := NewWriter(store, mock.NewMockEmbedder(), WithBatchSize(5), WithPacing(0))
		require.NoError(t, err)

		w.sleep = func(ctx context.Context, d time.Duration) error {
			t.Fatal("sleep must not be called with zero pacing")
			return nil
		}

		written, err := w.Write(context.Background(), "logs", makeChunks(12))
		require.NoError(t, err)
		assert.Equal(t, 12, written)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		store := newTestStore(t, "logs")
		w, err := NewWriter(store, mock.NewMockEmbedder())
		require.NoError(t, err)

		written, err := w.Write(context.Background(), "logs", nil)
		require.NoError(t, err)
		assert.Zero(t, written)
		assert.Empty(t, store.UpsertBatches())
	})

	t.Run("failing batch aborts the rest", func(t *testing.T) {
		store := newTestStore(t, "logs")
		failure := errors.New("store unavailable")
		calls := 0
		store.FailUpsert = func(name string, points []vectorstore.Point) error {
			calls++
			if calls == 2 {
				return failure
			}
			return nil
		}

		w, err := NewWriter(store, mock.NewMockEmbedder(), WithBatchSize(10), WithPacing(0))
		require.NoError(t, err)

		written, err := w.Write(context.Background(), "logs", makeChunks(25))
		require.ErrorIs(t, err, failure)
		assert.Equal(t, 10, written)
		assert.Len(t, store.UpsertBatches(), 1)
	})

	t.Run("embedding failure aborts", func(t *testing.T) {
		store := newTestStore(t, "logs")
		embedder := mock.NewMockEmbedder()
		failure := errors.New("rate limited")
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, failure
		}

		w, err := NewWriter(store, embedder, WithPacing(0))
		require.NoError(t, err)

		written, err := w.Write(context.Background(), "logs", makeChunks(5))
		require.ErrorIs(t, err, failure)
		assert.Zero(t, written)
	})

	t.Run("embedding count mismatch aborts", func(t *testing.T) {
		store := newTestStore(t, "logs")
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{0.1, 0.2}}, nil
		}

		w, err := NewWriter(store, embedder, WithPacing(0))
		require.NoError(t, err)

		_, err = w.Write(context.Background(), "logs", makeChunks(3))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mismatch")
	})

	t.Run("cancellation during pacing stops the run", func(t *testing.T) {
		store := newTestStore(t, "logs")
		w, err := NewWriter(store, mock.NewMockEmbedder(), WithBatchSize(10))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		w.sleep = func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}

		written, err := w.Write(ctx, "logs", makeChunks(25))
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 10, written)
	})
}

func TestSleepContext(t *testing.T) {
	t.Run("returns after delay", func(t *testing.T) {
		err := sleepContext(context.Background(), time.Millisecond)
		assert.NoError(t, err)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := sleepContext(ctx, time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
