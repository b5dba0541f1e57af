package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/logseer/ai"
	"github.com/poiesic/logseer/core"
	"github.com/poiesic/logseer/vectorstore"
)

const (
	// DefaultBatchSize is the number of chunks embedded and upserted per batch.
	DefaultBatchSize = 10
	// DefaultPacing is the delay between consecutive batches. It is a static
	// safety margin against embedding-provider rate limits, not a measured
	// optimum; tune it per provider.
	DefaultPacing = 2 * time.Second
)

// Writer pushes chunks to the vector store in bounded batches, pausing
// between batches to stay under external rate limits. A failing batch aborts
// the remaining batches; because chunk IDs are content-derived and upserts
// overwrite, a later retry of the same file is safe.
type Writer struct {
	store     vectorstore.Store
	embedder  ai.Embedder
	batchSize int
	pacing    time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer) error

// WithBatchSize sets the maximum number of chunks per upsert batch.
// Default is 10.
func WithBatchSize(size int) WriterOption {
	return func(w *Writer) error {
		if size < 1 {
			return fmt.Errorf("batch size must be at least 1")
		}
		w.batchSize = size
		return nil
	}
}

// WithPacing sets the delay between consecutive batches.
// Default is 2s; zero disables pacing.
func WithPacing(pacing time.Duration) WriterOption {
	return func(w *Writer) error {
		if pacing < 0 {
			return fmt.Errorf("pacing must not be negative")
		}
		w.pacing = pacing
		return nil
	}
}

// WithWriterLogger sets a custom logger.
// Default is slog.Default().
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWriter creates a batched vector writer.
func NewWriter(store vectorstore.Store, embedder ai.Embedder, opts ...WriterOption) (*Writer, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	w := &Writer{
		store:     store,
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		pacing:    DefaultPacing,
		sleep:     sleepContext,
		logger:    slog.Default().With("component", "writer"),
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// Write embeds and upserts chunks in batches of at most the configured batch
// size, sleeping the pacing delay between consecutive batches but not after
// the last one. It returns the number of chunks written; on error, the count
// covers only the fully written batches.
func (w *Writer) Write(ctx context.Context, collection string, chunks []core.Chunk) (int, error) {
	written := 0
	for start := 0; start < len(chunks); start += w.batchSize {
		end := start + w.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if err := w.writeBatch(ctx, collection, batch); err != nil {
			return written, err
		}
		written += len(batch)

		w.logger.Debug("batch written", "collection", collection, "batch", len(batch), "written", written, "total", len(chunks))

		// Pace before the next batch, never after the last.
		if end < len(chunks) && w.pacing > 0 {
			if err := w.sleep(ctx, w.pacing); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (w *Writer) writeBatch(ctx context.Context, collection string, batch []core.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	vectors, err := w.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
	}

	points := make([]vectorstore.Point, len(batch))
	for i, chunk := range batch {
		points[i] = vectorstore.Point{
			Id:     chunk.Id,
			Vector: vectors[i],
			Chunk:  chunk,
		}
	}

	if err := w.store.Upsert(ctx, collection, points); err != nil {
		return fmt.Errorf("upserting batch: %w", err)
	}
	return nil
}

// sleepContext blocks for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
