package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/logseer/ai"
	"github.com/poiesic/logseer/core"
	"github.com/poiesic/logseer/vectorstore"
)

const (
	// DefaultK is the number of nearest neighbors requested per query.
	DefaultK = 5
	// DefaultThreshold is the minimum similarity score a chunk needs to be
	// used as grounding evidence.
	DefaultThreshold = 0.60
)

// Retriever performs threshold-filtered similarity search over one
// collection. Candidates below the threshold are discarded; an empty result
// is a normal outcome meaning no sufficiently relevant context exists, not
// a failure.
type Retriever struct {
	store      vectorstore.Store
	embedder   ai.Embedder
	collection string
	logger     *slog.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever) error

// WithRetrieverLogger sets a custom logger.
// Default is slog.Default().
func WithRetrieverLogger(logger *slog.Logger) RetrieverOption {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a retriever over the named collection.
func NewRetriever(store vectorstore.Store, embedder ai.Embedder, collection string, opts ...RetrieverOption) (*Retriever, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if collection == "" {
		return nil, ErrCollectionRequired
	}

	r := &Retriever{
		store:      store,
		embedder:   embedder,
		collection: collection,
		logger:     slog.Default().With("component", "retriever"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Preflight verifies the collection exists and holds at least one point.
// Querying an unpopulated corpus is almost always a setup mistake, so it is
// reported up front rather than as an endless stream of refusals.
func (r *Retriever) Preflight(ctx context.Context) error {
	exists, err := r.store.CollectionExists(ctx, r.collection)
	if err != nil {
		return fmt.Errorf("checking collection %q: %w", r.collection, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s (run ingestion first)", vectorstore.ErrCollectionNotFound, r.collection)
	}

	count, err := r.store.PointCount(ctx, r.collection)
	if err != nil {
		return fmt.Errorf("counting points in %q: %w", r.collection, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s (run ingestion first)", vectorstore.ErrCollectionEmpty, r.collection)
	}

	r.logger.Info("collection ready", "collection", r.collection, "points", count)
	return nil
}

// Retrieve returns up to k chunks with similarity score at or above
// threshold, ordered by descending score. An empty slice with a nil error
// means no chunk cleared the threshold.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, threshold float32) ([]core.ScoredChunk, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	if threshold < 0 || threshold > 1 {
		return nil, ErrInvalidThreshold
	}

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("error embedding query", "err", err)
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	points, err := r.store.Search(ctx, r.collection, vector, k)
	if err != nil {
		r.logger.Error("error searching collection", "collection", r.collection, "err", err)
		return nil, fmt.Errorf("searching collection %q: %w", r.collection, err)
	}

	// Results arrive in descending score order; filtering preserves it.
	kept := make([]core.ScoredChunk, 0, len(points))
	for _, p := range points {
		if p.Score < threshold {
			continue
		}
		kept = append(kept, core.ScoredChunk{
			Chunk: p.Chunk,
			Score: p.Score,
		})
	}

	r.logger.Debug("retrieval finished",
		"collection", r.collection,
		"candidates", len(points),
		"kept", len(kept),
		"threshold", threshold)

	return kept, nil
}
