package vectorstore

import (
	"context"

	"github.com/poiesic/logseer/core"
)

// Metric identifies the similarity metric a collection is created with.
type Metric string

const (
	// MetricCosine is cosine distance, the metric the ingestion pipeline
	// creates collections with.
	MetricCosine Metric = "Cosine"
	// MetricDot is dot-product similarity.
	MetricDot Metric = "Dot"
	// MetricEuclid is euclidean distance.
	MetricEuclid Metric = "Euclid"
)

// Point is a chunk plus its embedding, ready for storage.
type Point struct {
	Id     core.ID
	Vector []float32
	Chunk  core.Chunk
}

// ScoredPoint is a stored chunk returned by similarity search.
type ScoredPoint struct {
	Id    core.ID
	Score float32
	Chunk core.Chunk
}

// Store provides access to an external vector store.
// Implementations must be thread-safe and must guarantee that upserting a
// point with an existing ID overwrites the stored point rather than adding
// a duplicate.
type Store interface {
	// EnsureCollection creates a collection if it does not already exist.
	// Calling it for an existing collection is a no-op regardless of the
	// existing collection's parameters.
	EnsureCollection(ctx context.Context, name string, dim int, metric Metric) error

	// CollectionExists reports whether a collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// PointCount returns the number of points stored in a collection.
	PointCount(ctx context.Context, name string) (uint64, error)

	// Upsert writes points to a collection, overwriting points whose IDs
	// already exist.
	Upsert(ctx context.Context, name string, points []Point) error

	// Search returns up to limit points nearest to the query vector,
	// ordered by descending similarity score.
	Search(ctx context.Context, name string, vector []float32, limit int) ([]ScoredPoint, error)
}
