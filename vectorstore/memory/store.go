// Package memory provides an in-process vectorstore.Store used by tests and
// offline runs. Search is brute-force cosine similarity; upserts overwrite by
// point ID, matching the guarantee the external store provides.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/poiesic/logseer/core"
	"github.com/poiesic/logseer/vectorstore"
)

// Store is an in-memory vector store.
// Function fields allow failure injection in tests, following the same
// pattern as the ai/mock doubles. When a function field is nil the default
// in-memory behavior applies.
type Store struct {
	// FailUpsert is consulted before applying a batch. Returning a non-nil
	// error rejects the batch without storing any of its points.
	FailUpsert func(name string, points []vectorstore.Point) error

	// FailSearch is consulted before searching. Returning a non-nil error
	// fails the search.
	FailSearch func(name string) error

	// FailEnsure is consulted before collection creation.
	FailEnsure func(name string) error

	mu          sync.RWMutex
	collections map[string]*collection
	upserts     [][]vectorstore.Point
}

type collection struct {
	dim    int
	metric vectorstore.Metric
	points map[core.ID]vectorstore.Point
}

var _ vectorstore.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string]*collection),
	}
}

// EnsureCollection creates the collection if absent.
func (s *Store) EnsureCollection(ctx context.Context, name string, dim int, metric vectorstore.Metric) error {
	if s.FailEnsure != nil {
		if err := s.FailEnsure(name); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; ok {
		return nil
	}
	s.collections[name] = &collection{
		dim:    dim,
		metric: metric,
		points: make(map[core.ID]vectorstore.Point),
	}
	return nil
}

// CollectionExists reports whether the collection exists.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.collections[name]
	return ok, nil
}

// PointCount returns the number of stored points.
func (s *Store) PointCount(ctx context.Context, name string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	return uint64(len(col.points)), nil
}

// Upsert stores points, overwriting existing IDs.
func (s *Store) Upsert(ctx context.Context, name string, points []vectorstore.Point) error {
	if s.FailUpsert != nil {
		if err := s.FailUpsert(name, points); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}

	for _, p := range points {
		if col.dim > 0 && len(p.Vector) != col.dim {
			return fmt.Errorf("%w: got %d, collection %q expects %d",
				vectorstore.ErrDimensionMismatch, len(p.Vector), name, col.dim)
		}
		col.points[p.Id] = p
	}

	batch := make([]vectorstore.Point, len(points))
	copy(batch, points)
	s.upserts = append(s.upserts, batch)
	return nil
}

// Search returns up to limit points ordered by descending cosine similarity.
func (s *Store) Search(ctx context.Context, name string, vector []float32, limit int) ([]vectorstore.ScoredPoint, error) {
	if s.FailSearch != nil {
		if err := s.FailSearch(name); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}

	results := make([]vectorstore.ScoredPoint, 0, len(col.points))
	for _, p := range col.points {
		results = append(results, vectorstore.ScoredPoint{
			Id:    p.Id,
			Score: cosineSimilarity(vector, p.Vector),
			Chunk: p.Chunk,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Id < results[j].Id // stable order for equal scores
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// UpsertBatches returns the recorded upsert batches in call order.
func (s *Store) UpsertBatches() [][]vectorstore.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batches := make([][]vectorstore.Point, len(s.upserts))
	copy(batches, s.upserts)
	return batches
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
