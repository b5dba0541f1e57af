package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/logseer/core"
	"github.com/poiesic/logseer/vectorstore"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, WithRetryBaseDelay(time.Millisecond))
	require.NoError(t, err)
	return client, server
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrBaseURLRequired)
}

func TestEnsureCollection_CreatesWhenMissing(t *testing.T) {
	var created atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("GET /collections/aks_logs", func(w http.ResponseWriter, r *http.Request) {
		if created.Load() {
			w.Write([]byte(`{"result":{"points_count":0},"status":"ok"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("PUT /collections/aks_logs", func(w http.ResponseWriter, r *http.Request) {
		var req createCollectionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1536, req.Vectors.Size)
		assert.Equal(t, "Cosine", req.Vectors.Distance)
		created.Store(true)
		w.Write([]byte(`{"result":true,"status":"ok"}`))
	})

	client, _ := newTestClient(t, mux)

	err := client.EnsureCollection(context.Background(), "aks_logs", 1536, vectorstore.MetricCosine)
	require.NoError(t, err)
	assert.True(t, created.Load())

	// Second call is a no-op.
	err = client.EnsureCollection(context.Background(), "aks_logs", 1536, vectorstore.MetricCosine)
	require.NoError(t, err)
}

func TestPointCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /collections/aks_logs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"points_count":42},"status":"ok"}`))
	})
	mux.HandleFunc("GET /collections/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client, _ := newTestClient(t, mux)

	count, err := client.PointCount(context.Background(), "aks_logs")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), count)

	_, err = client.PointCount(context.Background(), "missing")
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)
}

func TestUpsert_SendsPointsWithPayload(t *testing.T) {
	var got upsertRequest

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /collections/aks_logs/points", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"result":{"status":"completed"},"status":"ok"}`))
	})

	client, _ := newTestClient(t, mux)

	chunk := core.Chunk{Id: core.IDFromContent("x"), Text: "pod restarted", Source: "day1.json", Seq: 3}
	err := client.Upsert(context.Background(), "aks_logs", []vectorstore.Point{
		{Id: chunk.Id, Vector: []float32{0.1, 0.2}, Chunk: chunk},
	})
	require.NoError(t, err)

	require.Len(t, got.Points, 1)
	assert.Equal(t, uint64(chunk.Id), got.Points[0].Id)
	assert.Equal(t, "pod restarted", got.Points[0].Payload.Text)
	assert.Equal(t, "day1.json", got.Points[0].Payload.Source)
	assert.Equal(t, 3, got.Points[0].Payload.Seq)
}

func TestUpsert_EmptyBatchIsNoop(t *testing.T) {
	client, err := NewClient("http://localhost:6333")
	require.NoError(t, err)

	// No server behind the URL; an HTTP call would fail.
	require.NoError(t, client.Upsert(context.Background(), "aks_logs", nil))
}

func TestSearch_DecodesScoredPoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /collections/aks_logs/points/search", func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 5, req.Limit)
		assert.True(t, req.WithPayload)

		w.Write([]byte(`{"result":[
			{"id":7,"score":0.91,"payload":{"text":"oom killed","source":"day2.json","seq":0}},
			{"id":9,"score":0.55,"payload":{"text":"scaled up","source":"day1.json","seq":4}}
		],"status":"ok"}`))
	})

	client, _ := newTestClient(t, mux)

	results, err := client.Search(context.Background(), "aks_logs", []float32{0.5, 0.5}, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, core.ID(7), results[0].Id)
	assert.InDelta(t, 0.91, results[0].Score, 0.001)
	assert.Equal(t, "oom killed", results[0].Chunk.Text)
	assert.Equal(t, "day2.json", results[0].Chunk.Source)
	assert.Equal(t, core.ID(9), results[1].Id)
}

func TestDo_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /collections/aks_logs", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"result":{"points_count":1},"status":"ok"}`))
	})

	client, _ := newTestClient(t, mux)

	exists, err := client.CollectionExists(context.Background(), "aks_logs")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /collections/aks_logs", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	client, _ := newTestClient(t, mux)

	exists, err := client.CollectionExists(context.Background(), "aks_logs")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, int32(1), calls.Load())
}
