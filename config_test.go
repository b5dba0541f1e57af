package logseer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:6333", cfg.Qdrant.URL)
	assert.Equal(t, "aks_logs", cfg.Qdrant.Collection)
	assert.Equal(t, 1536, cfg.Qdrant.VectorSize)
	assert.Equal(t, "text-embedding-3-small", cfg.AI.EmbeddingModel)
	assert.Equal(t, "gpt-4.1-nano", cfg.AI.GenerationModel)
	assert.Equal(t, 10, cfg.AI.MaxHistoryTurns)
	assert.Equal(t, 20, cfg.Ingest.GroupSize)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.Equal(t, 100, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, 10, cfg.Ingest.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Pacing())
	assert.Equal(t, 5, cfg.Query.K)
	assert.InDelta(t, 0.60, float64(cfg.Query.Threshold), 0.001)
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "aks_logs", cfg.Qdrant.Collection)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
qdrant:
  url: http://qdrant.internal:6333
  collection: prod_logs
ingest:
  batch_size: 25
  pacing_seconds: 5
query:
  threshold: 0.75
`), 0644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "http://qdrant.internal:6333", cfg.Qdrant.URL)
		assert.Equal(t, "prod_logs", cfg.Qdrant.Collection)
		assert.Equal(t, 25, cfg.Ingest.BatchSize)
		assert.Equal(t, 5*time.Second, cfg.Pacing())
		assert.InDelta(t, 0.75, float64(cfg.Query.Threshold), 0.001)

		// Untouched fields keep defaults.
		assert.Equal(t, 20, cfg.Ingest.GroupSize)
		assert.Equal(t, "text-embedding-3-small", cfg.AI.EmbeddingModel)
	})

	t.Run("malformed file fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("qdrant: ["), 0644))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}
