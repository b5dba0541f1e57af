package logseer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/logseer/ingest"
	"github.com/poiesic/logseer/search"
)

// Config holds application configuration. Values come from an optional YAML
// file; CLI flags override individual fields on top of it.
type Config struct {
	Qdrant struct {
		URL        string `yaml:"url"`
		Collection string `yaml:"collection"`
		VectorSize int    `yaml:"vector_size"`
	} `yaml:"qdrant"`
	AI struct {
		Host            string `yaml:"host"`
		EmbeddingModel  string `yaml:"embedding_model"`
		GenerationModel string `yaml:"generation_model"`
		Token           string `yaml:"token"`
		MaxHistoryTurns int    `yaml:"max_history_turns"`
	} `yaml:"ai"`
	Ingest struct {
		LogsDir       string `yaml:"logs_dir"`
		TrackerPath   string `yaml:"tracker_path"`
		GroupSize     int    `yaml:"group_size"`
		ChunkSize     int    `yaml:"chunk_size"`
		ChunkOverlap  int    `yaml:"chunk_overlap"`
		BatchSize     int    `yaml:"batch_size"`
		PacingSeconds int    `yaml:"pacing_seconds"`
	} `yaml:"ingest"`
	Query struct {
		K          int     `yaml:"k"`
		Threshold  float32 `yaml:"threshold"`
		SessionDir string  `yaml:"session_dir"`
	} `yaml:"query"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Qdrant.URL = "http://localhost:6333"
	cfg.Qdrant.Collection = "aks_logs"
	cfg.Qdrant.VectorSize = ingest.DefaultVectorSize

	cfg.AI.Host = "https://api.openai.com/v1"
	cfg.AI.EmbeddingModel = "text-embedding-3-small"
	cfg.AI.GenerationModel = "gpt-4.1-nano"
	cfg.AI.Token = os.Getenv("OPENAI_API_KEY")
	cfg.AI.MaxHistoryTurns = 10

	cfg.Ingest.LogsDir = "logs"
	cfg.Ingest.TrackerPath = filepath.Join(dataDir(), "ingested.json")
	cfg.Ingest.GroupSize = ingest.DefaultGroupSize
	cfg.Ingest.ChunkSize = ingest.DefaultChunkSize
	cfg.Ingest.ChunkOverlap = ingest.DefaultChunkOverlap
	cfg.Ingest.BatchSize = ingest.DefaultBatchSize
	cfg.Ingest.PacingSeconds = int(ingest.DefaultPacing / time.Second)

	cfg.Query.K = search.DefaultK
	cfg.Query.Threshold = search.DefaultThreshold
	cfg.Query.SessionDir = filepath.Join(dataDir(), "session")

	return cfg
}

// LoadConfig loads configuration from the given YAML file, or from
// ~/.logseer/config.yaml when path is empty. A missing file yields defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = filepath.Join(dataDir(), "config.yaml")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Pacing returns the inter-batch delay as a duration.
func (c *Config) Pacing() time.Duration {
	return time.Duration(c.Ingest.PacingSeconds) * time.Second
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".logseer")
}
