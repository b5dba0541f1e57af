// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package logseer indexes structured operational logs into a vector store
// and answers natural-language questions grounded in the indexed passages.
package logseer

import (
	"context"
	"log/slog"

	"github.com/poiesic/logseer/ai"
	"github.com/poiesic/logseer/ai/openai"
	"github.com/poiesic/logseer/core"
	"github.com/poiesic/logseer/ingest"
	"github.com/poiesic/logseer/search"
	"github.com/poiesic/logseer/storage"
	"github.com/poiesic/logseer/storage/badger"
	"github.com/poiesic/logseer/vectorstore"
	"github.com/poiesic/logseer/vectorstore/qdrant"
)

// Engine wires the ingestion pipeline and the query path behind one facade.
// It owns the vector store client, the AI provider and the session history
// store; the CLI and tests construct one Engine and work through it.
type Engine struct {
	config   *Config
	store    vectorstore.Store
	provider ai.Provider
	backend  *badger.Backend
	sessions storage.SessionRepository
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	store            vectorstore.Store
	provider         ai.Provider
	inMemorySessions bool
}

// WithStore substitutes the vector store client.
// Default is a Qdrant REST client against the configured URL.
func WithStore(store vectorstore.Store) EngineOption {
	return func(o *engineOptions) {
		o.store = store
	}
}

// WithProvider substitutes the AI provider.
// Default is the OpenAI-compatible provider built from the configuration.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemorySessions keeps session history in memory instead of on disk.
func WithInMemorySessions() EngineOption {
	return func(o *engineOptions) {
		o.inMemorySessions = true
	}
}

// NewEngine creates an engine from the configuration.
func NewEngine(config *Config, opts ...EngineOption) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}

	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	store := options.store
	if store == nil {
		client, err := qdrant.NewClient(config.Qdrant.URL)
		if err != nil {
			return nil, err
		}
		store = client
	}

	provider := options.provider
	if provider == nil {
		aiConfig := ai.NewConfig(
			ai.WithHost(config.AI.Host),
			ai.WithEmbeddingModel(config.AI.EmbeddingModel),
			ai.WithGenerationModel(config.AI.GenerationModel),
			ai.WithToken(config.AI.Token),
			ai.WithMaxHistoryTurns(config.AI.MaxHistoryTurns),
		)
		p, err := openai.NewProvider(aiConfig)
		if err != nil {
			return nil, err
		}
		provider = p
	}

	sessionDir := config.Query.SessionDir
	if options.inMemorySessions {
		sessionDir = ""
	}
	backend, err := badger.OpenBackend(sessionDir, options.inMemorySessions)
	if err != nil {
		provider.Close()
		return nil, err
	}

	sessions, err := badger.NewSessionRepository(backend)
	if err != nil {
		backend.Close()
		provider.Close()
		return nil, err
	}

	return &Engine{
		config:   config,
		store:    store,
		provider: provider,
		backend:  backend,
		sessions: sessions,
		logger:   slog.Default(),
	}, nil
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.sessions.Close(); err != nil {
		e.logger.Error("error closing session repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing session backend", "err", err)
		return err
	}
	return nil
}

// Store returns the vector store client.
func (e *Engine) Store() vectorstore.Store {
	return e.store
}

// Sessions returns the session history repository.
func (e *Engine) Sessions() storage.SessionRepository {
	return e.sessions
}

// NewPipeline builds an ingestion pipeline from the engine's configuration.
// Additional options are applied after the configuration-derived ones.
func (e *Engine) NewPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	tracker, err := ingest.NewTracker(e.config.Ingest.TrackerPath)
	if err != nil {
		return nil, err
	}

	builder, err := ingest.NewBuilder(
		ingest.WithGroupSize(e.config.Ingest.GroupSize),
		ingest.WithChunkSize(e.config.Ingest.ChunkSize),
		ingest.WithChunkOverlap(e.config.Ingest.ChunkOverlap),
	)
	if err != nil {
		return nil, err
	}

	writer, err := ingest.NewWriter(e.store, e.provider.Embedder(),
		ingest.WithBatchSize(e.config.Ingest.BatchSize),
		ingest.WithPacing(e.config.Pacing()),
	)
	if err != nil {
		return nil, err
	}

	allOpts := append([]ingest.Option{
		ingest.WithVectorSize(e.config.Qdrant.VectorSize),
	}, opts...)

	return ingest.NewPipeline(tracker, builder, writer, e.store, e.config.Ingest.LogsDir, allOpts...)
}

// Ingest runs the full ingestion pipeline into the configured collection.
func (e *Engine) Ingest(ctx context.Context, opts ...ingest.Option) (*ingest.Summary, error) {
	pipeline, err := e.NewPipeline(opts...)
	if err != nil {
		return nil, err
	}
	return pipeline.Ingest(ctx, e.config.Qdrant.Collection)
}

// NewRetriever builds a threshold retriever over the configured collection.
func (e *Engine) NewRetriever(opts ...search.RetrieverOption) (*search.Retriever, error) {
	return search.NewRetriever(e.store, e.provider.Embedder(), e.config.Qdrant.Collection, opts...)
}

// NewComposer builds an answer composer over the configured collection.
func (e *Engine) NewComposer(opts ...search.ComposerOption) (*search.Composer, error) {
	retriever, err := e.NewRetriever()
	if err != nil {
		return nil, err
	}
	return search.NewComposer(retriever, e.provider.Generator(), opts...)
}

// Ask answers a question grounded in the indexed corpus. Session history is
// folded into generation and the question/answer pair is appended to the
// session afterwards. Refusals are recorded too, so follow-up questions see
// them.
func (e *Engine) Ask(ctx context.Context, query string, k int, threshold float32) (core.Answer, error) {
	composer, err := e.NewComposer()
	if err != nil {
		return core.Answer{}, err
	}

	stored, err := e.sessions.GetRecentTurns(ctx, e.config.AI.MaxHistoryTurns)
	if err != nil {
		return core.Answer{}, err
	}
	history := make([]core.Turn, len(stored))
	for i, turn := range stored {
		history[i] = *turn
	}

	answer, err := composer.Answer(ctx, query, k, threshold, history)
	if err != nil {
		return core.Answer{}, err
	}

	_, err = e.sessions.AppendTurns(ctx,
		&core.Turn{Speaker: core.SpeakerTypeHuman, Contents: query},
		&core.Turn{Speaker: core.SpeakerTypeAI, Contents: answer.Text},
	)
	if err != nil {
		e.logger.Warn("error recording session turns", "err", err)
	}

	return answer, nil
}
