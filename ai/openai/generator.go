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


package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/logseer/ai"
	"github.com/poiesic/logseer/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
// Prior turns are folded into the request as chat messages, most recent
// last, bounded to the configured history window.
type Generator struct {
	client          llms.Model
	maxHistoryTurns int
	logger          *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(tokenOrNone(config)),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:          client,
		maxHistoryTurns: config.MaxHistoryTurns,
		logger:          slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Complete generates a completion for the prompt with bounded history.
// Temperature is pinned to zero: answers must stay grounded in the supplied
// context rather than vary across identical queries.
func (g *Generator) Complete(ctx context.Context, prompt string, history []core.Turn) (string, error) {
	turns := boundHistory(history, g.maxHistoryTurns)
	g.logger.Debug("generating completion", "promptLength", len(prompt), "historyTurns", len(turns))

	messages := make([]llms.MessageContent, 0, len(turns)+1)
	for _, turn := range turns {
		role := llms.ChatMessageTypeHuman
		if turn.Speaker == core.SpeakerTypeAI {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Contents))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	resp, err := g.client.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		g.logger.Error("failed to generate completion", "err", err)
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generation returned no choices")
	}
	return resp.Choices[0].Content, nil
}

// boundHistory keeps the most recent limit turns.
func boundHistory(history []core.Turn, limit int) []core.Turn {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
