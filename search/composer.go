package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/logseer/ai"
	"github.com/poiesic/logseer/core"
)

// RefusalAnswer is the fixed text returned when no chunk clears the score
// threshold. It is the system's only safeguard against fabricated answers
// and must never be bypassed.
const RefusalAnswer = "Sorry, the question is out of my scope"

// Composer turns a query into a grounded answer. It retrieves evidence
// through a Retriever and, only when at least one chunk survives the
// threshold, invokes the generation capability with the query, the evidence
// and the conversation history. With no surviving evidence it refuses.
type Composer struct {
	retriever *Retriever
	generator ai.Generator
	logger    *slog.Logger
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer) error

// WithComposerLogger sets a custom logger.
// Default is slog.Default().
func WithComposerLogger(logger *slog.Logger) ComposerOption {
	return func(c *Composer) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewComposer creates an answer composer.
func NewComposer(retriever *Retriever, generator ai.Generator, opts ...ComposerOption) (*Composer, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	c := &Composer{
		retriever: retriever,
		generator: generator,
		logger:    slog.Default().With("component", "composer"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Answer retrieves evidence for the query and composes a grounded answer.
// Returns the refusal text with no citations when nothing clears the
// threshold; otherwise the generated text plus every citation used, in
// descending score order.
func (c *Composer) Answer(ctx context.Context, query string, k int, threshold float32, history []core.Turn) (core.Answer, error) {
	return c.AnswerWithMonitor(ctx, query, k, threshold, history, nil)
}

// AnswerWithMonitor composes a grounded answer with monitoring.
// The monitor receives callbacks at each stage of the query.
func (c *Composer) AnswerWithMonitor(ctx context.Context, query string, k int, threshold float32, history []core.Turn, monitor QueryMonitor) (core.Answer, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	citations, err := c.retriever.Retrieve(ctx, query, k, threshold)
	if err != nil {
		return core.Answer{}, err
	}
	monitor.AfterThresholdFilter(citations)

	// Empty retrieval is the refusal path, never a generation call.
	if len(citations) == 0 {
		c.logger.Info("no context above threshold, refusing", "query", query, "threshold", threshold)
		monitor.Refused(query)

		answer := core.Answer{Text: RefusalAnswer}
		monitor.Finish(answer)
		return answer, nil
	}

	prompt := buildGroundedPrompt(query, citations)
	text, err := c.generator.Complete(ctx, prompt, history)
	if err != nil {
		c.logger.Error("error generating answer", "err", err)
		return core.Answer{}, fmt.Errorf("generating answer: %w", err)
	}

	answer := core.Answer{
		Text:      text,
		Citations: citations,
	}
	monitor.Finish(answer)

	c.logger.Debug("answer composed", "query", query, "citations", len(citations))
	return answer, nil
}
