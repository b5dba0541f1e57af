package storage

import (
	"context"

	"github.com/poiesic/logseer/core"
)

// SessionRepository stores the conversation history of the interactive query
// loop. Turns are append-only and ordered by insertion; implementations must
// survive process restarts when backed by durable media.
type SessionRepository interface {
	// AppendTurns adds one or more turns to the session history.
	// For turns with ID=0, generates new IDs from a sequence.
	// Sets Timestamp if not already set.
	// Returns the turns with generated IDs and timestamps populated.
	AppendTurns(ctx context.Context, turns ...*core.Turn) ([]*core.Turn, error)

	// GetRecentTurns retrieves the limit most recent turns in chronological
	// order (oldest of the window first), which is the shape the answer
	// composer expects its history in.
	GetRecentTurns(ctx context.Context, limit int) ([]*core.Turn, error)

	// TurnCount returns the number of stored turns.
	TurnCount(ctx context.Context) (int, error)

	// Clear removes all stored turns.
	Clear(ctx context.Context) error

	// Close closes the storage backend and releases resources.
	Close() error
}
