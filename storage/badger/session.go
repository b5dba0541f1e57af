package badger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/logseer/core"
	"github.com/poiesic/logseer/storage"
)

// SessionRepository is the badger-backed implementation of
// storage.SessionRepository. Turns are keyed by a monotonically increasing
// sequence number, so lexicographic key order is append order and the most
// recent turns sit at the end of the keyspace.
type SessionRepository struct {
	backend *Backend
	seq     *badger.Sequence
	logger  *slog.Logger
}

var _ storage.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a session repository on the given backend.
func NewSessionRepository(backend *Backend) (*SessionRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}

	seq, err := backend.GetSequence(turnIDSeq)
	if err != nil {
		return nil, fmt.Errorf("creating turn sequence: %w", err)
	}

	return &SessionRepository{
		backend: backend,
		seq:     seq,
		logger:  slog.Default().With("component", "session"),
	}, nil
}

// AppendTurns adds turns to the session history in one transaction.
// Turns with ID=0 get sequence-generated IDs; zero timestamps are set to now.
func (r *SessionRepository) AppendTurns(ctx context.Context, turns ...*core.Turn) ([]*core.Turn, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if len(turns) == 0 {
		return nil, nil
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, turn := range turns {
			next, err := r.seq.Next()
			if err != nil {
				return fmt.Errorf("next turn sequence: %w", err)
			}

			if turn.Id == 0 {
				// Sequences start at zero; shift so IDs stay nonzero.
				turn.Id = core.ID(next + 1)
			}
			if turn.Timestamp.IsZero() {
				turn.Timestamp = time.Now().UTC()
			}

			if err := core.ValidateTurn(turn); err != nil {
				return err
			}

			if err := tx.Set(makeTurnKey(next), storage.MarshalTurn(turn)); err != nil {
				return fmt.Errorf("storing turn %d: %w", turn.Id, err)
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("turns appended", "count", len(turns))
	return turns, nil
}

// GetRecentTurns returns the limit most recent turns in chronological order.
func (r *SessionRepository) GetRecentTurns(ctx context.Context, limit int) ([]*core.Turn, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if limit < 1 {
		return nil, storage.ErrInvalidLimit
	}

	var recent []*core.Turn
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = turnKeyPrefix()
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the last possible turn key, then walk backwards.
		seekKey := append(turnKeyPrefix(), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
		for iter.Seek(seekKey); iter.Valid() && len(recent) < limit; iter.Next() {
			var turn *core.Turn
			err := iter.Item().Value(func(val []byte) error {
				var err error
				turn, err = storage.UnmarshalTurn(val)
				return err
			})
			if err != nil {
				return err
			}
			recent = append(recent, turn)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order, oldest of the window first.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

// TurnCount returns the number of stored turns.
func (r *SessionRepository) TurnCount(ctx context.Context) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = turnKeyPrefix()
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Clear removes all stored turns.
func (r *SessionRepository) Clear(ctx context.Context) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.DropPrefix(turnKeyPrefix())
}

// Close releases the repository's sequence. The backend itself is shared and
// closed by its owner.
func (r *SessionRepository) Close() error {
	if r.backend.IsClosed() {
		return nil
	}
	return r.seq.Release()
}
