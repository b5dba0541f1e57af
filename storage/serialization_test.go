package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/logseer/core"
)

func TestMarshalTurn(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		turn := &core.Turn{
			Id:        42,
			Speaker:   core.SpeakerTypeHuman,
			Contents:  "why did the pod restart",
			Timestamp: time.Date(2025, 6, 1, 12, 30, 15, 123456000, time.UTC),
		}

		data := MarshalTurn(turn)
		decoded, err := UnmarshalTurn(data)
		require.NoError(t, err)

		assert.Equal(t, turn.Id, decoded.Id)
		assert.Equal(t, turn.Speaker, decoded.Speaker)
		assert.Equal(t, turn.Contents, decoded.Contents)
		assert.True(t, turn.Timestamp.Equal(decoded.Timestamp))
	})

	t.Run("timestamp keeps microsecond precision", func(t *testing.T) {
		turn := &core.Turn{
			Id:        1,
			Speaker:   core.SpeakerTypeAI,
			Contents:  "several pods restarted",
			Timestamp: time.Date(2025, 6, 1, 0, 0, 0, 999000, time.UTC),
		}

		decoded, err := UnmarshalTurn(MarshalTurn(turn))
		require.NoError(t, err)
		assert.Equal(t, turn.Timestamp.UnixMicro(), decoded.Timestamp.UnixMicro())
	})

	t.Run("unicode contents survive", func(t *testing.T) {
		turn := &core.Turn{
			Id:        7,
			Speaker:   core.SpeakerTypeHuman,
			Contents:  "ノードは再起動しましたか? 🚨",
			Timestamp: time.Now().UTC(),
		}

		decoded, err := UnmarshalTurn(MarshalTurn(turn))
		require.NoError(t, err)
		assert.Equal(t, turn.Contents, decoded.Contents)
	})

	t.Run("truncated data fails", func(t *testing.T) {
		turn := &core.Turn{
			Id:        42,
			Speaker:   core.SpeakerTypeHuman,
			Contents:  "why did the pod restart",
			Timestamp: time.Now().UTC(),
		}

		data := MarshalTurn(turn)
		_, err := UnmarshalTurn(data[:len(data)/2])
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("empty data fails", func(t *testing.T) {
		_, err := UnmarshalTurn(nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})
}
