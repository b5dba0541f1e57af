package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedderDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("same text embeds to same vector", func(t *testing.T) {
		m := NewMockEmbedder()

		first, err := m.EmbedText(ctx, "disk full on node-3")
		require.NoError(t, err)
		second, err := m.EmbedText(ctx, "disk full on node-3")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 2, m.CallCount())
	})

	t.Run("different texts embed to different vectors", func(t *testing.T) {
		m := NewMockEmbedder()

		a, err := m.EmbedText(ctx, "disk full")
		require.NoError(t, err)
		b, err := m.EmbedText(ctx, "connection refused")
		require.NoError(t, err)

		assert.NotEqual(t, a, b)
	})

	t.Run("vectors are unit length with non-negative components", func(t *testing.T) {
		m := NewMockEmbedder()

		vector, err := m.EmbedText(ctx, "pod restarted after health probe failure")
		require.NoError(t, err)
		require.Len(t, vector, mockVectorDim)

		var sumSquares float64
		for _, v := range vector {
			assert.GreaterOrEqual(t, v, float32(0))
			sumSquares += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-3)
	})

	t.Run("batch embedding matches single embedding", func(t *testing.T) {
		m := NewMockEmbedder()

		single, err := m.EmbedText(ctx, "oom killed")
		require.NoError(t, err)
		batch, err := m.EmbedTexts(ctx, []string{"oom killed"})
		require.NoError(t, err)
		require.Len(t, batch, 1)

		assert.Equal(t, single, batch[0])
	})
}

func TestMockEmbedderInjection(t *testing.T) {
	ctx := context.Background()

	t.Run("injected function overrides default", func(t *testing.T) {
		m := NewMockEmbedder()
		injected := errors.New("embedding service down")
		m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, injected
		}

		_, err := m.EmbedText(ctx, "anything")
		assert.ErrorIs(t, err, injected)
	})

	t.Run("reset restores default behavior", func(t *testing.T) {
		m := NewMockEmbedder()
		m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("boom")
		}
		m.Reset()

		vector, err := m.EmbedText(ctx, "anything")
		require.NoError(t, err)
		assert.Len(t, vector, mockVectorDim)
		assert.Equal(t, 1, m.CallCount())
	})
}
