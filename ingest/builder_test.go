package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuilder(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		b, err := NewBuilder()
		require.NoError(t, err)
		assert.Equal(t, DefaultGroupSize, b.groupSize)
		assert.Equal(t, DefaultChunkSize, b.chunkSize)
		assert.Equal(t, DefaultChunkOverlap, b.chunkOverlap)
	})

	t.Run("options", func(t *testing.T) {
		b, err := NewBuilder(WithGroupSize(5), WithChunkSize(200), WithChunkOverlap(20))
		require.NoError(t, err)
		assert.Equal(t, 5, b.groupSize)
		assert.Equal(t, 200, b.chunkSize)
		assert.Equal(t, 20, b.chunkOverlap)
	})

	t.Run("overlap must be smaller than chunk size", func(t *testing.T) {
		_, err := NewBuilder(WithChunkSize(100), WithChunkOverlap(100))
		assert.Error(t, err)
	})

	t.Run("invalid option values", func(t *testing.T) {
		_, err := NewBuilder(WithGroupSize(0))
		assert.Error(t, err)

		_, err = NewBuilder(WithChunkSize(0))
		assert.Error(t, err)

		_, err = NewBuilder(WithChunkOverlap(-1))
		assert.Error(t, err)
	})
}

func TestParseRecords(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)

	t.Run("valid array", func(t *testing.T) {
		records, err := b.ParseRecords([]byte(`[{"level":"error"},{"level":"info"}]`))
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("empty array", func(t *testing.T) {
		records, err := b.ParseRecords([]byte(`[]`))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("malformed input fails whole file", func(t *testing.T) {
		_, err := b.ParseRecords([]byte(`[{"level":"error"},`))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("non-array input fails", func(t *testing.T) {
		_, err := b.ParseRecords([]byte(`{"level":"error"}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrParse)
	})
}

func TestBuildDocuments(t *testing.T) {
	records := []json.RawMessage{
		json.RawMessage(`{"level":"error","msg":"disk full"}`),
		json.RawMessage(`{"level":"warn","msg":"retrying"}`),
		json.RawMessage(`{"level":"info","msg":"recovered"}`),
	}

	t.Run("records fit one group", func(t *testing.T) {
		b, err := NewBuilder()
		require.NoError(t, err)

		docs := b.BuildDocuments(records, "logs/app.json")
		require.Len(t, docs, 1)
		assert.Equal(t, "logs/app.json", docs[0].Source)
		assert.Contains(t, docs[0].Text, "disk full")
		assert.Contains(t, docs[0].Text, "recovered")
	})

	t.Run("group size one yields one document per record", func(t *testing.T) {
		b, err := NewBuilder(WithGroupSize(1))
		require.NoError(t, err)

		docs := b.BuildDocuments(records, "logs/app.json")
		require.Len(t, docs, 3)
		assert.Contains(t, docs[0].Text, "disk full")
		assert.Contains(t, docs[1].Text, "retrying")
		assert.Contains(t, docs[2].Text, "recovered")
	})

	t.Run("last group may be short", func(t *testing.T) {
		b, err := NewBuilder(WithGroupSize(2))
		require.NoError(t, err)

		docs := b.BuildDocuments(records, "logs/app.json")
		require.Len(t, docs, 2)
		assert.Contains(t, docs[1].Text, "recovered")
		assert.NotContains(t, docs[1].Text, "disk full")
	})

	t.Run("preserves key order", func(t *testing.T) {
		b, err := NewBuilder()
		require.NoError(t, err)

		docs := b.BuildDocuments([]json.RawMessage{
			json.RawMessage(`{"zebra":1,"apple":2}`),
		}, "logs/app.json")
		require.Len(t, docs, 1)
		assert.Less(t, strings.Index(docs[0].Text, "zebra"), strings.Index(docs[0].Text, "apple"))
	})

	t.Run("no records yields no documents", func(t *testing.T) {
		b, err := NewBuilder()
		require.NoError(t, err)

		assert.Empty(t, b.BuildDocuments(nil, "logs/app.json"))
	})
}

func TestSplitDocuments(t *testing.T) {
	t.Run("small document stays one chunk", func(t *testing.T) {
		b, err := NewBuilder()
		require.NoError(t, err)

		docs := b.BuildDocuments([]json.RawMessage{
			json.RawMessage(`{"level":"error","msg":"disk full"}`),
		}, "logs/app.json")

		chunks, err := b.SplitDocuments(docs)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, docs[0].Text, chunks[0].Text)
		assert.Equal(t, "logs/app.json", chunks[0].Source)
		assert.Equal(t, 0, chunks[0].Seq)
	})

	t.Run("long document is split in order", func(t *testing.T) {
		b, err := NewBuilder(WithChunkSize(120), WithChunkOverlap(10))
		require.NoError(t, err)

		records := make([]json.RawMessage, 10)
		for i := range records {
			records[i] = json.RawMessage(fmt.Sprintf(`{"seq":%d,"msg":"node restarted after health probe failure"}`, i))
		}
		docs := b.BuildDocuments(records, "logs/app.json")

		chunks, err := b.SplitDocuments(docs)
		require.NoError(t, err)
		require.Greater(t, len(chunks), 1)

		offset := 0
		for i, chunk := range chunks {
			assert.NotEmpty(t, chunk.Text)
			assert.Equal(t, i, chunk.Seq)
			assert.Equal(t, "logs/app.json", chunk.Source)

			// Each chunk is a substring of the document, starting at or
			// after the previous chunk's start.
			idx := strings.Index(docs[0].Text[offset:], chunk.Text)
			require.GreaterOrEqual(t, idx, 0, "chunk %d not found in document after offset %d", i, offset)
			offset += idx
		}
	})

	t.Run("sequence runs across documents", func(t *testing.T) {
		b, err := NewBuilder(WithGroupSize(1))
		require.NoError(t, err)

		docs := b.BuildDocuments([]json.RawMessage{
			json.RawMessage(`{"msg":"first"}`),
			json.RawMessage(`{"msg":"second"}`),
		}, "logs/app.json")

		chunks, err := b.SplitDocuments(docs)
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, 0, chunks[0].Seq)
		assert.Equal(t, 1, chunks[1].Seq)
	})

	t.Run("chunk ids are deterministic", func(t *testing.T) {
		b, err := NewBuilder(WithChunkSize(120), WithChunkOverlap(10))
		require.NoError(t, err)

		records := make([]json.RawMessage, 5)
		for i := range records {
			records[i] = json.RawMessage(fmt.Sprintf(`{"seq":%d,"msg":"connection refused by upstream"}`, i))
		}
		docs := b.BuildDocuments(records, "logs/app.json")

		first, err := b.SplitDocuments(docs)
		require.NoError(t, err)
		second, err := b.SplitDocuments(docs)
		require.NoError(t, err)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].Id, second[i].Id)
		}
	})

	t.Run("chunk ids are distinct", func(t *testing.T) {
		b, err := NewBuilder(WithChunkSize(120), WithChunkOverlap(10))
		require.NoError(t, err)

		records := make([]json.RawMessage, 10)
		for i := range records {
			records[i] = json.RawMessage(fmt.Sprintf(`{"seq":%d,"msg":"node restarted after health probe failure"}`, i))
		}
		docs := b.BuildDocuments(records, "logs/app.json")

		chunks, err := b.SplitDocuments(docs)
		require.NoError(t, err)

		seen := make(map[uint64]bool)
		for _, chunk := range chunks {
			assert.False(t, seen[uint64(chunk.Id)], "duplicate chunk id")
			seen[uint64(chunk.Id)] = true
		}
	})
}
