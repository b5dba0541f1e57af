package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/logseer/core"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultGroupSize is the number of log records rendered into one document.
	DefaultGroupSize = 20
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the character overlap between consecutive chunks.
	DefaultChunkOverlap = 100
)

// Builder turns raw log records into documents and splits them into bounded
// chunks. Splitting is greedy and recursive: paragraph boundaries first, then
// lines, words, and finally characters, with a configured overlap carried
// between consecutive chunks of the same document.
type Builder struct {
	groupSize    int
	chunkSize    int
	chunkOverlap int
	splitter     textsplitter.RecursiveCharacter
	logger       *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder) error

// WithGroupSize sets how many log records are grouped into one document.
// Default is 20.
func WithGroupSize(size int) BuilderOption {
	return func(b *Builder) error {
		if size < 1 {
			return fmt.Errorf("group size must be at least 1")
		}
		b.groupSize = size
		return nil
	}
}

// WithChunkSize sets the maximum chunk length in characters.
// Default is 1000.
func WithChunkSize(size int) BuilderOption {
	return func(b *Builder) error {
		if size < 1 {
			return fmt.Errorf("chunk size must be at least 1")
		}
		b.chunkSize = size
		return nil
	}
}

// WithChunkOverlap sets the character overlap between consecutive chunks.
// Default is 100.
func WithChunkOverlap(overlap int) BuilderOption {
	return func(b *Builder) error {
		if overlap < 0 {
			return fmt.Errorf("chunk overlap must not be negative")
		}
		b.chunkOverlap = overlap
		return nil
	}
}

// WithBuilderLogger sets a custom logger.
// Default is slog.Default().
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a document builder.
func NewBuilder(opts ...BuilderOption) (*Builder, error) {
	b := &Builder{
		groupSize:    DefaultGroupSize,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		logger:       slog.Default().With("component", "builder"),
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	if b.chunkOverlap >= b.chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", b.chunkOverlap, b.chunkSize)
	}

	b.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(b.chunkSize),
		textsplitter.WithChunkOverlap(b.chunkOverlap),
	)

	return b, nil
}

// ParseRecords decodes a source file into its individual log records.
// The file must hold a JSON array of objects; any malformed record fails
// the whole file (fail-fast per file, not per record).
func (b *Builder) ParseRecords(data []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return records, nil
}

// BuildDocuments partitions records into consecutive groups of at most the
// configured group size and renders each group into one document. Each record
// is pretty-printed preserving its original key order; records within a group
// are newline-separated.
func (b *Builder) BuildDocuments(records []json.RawMessage, source string) []core.Document {
	if len(records) == 0 {
		return nil
	}

	docs := make([]core.Document, 0, (len(records)+b.groupSize-1)/b.groupSize)
	for start := 0; start < len(records); start += b.groupSize {
		end := start + b.groupSize
		if end > len(records) {
			end = len(records)
		}

		rendered := make([]string, 0, end-start)
		for _, record := range records[start:end] {
			rendered = append(rendered, prettyRecord(record))
		}

		docs = append(docs, core.Document{
			Text:   strings.Join(rendered, "\n"),
			Source: source,
		})
	}

	b.logger.Debug("built documents", "source", source, "records", len(records), "documents", len(docs))
	return docs
}

// SplitDocuments splits documents into chunks of at most the configured size.
// Chunk IDs are derived from source, sequence and content so that re-splitting
// the same file always yields the same IDs.
func (b *Builder) SplitDocuments(docs []core.Document) ([]core.Chunk, error) {
	var chunks []core.Chunk
	seq := 0
	for _, doc := range docs {
		parts, err := b.splitter.SplitText(doc.Text)
		if err != nil {
			return nil, fmt.Errorf("splitting document from %s: %w", doc.Source, err)
		}

		for _, part := range parts {
			if part == "" {
				continue
			}
			chunks = append(chunks, core.Chunk{
				Id:     core.IDFromContent(fmt.Sprintf("%s|%d|%s", doc.Source, seq, part)),
				Text:   part,
				Source: doc.Source,
				Seq:    seq,
			})
			seq++
		}
	}
	return chunks, nil
}

// prettyRecord renders one raw record with two-space indentation, keeping the
// original key order. Records that cannot be re-indented (already validated
// as JSON by ParseRecords) are passed through verbatim.
func prettyRecord(record json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, record, "", "  "); err != nil {
		return string(record)
	}
	return buf.String()
}
