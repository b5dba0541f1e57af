package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/poiesic/logseer/vectorstore"
)

// DefaultVectorSize is the dimensionality collections are created with.
// It matches the text-embedding-3-small model.
const DefaultVectorSize = 1536

// Pipeline drives the incremental ingestion of source files: discovery,
// parsing, document building, batched vector writes, and durable tracking.
//
// Files are processed strictly one at a time; a file is tracked only after
// every one of its chunks has been written. Parse and write failures abort
// the failing file and leave it untracked for a later retry, while the run
// continues with the remaining files. Cancellation is honored between files.
type Pipeline struct {
	tracker    *Tracker
	builder    *Builder
	writer     *Writer
	store      vectorstore.Store
	logsDir    string
	vectorSize int
	progress   *ProgressTracker
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithVectorSize sets the dimensionality used when creating the collection.
// Default is 1536.
func WithVectorSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("vector size must be at least 1")
		}
		p.vectorSize = size
		return nil
	}
}

// WithProgress attaches a progress reporter to the run.
// The reporter's total is rewritten during Ingest to the number of
// discovered files.
func WithProgress(progress *ProgressTracker) Option {
	return func(p *Pipeline) error {
		p.progress = progress
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline reading *.json files from logsDir.
func NewPipeline(
	tracker *Tracker,
	builder *Builder,
	writer *Writer,
	store vectorstore.Store,
	logsDir string,
	opts ...Option,
) (*Pipeline, error) {
	if tracker == nil {
		return nil, ErrTrackerRequired
	}
	if builder == nil {
		return nil, ErrBuilderRequired
	}
	if writer == nil {
		return nil, ErrWriterRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if logsDir == "" {
		return nil, ErrLogsDirRequired
	}

	p := &Pipeline{
		tracker:    tracker,
		builder:    builder,
		writer:     writer,
		store:      store,
		logsDir:    logsDir,
		vectorSize: DefaultVectorSize,
		logger:     slog.Default().With("component", "pipeline"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Summary reports the outcome of one ingestion run.
type Summary struct {
	Files    int // source files discovered
	Ingested int // files fully written and tracked
	Skipped  int // files already tracked by a previous run
	Failed   int // files aborted by a parse or write failure
	Warned   int // files producing zero chunks
	Chunks   int // chunks written during this run
}

// Ingest runs incremental ingestion into the named collection and returns a
// run summary. Creating the collection (if absent) happens first and is fatal
// on failure; per-file failures are counted and logged but do not stop the
// run. Returns the context's error if cancelled.
func (p *Pipeline) Ingest(ctx context.Context, collection string) (*Summary, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name required")
	}

	if err := p.store.EnsureCollection(ctx, collection, p.vectorSize, vectorstore.MetricCosine); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCollectionSetup, err)
	}

	files, err := filepath.Glob(filepath.Join(p.logsDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("discovering log files: %w", err)
	}
	// Deterministic order within a run.
	sort.Strings(files)

	summary := &Summary{Files: len(files)}
	if len(files) == 0 {
		p.logger.Warn("no log files found", "dir", p.logsDir)
		return summary, nil
	}

	if p.progress != nil {
		p.progress.SetTotal(len(files))
		p.progress.Start()
	}

	for _, file := range files {
		// Cooperative cancellation between files, never mid-file.
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		p.processFile(ctx, collection, file, summary)

		if p.progress != nil {
			p.progress.Increment(1)
		}
	}

	if p.progress != nil {
		p.progress.Finish()
	}

	p.logger.Info("ingestion finished",
		"collection", collection,
		"files", summary.Files,
		"ingested", summary.Ingested,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"warned", summary.Warned,
		"chunks", summary.Chunks)

	return summary, nil
}

// processFile drives one source file through parse, chunk, write, and track.
func (p *Pipeline) processFile(ctx context.Context, collection, file string, summary *Summary) {
	if p.tracker.Has(file) {
		p.logger.Info("file already ingested, skipping", "file", file)
		summary.Skipped++
		return
	}

	p.logger.Info("processing file", "file", file)

	data, err := os.ReadFile(file)
	if err != nil {
		p.logger.Error("error reading file", "file", file, "err", err)
		summary.Failed++
		return
	}

	records, err := p.builder.ParseRecords(data)
	if err != nil {
		p.logger.Error("error parsing file", "file", file, "err", err)
		summary.Failed++
		return
	}

	docs := p.builder.BuildDocuments(records, file)

	chunks, err := p.builder.SplitDocuments(docs)
	if err != nil {
		p.logger.Error("error chunking file", "file", file, "err", err)
		summary.Failed++
		return
	}

	if len(chunks) == 0 {
		p.logger.Warn("no chunks generated for file", "file", file)
		summary.Warned++
		return
	}

	written, err := p.writer.Write(ctx, collection, chunks)
	if err != nil {
		// The file stays untracked; a future run retries it from the start.
		p.logger.Error("error writing chunks", "file", file, "written", written, "err", err)
		summary.Failed++
		return
	}

	if err := p.tracker.Mark(file); err != nil {
		p.logger.Error("error updating tracker", "file", file, "err", err)
		summary.Failed++
		return
	}

	summary.Ingested++
	summary.Chunks += written
	p.logger.Info("file ingested", "file", file, "chunks", written)
}
