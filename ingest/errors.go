package ingest

import "errors"

var (
	// ErrTrackerRequired is returned when a tracker is not provided.
	ErrTrackerRequired = errors.New("tracker required")

	// ErrBuilderRequired is returned when a document builder is not provided.
	ErrBuilderRequired = errors.New("document builder required")

	// ErrWriterRequired is returned when a vector writer is not provided.
	ErrWriterRequired = errors.New("vector writer required")

	// ErrStoreRequired is returned when a vector store is not provided.
	ErrStoreRequired = errors.New("vector store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrLogsDirRequired is returned when a logs directory is not provided.
	ErrLogsDirRequired = errors.New("logs directory required")

	// ErrCollectionSetup indicates the vector store collection could not be
	// created or reached. This is fatal for the whole ingestion run.
	ErrCollectionSetup = errors.New("collection setup failed")

	// ErrParse indicates a source file is not valid JSON. The file is
	// skipped; other files are unaffected.
	ErrParse = errors.New("parse error")
)
