// Package ingest turns directories of structured log files into indexed
// vector collections.
//
// The pipeline is incremental: a Tracker records which files were fully
// ingested by earlier runs, a Builder parses each new file into grouped
// pretty-printed documents and splits them into overlapping chunks, and a
// Writer embeds the chunks in fixed-size batches and upserts them into a
// vector store with a pause between batches. Chunk identifiers are derived
// from chunk content, so re-running a partially failed file overwrites the
// points it already wrote instead of duplicating them.
package ingest
