// Package vectorstore defines the boundary to the external vector store.
//
// The Store interface covers the five operations the system orchestrates:
// idempotent collection creation, existence and point-count preflight,
// overwriting upserts, and top-k similarity search. The qdrant subpackage
// implements it against a Qdrant server; the memory subpackage provides an
// in-process implementation for tests and offline use.
package vectorstore
