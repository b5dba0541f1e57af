package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the same ID, which makes vector store
// upserts overwriting rather than additive.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// SpeakerType identifies the source of a conversation turn.
type SpeakerType int

const (
	// SpeakerTypeHuman represents a human user.
	SpeakerTypeHuman SpeakerType = iota + 1
	// SpeakerTypeAI represents an AI assistant.
	SpeakerTypeAI
)

// Document is the textual rendering of a group of log records from one
// source file, produced before chunking. Documents are transient; only
// their chunks are stored.
type Document struct {
	Text   string
	Source string // path of the source file the records came from
}

// Chunk is a bounded-length slice of a Document and the unit of vector
// store storage. Chunks from the same document preserve order and may
// overlap by a configured number of characters.
type Chunk struct {
	Id     ID
	Text   string
	Source string
	Seq    int // position of the chunk within its source file's chunk sequence
}

// ScoredChunk is a chunk returned by similarity search together with its
// similarity score.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}

// Answer is a generated answer grounded in retrieved chunks.
// Citations is empty only when Text is the fixed refusal.
type Answer struct {
	Text      string
	Citations []ScoredChunk
}

// Turn represents a single prior turn in a query conversation.
type Turn struct {
	Id        ID
	Speaker   SpeakerType
	Contents  string
	Timestamp time.Time
}
