package badger

import "encoding/binary"

// Key prefixes for session data
const (
	turnPrefix = "sesturn"
	turnIDSeq  = "sesturnseq"
)

// makeTurnKey generates a composite key for a session turn.
// Format: prefix:sequence
func makeTurnKey(seq uint64) []byte {
	prefix := turnPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	buf := make([]byte, prefixSize+8)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// turnKeyPrefix returns the prefix shared by all turn keys.
func turnKeyPrefix() []byte {
	return []byte(turnPrefix + ":")
}
