// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"time"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Source must not be empty
//   - Seq must not be negative
//
// NOT validated:
//   - Id (0 is a legitimate hash value)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptySource)
	}

	if chunk.Seq < 0 {
		return fmt.Errorf("%w: negative sequence %d", ErrInvalidChunk, chunk.Seq)
	}

	return nil
}

// ValidateTurn validates a Turn according to domain rules.
//
// Validation rules:
//   - Contents must not be empty
//   - SpeakerType must be valid (Human or AI)
//   - Timestamp must not be in the future
func ValidateTurn(turn *Turn) error {
	if turn == nil {
		return fmt.Errorf("%w: turn is nil", ErrInvalidTurn)
	}

	if turn.Contents == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrEmptyContent)
	}

	if err := ValidateSpeakerType(turn.Speaker); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, err)
	}

	if !IsValidTimestamp(turn.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateSpeakerType validates that a SpeakerType has a valid value.
func ValidateSpeakerType(speaker SpeakerType) error {
	if speaker != SpeakerTypeHuman && speaker != SpeakerTypeAI {
		return fmt.Errorf("%w: %d", ErrInvalidSpeakerType, speaker)
	}
	return nil
}

// IsValidTimestamp reports whether a timestamp is not in the future.
// A small clock-skew allowance is applied.
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now().UTC().Add(time.Minute))
}
