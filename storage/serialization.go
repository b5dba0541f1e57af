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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/logseer/core"
)

// MarshalTurn serializes a Turn to bytes.
// Layout: id, speaker, contents, timestamp (unix micro).
func MarshalTurn(turn *core.Turn) []byte {
	size := varint.Uint64.Size(uint64(turn.Id)) +
		varint.Int64.Size(int64(turn.Speaker)) +
		ord.String.Size(turn.Contents) +
		varint.Int64.Size(turn.Timestamp.UnixMicro())

	bs := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(turn.Id), bs)
	n += varint.Int64.Marshal(int64(turn.Speaker), bs[n:])
	n += ord.String.Marshal(turn.Contents, bs[n:])
	varint.Int64.Marshal(turn.Timestamp.UnixMicro(), bs[n:])
	return bs
}

// UnmarshalTurn deserializes a Turn from bytes.
func UnmarshalTurn(data []byte) (*core.Turn, error) {
	id, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: turn id: %w", ErrSerializationFailed, err)
	}

	speaker, n1, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: turn speaker: %w", ErrSerializationFailed, err)
	}
	n += n1

	contents, n2, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: turn contents: %w", ErrSerializationFailed, err)
	}
	n += n2

	micros, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: turn timestamp: %w", ErrSerializationFailed, err)
	}

	return &core.Turn{
		Id:        core.ID(id),
		Speaker:   core.SpeakerType(speaker),
		Contents:  contents,
		Timestamp: time.UnixMicro(micros).UTC(),
	}, nil
}
