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


// Package storage defines the persistence boundary for session history.
//
// The query loop appends each question and answer as a Turn; recent turns
// feed back into answer generation as conversation context. The
// SessionRepository interface hides the backing database; the badger
// subpackage provides the durable implementation. Turns are serialized with
// the MUS format (hand-written marshalers in serialization.go).
package storage
