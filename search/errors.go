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


package search

import "errors"

var (
	// ErrStoreRequired is returned when a vector store is not provided.
	ErrStoreRequired = errors.New("vector store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrCollectionRequired is returned when a collection name is not provided.
	ErrCollectionRequired = errors.New("collection name required")

	// ErrInvalidK is returned when the candidate count is below one.
	ErrInvalidK = errors.New("k must be at least 1")

	// ErrInvalidThreshold is returned when the score threshold is outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be in [0, 1]")
)
