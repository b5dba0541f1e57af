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


package vectorstore

import "errors"

var (
	// ErrCollectionNotFound indicates that the requested collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionEmpty indicates that a collection exists but holds no points.
	ErrCollectionEmpty = errors.New("collection is empty")

	// ErrDimensionMismatch indicates a vector does not match the collection dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrUnavailable indicates the vector store could not be reached.
	ErrUnavailable = errors.New("vector store unavailable")
)
