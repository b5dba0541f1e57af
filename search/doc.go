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


// Package search answers natural-language questions against an indexed log
// corpus.
//
// The Retriever embeds the query, fetches the top-k nearest chunks, and
// discards everything below a similarity threshold. The Composer feeds the
// surviving chunks to a text-generation capability and returns the generated
// answer together with the citations that grounded it. When nothing clears
// the threshold the Composer returns a fixed refusal instead of letting the
// model answer without evidence.
package search
