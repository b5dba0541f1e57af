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


// Package ai provides abstractions for the AI services used in logseer.
//
// This package defines interfaces for the two external AI capabilities the
// system orchestrates: text embeddings and grounded answer generation. It
// follows the dependency inversion principle, allowing the ingestion and
// search logic to depend on abstractions rather than concrete clients.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Embedder: generates vector embeddings from text
//   - Generator: produces a completion for a grounded prompt
//   - Provider: aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return
// interface types to enforce abstraction; mock constructors return concrete
// types to enable behavior injection and call-count assertions.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithToken(apiKey))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "pod api-7f9 restarted")
//	answer, err := provider.Generator().Complete(ctx, prompt, history)
package ai
