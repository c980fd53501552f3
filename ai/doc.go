// Copyright 2026 Poiesic Systems
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


// Package ai provides abstractions for the embedding providers used by lineembed.
//
// This package defines the Embedder interface the pipeline depends on, the
// provider configuration, and the error taxonomy for failed provider calls.
// The pipeline depends on these abstractions rather than on a concrete
// provider, so providers can be swapped by configuration.
//
// # Providers
//
// Three implementation sub-packages satisfy the same contract:
//
//   - ai/remote: one HTTP POST per batch to an OpenAI-compatible endpoint
//   - ai/openai: hosted OpenAI-compatible APIs through langchaingo
//   - ai/local: an in-process model, one model call per text
//
// ai/mock provides test doubles with call counters.
//
// # Constructor Return Type Pattern
//
// Provider constructors (remote.NewEmbedder, local.NewEmbedder, ...) return the
// ai.Embedder interface. Test doubles (mock.NewMockEmbedder) return concrete
// types so tests can inspect call counts and batch sizes.
//
// # Errors
//
// A failed provider call surfaces as a *DispatchError carrying a Kind. Every
// DispatchError matches ErrDispatch under errors.Is; shape failures also match
// ErrResponseShape. Providers never retry; callers that want retries wrap an
// Embedder with NewRetryingEmbedder.
//
// # Usage Example
//
//	cfg := ai.NewConfig(
//	    ai.WithEndpoint("http://localhost:11434/v1/embeddings"),
//	    ai.WithModel("nomic-embed-text"),
//	)
//	embedder, err := remote.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vectors, err := embedder.EmbedTexts(ctx, []string{"first", "second"})
package ai
