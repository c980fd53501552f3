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


// Package openai provides an ai.Embedder backed by the langchaingo OpenAI
// client, for hosted OpenAI-compatible APIs (OpenAI, Ollama, LocalAI, vLLM).
//
// # Usage
//
//	cfg := ai.NewConfig(
//	    ai.WithProvider(ai.ProviderOpenAI),
//	    ai.WithEndpoint("https://api.openai.com/v1"),
//	    ai.WithModel("text-embedding-3-small"),
//	    ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
//
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vectors, err := embedder.EmbedTexts(ctx, []string{"first", "second"})
//
// The endpoint is the API base URL; "/embeddings" is appended by the client.
// Each EmbedTexts call is sent as a single request regardless of its size.
package openai
