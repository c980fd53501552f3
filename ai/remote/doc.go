// Package remote implements ai.Embedder against any OpenAI-compatible
// embeddings endpoint using plain HTTP.
//
// Each EmbedTexts call issues exactly one POST to the configured endpoint:
//
//	POST {endpoint}
//	Content-Type: application/json
//
//	{"model": "nomic-embed-text", "input": ["first text", "second text"]}
//
// and expects a response of the form
//
//	{"data": [{"embedding": [0.1, ...]}, {"embedding": [0.2, ...]}]}
//
// Non-2xx responses, a missing or non-array data field, elements without an
// embedding, and count mismatches are all reported as *ai.DispatchError.
// The embedder never retries; wrap it with ai.NewRetryingEmbedder for that.
package remote
