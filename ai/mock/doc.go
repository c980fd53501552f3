// Package mock provides test double implementations of ai.Embedder.
//
// The mocks let pipeline and runner tests run without an embedding service
// and make provider traffic observable.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	m := mock.NewMockEmbedder()
//	vectors, err := m.EmbedTexts(ctx, []string{"a", "b"})
//
//	// Custom behavior injection
//	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("provider down")
//	}
//
//	// Inspect traffic
//	count := m.CallCount()
//	sizes := m.CallSizes() // e.g. [8 8 4]
//
// # Default Behavior
//
// MockEmbedder returns deterministic, strictly positive vectors derived from
// an FNV hash of each text, so equal texts always embed equally.
package mock
