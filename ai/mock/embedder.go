package mock

import (
	"context"
	"hash/fnv"
	"sync"
)

// DefaultDim is the vector length produced by the default behavior.
const DefaultDim = 8

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields and records every
// batch it receives. Safe for concurrent use.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Dim is the vector length of default embeddings.
	Dim int

	mu        sync.Mutex
	callCount int
	batches   [][]string
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dim: DefaultDim}
}

// NewConstantEmbedder returns a mock that maps every text to a copy of v.
func NewConstantEmbedder(v []float32) *MockEmbedder {
	m := NewMockEmbedder()
	m.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = append([]float32(nil), v...)
		}
		return out, nil
	}
	return m
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.record([]string{text})

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return GenerateDeterministicVector(text, m.dim()), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.record(texts)

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = GenerateDeterministicVector(text, m.dim())
	}
	return embeddings, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// CallSizes returns the number of texts in each call, in call order.
func (m *MockEmbedder) CallSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sizes := make([]int, len(m.batches))
	for i, b := range m.batches {
		sizes[i] = len(b)
	}
	return sizes
}

// Batches returns a copy of the texts received by each call.
func (m *MockEmbedder) Batches() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.batches))
	for i, b := range m.batches {
		out[i] = append([]string(nil), b...)
	}
	return out
}

// Reset clears the call history and injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.batches = nil
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

func (m *MockEmbedder) record(texts []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.batches = append(m.batches, append([]string(nil), texts...))
}

func (m *MockEmbedder) dim() int {
	if m.Dim <= 0 {
		return DefaultDim
	}
	return m.Dim
}

// GenerateDeterministicVector creates a deterministic embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func GenerateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := range dim {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/1000.0 + 0.001
	}
	return vector
}
