package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	a, err := m.EmbedText(ctx, "hello")
	require.NoError(t, err)
	b, err := m.EmbedTexts(ctx, []string{"hello", "world"})
	require.NoError(t, err)

	assert.Len(t, a, DefaultDim)
	assert.Equal(t, a, b[0])
	assert.NotEqual(t, b[0], b[1])
	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, []int{1, 2}, m.CallSizes())
	assert.Equal(t, [][]string{{"hello"}, {"hello", "world"}}, m.Batches())
}

func TestMockEmbedder_Constant(t *testing.T) {
	m := NewConstantEmbedder([]float32{0.1})
	out, err := m.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1}, {0.1}}, out)

	out[0][0] = 9
	again, err := m.EmbedTexts(context.Background(), []string{"c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1}}, again)
}

func TestMockEmbedder_Reset(t *testing.T) {
	m := NewConstantEmbedder([]float32{1})
	_, _ = m.EmbedTexts(context.Background(), []string{"a"})

	m.Reset()
	assert.Zero(t, m.CallCount())
	assert.Empty(t, m.CallSizes())
	assert.Nil(t, m.EmbedTextsFunc)
}

func TestMockEmbedder_Concurrent(t *testing.T) {
	m := NewMockEmbedder()
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.EmbedTexts(context.Background(), []string{"x"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, m.CallCount())
}
