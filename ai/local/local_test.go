package local

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/poiesic/lineembed/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestMeanPool(t *testing.T) {
	tests := []struct {
		name string
		out  Output
		want []float32
	}{
		{
			name: "no mask",
			out:  Output{States: [][]float32{{1, 2}, {3, 4}}},
			want: []float32{2, 3},
		},
		{
			name: "padding excluded",
			out:  Output{States: [][]float32{{1, 1}, {3, 3}, {100, 100}}, Mask: []int{1, 1, 0}},
			want: []float32{2, 2},
		},
		{
			name: "all masked",
			out:  Output{States: [][]float32{{1}}, Mask: []int{0}},
			want: nil,
		},
		{
			name: "no states",
			out:  Output{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MeanPool(tt.out))
		})
	}
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	n := Normalize(v)
	assert.InDelta(t, 0.6, n[0], 1e-6)
	assert.InDelta(t, 0.8, n[1], 1e-6)
	assert.Equal(t, []float32{3, 4}, v, "input is not modified")

	assert.Equal(t, []float32{0, 0}, Normalize([]float32{0, 0}))
	assert.Empty(t, Normalize(nil))
}

func TestFeatureHash(t *testing.T) {
	m, err := loadFeatureHash("16")
	require.NoError(t, err)

	out, err := m.Run(context.Background(), "Hello, hello world")
	require.NoError(t, err)
	require.Len(t, out.States, 3)
	assert.Equal(t, out.States[0], out.States[1], "tokens are case-insensitive")
	assert.Len(t, out.States[0], 16)

	out, err = m.Run(context.Background(), "?!")
	require.NoError(t, err)
	assert.Len(t, out.States, 1, "punctuation-only text still yields a token")

	_, err = loadFeatureHash("zero")
	assert.Error(t, err)
	_, err = loadFeatureHash("-4")
	assert.Error(t, err)
}

func TestLoad_SharesModelPerID(t *testing.T) {
	t.Cleanup(ReleaseAll)

	var loads atomic.Int32
	RegisterFamily("counting", func(arg string) (Model, error) {
		loads.Add(1)
		return &featureHash{dim: 4}, nil
	})

	var wg sync.WaitGroup
	got := make([]Model, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := Load("counting:a")
			assert.NoError(t, err)
			got[i] = m
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	for _, m := range got {
		assert.Same(t, got[0], m)
	}
	assert.True(t, Loaded("counting:a"))

	_, err := Load("counting:b")
	require.NoError(t, err)
	assert.Equal(t, int32(2), loads.Load())

	ReleaseAll()
	assert.False(t, Loaded("counting:a"))
}

func TestLoad_Failures(t *testing.T) {
	t.Cleanup(ReleaseAll)

	_, err := Load("no-such-family")
	assert.ErrorIs(t, err, ErrUnknownFamily)

	attempts := 0
	RegisterFamily("flaky", func(arg string) (Model, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("weights missing")
		}
		return &featureHash{dim: 2}, nil
	})

	_, err = Load("flaky")
	require.Error(t, err)
	assert.False(t, Loaded("flaky"))

	_, err = Load("flaky")
	require.NoError(t, err, "a failed load is retried on next use")
}

type failingModel struct {
	failOn string
}

func (f failingModel) Run(_ context.Context, text string) (Output, error) {
	if text == f.failOn {
		return Output{}, errors.New("inference failed")
	}
	return Output{States: [][]float32{{1, 0}}}, nil
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	t.Cleanup(ReleaseAll)

	e, err := newEmbedder(ai.NewConfig(ai.WithProvider(ai.ProviderLocal), ai.WithLocalModelID("feature-hash:32")))
	require.NoError(t, err)

	vecs, err := e.EmbedTexts(context.Background(), []string{"the cat sat", "the cat sat", "dogs bark"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	for _, v := range vecs {
		assert.Len(t, v, 32)
		assert.InDelta(t, 1.0, magnitude(v), 1e-5)
	}
	assert.Equal(t, vecs[0], vecs[1])
	assert.NotEqual(t, vecs[0], vecs[2])
}

func TestEmbedder_SingleFailureFailsCall(t *testing.T) {
	t.Cleanup(ReleaseAll)
	RegisterFamily("failing", func(arg string) (Model, error) {
		return failingModel{failOn: arg}, nil
	})

	e, err := newEmbedder(ai.NewConfig(ai.WithProvider(ai.ProviderLocal), ai.WithLocalModelID("failing:bad")))
	require.NoError(t, err)

	vecs, err := e.EmbedTexts(context.Background(), []string{"ok", "bad", "ok"})
	assert.Nil(t, vecs)

	var de *ai.DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ai.KindModel, de.Kind)
}

func TestNewEmbedder_UnknownModel(t *testing.T) {
	_, err := NewEmbedder(ai.NewConfig(ai.WithProvider(ai.ProviderLocal), ai.WithLocalModelID("onnx:minilm")))
	assert.ErrorIs(t, err, ErrUnknownFamily)
}
