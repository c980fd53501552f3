package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/poiesic/lineembed/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) *Embedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := ai.NewConfig(
		ai.WithProvider(ai.ProviderOpenAI),
		ai.WithEndpoint(srv.URL+"/v1/embeddings"),
		ai.WithModel("test-embed"),
	)
	e, err := newEmbedder(cfg, srv.Client())
	require.NoError(t, err)
	return e
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	var got struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer none", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[` +
			`{"object":"embedding","embedding":[0.5,0.25],"index":0},` +
			`{"object":"embedding","embedding":[1,2],"index":1}]}`))
	})

	texts := []string{"line\none", "two"}
	vecs, err := e.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)

	assert.Equal(t, "test-embed", got.Model)
	assert.Equal(t, []string{"line\none", "two"}, got.Input)
	assert.Equal(t, [][]float32{{0.5, 0.25}, {1, 2}}, vecs)
	assert.Equal(t, "line\none", texts[0], "caller slice is not modified")
}

func TestEmbedder_StatusError(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	})

	_, err := e.EmbedTexts(context.Background(), []string{"a"})
	var de *ai.DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ai.KindStatus, de.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, de.StatusCode)
}

func TestEmbedder_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		attempts int32
	}{
		{name: "server error is retried", status: http.StatusInternalServerError, attempts: 2},
		{name: "bad gateway is retried", status: http.StatusBadGateway, attempts: 2},
		{name: "rate limit is retried", status: http.StatusTooManyRequests, attempts: 2},
		{name: "bad request is not retried", status: http.StatusBadRequest, attempts: 1},
		{name: "unauthorized is not retried", status: http.StatusUnauthorized, attempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int32
			e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			})

			_, err := e.EmbedTexts(context.Background(), []string{"a"})
			var de *ai.DispatchError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, ai.KindStatus, de.Kind)
			assert.Equal(t, tt.status, de.StatusCode)

			requests.Store(0)
			retrying, err := ai.NewRetryingEmbedder(e, 2, 0)
			require.NoError(t, err)
			_, err = retrying.EmbedTexts(context.Background(), []string{"a"})
			require.Error(t, err)
			assert.Equal(t, tt.attempts, requests.Load())
		})
	}
}

func TestEmbedder_EmptyData(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	})

	_, err := e.EmbedTexts(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ai.ErrResponseShape)
}

func TestEmbedder_CountMismatch(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1],"index":0}]}`))
	})

	_, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ai.ErrResponseShape)
}

func TestNewEmbedder_Validation(t *testing.T) {
	_, err := NewEmbedder(ai.NewConfig(ai.WithProvider(ai.ProviderOpenAI), ai.WithModel("")))
	require.Error(t, err)

	_, err = NewEmbedder(ai.NewConfig())
	assert.ErrorIs(t, err, ai.ErrUnknownProvider)
}
