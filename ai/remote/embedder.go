package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/lineembed/ai"
	"golang.org/x/time/rate"
)

// maxErrorBody caps how much of an error response is kept in the message.
const maxErrorBody = 512

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedDatum struct {
	Embedding *[]float32 `json:"embedding"`
	Index     *int       `json:"index"`
}

type embedResponse struct {
	Data *[]embedDatum `json:"data"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Embedder implements ai.Embedder over HTTP.
type Embedder struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithHTTPClient replaces the HTTP client. The config timeout is not applied to it.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Embedder) {
		e.client = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Embedder) {
		e.logger = logger
	}
}

func newEmbedder(config *ai.Config, opts ...Option) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Provider != ai.ProviderRemote {
		return nil, fmt.Errorf("remote embedder: %w: %q", ai.ErrUnknownProvider, config.Provider)
	}

	e := &Embedder{
		endpoint: config.Endpoint,
		model:    config.Model,
		apiKey:   config.APIKey,
		client:   &http.Client{Timeout: config.Timeout},
		logger:   slog.Default().With("component", "remote-embedder"),
	}
	if config.RequestsPerSecond > 0 {
		burst := max(1, int(config.RequestsPerSecond))
		e.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NewEmbedder creates a new remote embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config, opts ...Option) (ai.Embedder, error) {
	return newEmbedder(config, opts...)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts sends all texts in one request and returns their vectors in input order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, ai.ClassifyError(err)
		}
	}

	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, ai.NewDispatchError(ai.KindTransport, "marshaling request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, ai.NewDispatchError(ai.KindTransport, "creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	e.logger.Debug("posting batch", "endpoint", e.endpoint, "count", len(texts))

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, ai.ClassifyError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ai.ClassifyError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e.logger.Warn("provider returned error status", "status", resp.StatusCode)
		return nil, &ai.DispatchError{
			Kind:       ai.KindStatus,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
		}
	}

	return decodeResponse(raw, len(texts))
}

func decodeResponse(raw []byte, want int) ([][]float32, error) {
	var result embedResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, ai.NewDispatchError(ai.KindShape, "decoding response", err)
	}
	if result.Data == nil {
		return nil, ai.NewDispatchError(ai.KindShape, "response has no data array", nil)
	}

	data := *result.Data
	if len(data) != want {
		return nil, ai.NewDispatchError(ai.KindShape,
			fmt.Sprintf("expected %d embeddings, got %d", want, len(data)), nil)
	}

	indexed := true
	for i, d := range data {
		if d.Embedding == nil {
			return nil, ai.NewDispatchError(ai.KindShape, fmt.Sprintf("data[%d] has no embedding", i), nil)
		}
		if d.Index == nil {
			indexed = false
		}
	}

	vecs := make([][]float32, len(data))
	if !indexed {
		for i, d := range data {
			vecs[i] = *d.Embedding
		}
		return vecs, nil
	}

	// Indices must be a permutation of 0..want-1.
	for i, d := range data {
		idx := *d.Index
		if idx < 0 || idx >= want {
			return nil, ai.NewDispatchError(ai.KindShape,
				fmt.Sprintf("data[%d] index %d out of range", i, idx), nil)
		}
		if vecs[idx] != nil {
			return nil, ai.NewDispatchError(ai.KindShape,
				fmt.Sprintf("data[%d] repeats index %d", i, idx), nil)
		}
		vecs[idx] = *d.Embedding
	}
	return vecs, nil
}

func errorMessage(raw []byte) string {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	return msg
}
