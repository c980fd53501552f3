package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/lineembed/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// singleRequestBatch keeps langchaingo from splitting a pipeline batch into
// several requests.
const singleRequestBatch = 1 << 16

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

func newEmbedder(config *ai.Config, httpClient *http.Client) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Provider != ai.ProviderOpenAI {
		return nil, fmt.Errorf("openai embedder: %w: %q", ai.ErrUnknownProvider, config.Provider)
	}

	// Local OpenAI-compatible services accept any token.
	token := config.APIKey
	if token == "" {
		token = "none"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Endpoint),
		openai.WithToken(token),
		openai.WithEmbeddingModel(config.Model),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, err
	}

	// Newline handling belongs to the pipeline, which replaces \r as well.
	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(false),
		embeddings.WithBatchSize(singleRequestBatch),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config, nil)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in one request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	// EmbedDocuments rewrites its argument in place.
	input := append([]string(nil), texts...)
	vecs, err := e.embedder.EmbedDocuments(ctx, input)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, classify(ctx, err)
	}
	if len(vecs) != len(texts) {
		return nil, ai.NewDispatchError(ai.KindShape,
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(vecs)), nil)
	}
	return vecs, nil
}

// classify maps langchaingo errors, which are mostly plain strings, onto dispatch kinds.
func classify(ctx context.Context, err error) *ai.DispatchError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ai.ClassifyError(fmt.Errorf("%w: %w", ctxErr, err))
	}
	if errors.Is(err, openai.ErrEmptyResponse) || errors.Is(err, openai.ErrUnexpectedResponseLength) {
		return ai.NewDispatchError(ai.KindShape, "", err)
	}

	msg := err.Error()
	var code int
	if i := strings.Index(msg, "unexpected status code: "); i >= 0 {
		_, _ = fmt.Sscanf(msg[i+len("unexpected status code: "):], "%d", &code)
	}
	switch {
	case code != 0:
		return &ai.DispatchError{Kind: ai.KindStatus, StatusCode: code, Err: err}
	case strings.Contains(msg, "empty response"), strings.Contains(msg, "decode response"):
		return ai.NewDispatchError(ai.KindShape, "", err)
	case strings.Contains(msg, "request timeout"):
		return ai.NewDispatchError(ai.KindTimeout, "", err)
	}
	return ai.ClassifyError(err)
}
