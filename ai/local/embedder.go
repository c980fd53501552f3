package local

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/lineembed/ai"
)

// Embedder implements ai.Embedder with a model from the process-wide registry.
type Embedder struct {
	modelID string
	model   Model
	logger  *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Provider != ai.ProviderLocal {
		return nil, fmt.Errorf("local embedder: %w: %q", ai.ErrUnknownProvider, config.Provider)
	}

	model, err := Load(config.LocalModelID)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		modelID: config.LocalModelID,
		model:   model,
		logger:  slog.Default().With("component", "local-embedder", "model", config.LocalModelID),
	}, nil
}

// NewEmbedder creates an embedder for config.LocalModelID, loading the model if needed.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText runs the model over one text and returns its pooled, normalized vector.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	out, err := e.model.Run(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ai.ClassifyError(err)
		}
		return nil, ai.NewDispatchError(ai.KindModel, e.modelID, err)
	}

	pooled := MeanPool(out)
	if len(pooled) == 0 {
		return nil, ai.NewDispatchError(ai.KindModel, e.modelID, ErrEmptyOutput)
	}
	return Normalize(pooled), nil
}

// EmbedTexts runs the model once per text, in order.
// Any failing text fails the whole call.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("embedding texts", "count", len(texts))

	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.EmbedText(ctx, text)
		if err != nil {
			e.logger.Warn("model call failed", "index", i, "err", err)
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}
