package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/lineembed/ai"
	"github.com/poiesic/lineembed/core"
)

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Client sends one batch per call to an embedder and validates the result.
// It never retries.
type Client struct {
	embedder ai.Embedder
	timeout  time.Duration
}

// NewClient wraps an embedder. A zero timeout disables the per-batch deadline.
func NewClient(embedder ai.Embedder, timeout time.Duration) *Client {
	return &Client{embedder: embedder, timeout: timeout}
}

// EmbedBatch returns one vector per text in the same order, or a *ai.DispatchError.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([]core.Vector, error) {
	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = newlineReplacer.Replace(t)
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	raw, err := c.embedder.EmbedTexts(callCtx, input)
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, ai.NewDispatchError(ai.KindTimeout,
				fmt.Sprintf("batch exceeded %s", c.timeout), err)
		}
		return nil, ai.ClassifyError(err)
	}

	if len(raw) != len(texts) {
		return nil, ai.NewDispatchError(ai.KindShape,
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(raw)), nil)
	}
	vecs := make([]core.Vector, len(raw))
	for i, v := range raw {
		if len(v) == 0 {
			return nil, ai.NewDispatchError(ai.KindShape, fmt.Sprintf("embedding %d is empty", i), nil)
		}
		vecs[i] = core.Vector(v)
	}
	return vecs, nil
}
