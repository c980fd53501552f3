package local

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"unicode"
)

const (
	featureHashFamily = "feature-hash"
	defaultHashDim    = 384
	maxHashDim        = 8192
	// maxTokens mirrors the context window of common sentence encoders.
	maxTokens = 512
)

// featureHash maps each lowercased word token to a fixed pseudo-random vector
// seeded by its FNV hash, so texts that share words land near each other.
type featureHash struct {
	dim int
}

func loadFeatureHash(arg string) (Model, error) {
	if arg == "" {
		return &featureHash{dim: defaultHashDim}, nil
	}
	dim, err := strconv.Atoi(arg)
	if err != nil || dim <= 0 || dim > maxHashDim {
		return nil, fmt.Errorf("invalid dimension %q", arg)
	}
	return &featureHash{dim: dim}, nil
}

func (f *featureHash) Run(ctx context.Context, text string) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(tokens) == 0 && strings.TrimSpace(text) != "" {
		tokens = []string{strings.TrimSpace(text)}
	}
	if len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}

	out := Output{
		States: make([][]float32, len(tokens)),
		Mask:   make([]int, len(tokens)),
	}
	for i, tok := range tokens {
		out.States[i] = f.tokenVector(tok)
		out.Mask[i] = 1
	}
	return out, nil
}

func (f *featureHash) tokenVector(tok string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(tok))
	seed := h.Sum32()

	v := make([]float32, f.dim)
	for i := range v {
		seed = seed*1664525 + 1013904223 // LCG constants
		v[i] = float32(int32(seed>>8)%2001-1000) / 1000.0
	}
	return v
}
