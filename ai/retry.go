// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RetryWithBackoff retries an operation with exponential backoff.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
// Returns the error from the last attempt if all attempts fail.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	return retryWithBackoff(ctx, operation, maxAttempts, baseDelay, nil)
}

func retryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration, retryable func(error) bool) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		if attempt == maxAttempts {
			break
		}

		// baseDelay * 2^(attempt-1)
		delay := baseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// RetryingEmbedder re-invokes a wrapped Embedder on transient failures.
// Embedding a batch is idempotent, so a retried call yields the same result.
type RetryingEmbedder struct {
	inner       Embedder
	maxAttempts int
	baseDelay   time.Duration
}

// NewRetryingEmbedder wraps inner with an exponential backoff retry policy.
// Shape errors and cancellation are never retried.
func NewRetryingEmbedder(inner Embedder, maxAttempts int, baseDelay time.Duration) (*RetryingEmbedder, error) {
	if maxAttempts <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	return &RetryingEmbedder{inner: inner, maxAttempts: maxAttempts, baseDelay: baseDelay}, nil
}

// EmbedText embeds a single text, retrying transient failures.
func (r *RetryingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := retryWithBackoff(ctx, func() error {
		var err error
		out, err = r.inner.EmbedText(ctx, text)
		return err
	}, r.maxAttempts, r.baseDelay, isRetryable)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EmbedTexts embeds a batch, retrying transient failures.
func (r *RetryingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := retryWithBackoff(ctx, func() error {
		var err error
		out, err = r.inner.EmbedTexts(ctx, texts)
		return err
	}, r.maxAttempts, r.baseDelay, isRetryable)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrResponseShape) {
		return false
	}
	var de *DispatchError
	if errors.As(err, &de) {
		switch de.Kind {
		case KindCanceled, KindShape, KindModel:
			return false
		case KindStatus:
			// 4xx other than throttling will not change on resend.
			return de.StatusCode == 429 || de.StatusCode >= 500
		}
	}
	return true
}
