package embeddings

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout bounds one embedding call.
const DefaultTimeout = 30 * time.Second

// retryDelay separates the two attempts.
const retryDelay = 500 * time.Millisecond

// retryEmbedder wraps an Embedder with a per-call timeout and a single
// retry on failure. After the retry the error is returned to the caller,
// who reports it as a retryable condition rather than crashing.
type retryEmbedder struct {
	inner   Embedder
	timeout time.Duration
}

// WithRetry wraps the embedder with timeout and single-retry semantics.
// A non-positive timeout uses DefaultTimeout.
func WithRetry(inner Embedder, timeout time.Duration) Embedder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &retryEmbedder{inner: inner, timeout: timeout}
}

func (r *retryEmbedder) Name() string        { return r.inner.Name() }
func (r *retryEmbedder) Dimensions() int     { return r.inner.Dimensions() }
func (r *retryEmbedder) MaxInputLength() int { return r.inner.MaxInputLength() }

func (r *retryEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := r.attempt(ctx, texts)
	if err == nil {
		return vecs, nil
	}

	// The caller's context expiring is not transient; do not retry it.
	if ctx.Err() != nil {
		return nil, err
	}

	select {
	case <-time.After(retryDelay):
	case <-ctx.Done():
		return nil, errors.Join(err, ctx.Err())
	}

	return r.attempt(ctx, texts)
}

func (r *retryEmbedder) attempt(ctx context.Context, texts []string) ([][]float32, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Embed(attemptCtx, texts)
}
