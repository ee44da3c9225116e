package llm

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout bounds one completion call.
const DefaultTimeout = 60 * time.Second

const retryDelay = time.Second

// retryProvider wraps a Provider with a per-call timeout and a single retry
// on failure. A second failure is returned to the caller, who surfaces it
// as a retryable "unable to complete the request" condition; it never
// terminates the host process.
type retryProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithRetry wraps the provider with timeout and single-retry semantics.
// A non-positive timeout uses DefaultTimeout.
func WithRetry(inner Provider, timeout time.Duration) Provider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &retryProvider{inner: inner, timeout: timeout}
}

func (r *retryProvider) Name() string { return r.inner.Name() }

func (r *retryProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	resp, err := r.attempt(ctx, req)
	if err == nil {
		return resp, nil
	}

	if ctx.Err() != nil {
		return nil, err
	}

	select {
	case <-time.After(retryDelay):
	case <-ctx.Done():
		return nil, errors.Join(err, ctx.Err())
	}

	return r.attempt(ctx, req)
}

func (r *retryProvider) attempt(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Complete(attemptCtx, req)
}
