package llm

import "context"

// Provider defines the interface for LLM completion services.
//
// The completion text is always free-form: callers never assume structured
// output. Providers may fail or time out; composition code surfaces that to
// the user instead of crashing.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
