package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptedProvider returns canned responses/errors in order.
type scriptedProvider struct {
	errs  []error
	calls int
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Complete(_ context.Context, _ CompletionRequest) (*CompletionResponse, error) {
	s.calls++
	if s.calls <= len(s.errs) && s.errs[s.calls-1] != nil {
		return nil, s.errs[s.calls-1]
	}
	return &CompletionResponse{Content: "ok"}, nil
}

func TestWithRetrySecondAttemptSucceeds(t *testing.T) {
	inner := &scriptedProvider{errs: []error{errors.New("boom")}}
	p := WithRetry(inner, time.Second)

	resp, err := p.Complete(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q", resp.Content)
	}
	if inner.calls != 2 {
		t.Errorf("calls = %d, want 2", inner.calls)
	}
}

func TestWithRetryReturnsSecondError(t *testing.T) {
	inner := &scriptedProvider{errs: []error{errors.New("first"), errors.New("second")}}
	p := WithRetry(inner, time.Second)

	if _, err := p.Complete(context.Background(), CompletionRequest{}); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 2 {
		t.Errorf("calls = %d, want exactly 2", inner.calls)
	}
}

func TestRateLimitedProviderPassesThrough(t *testing.T) {
	inner := &scriptedProvider{}
	p := NewRateLimitedProvider(inner, 60)

	resp, err := p.Complete(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q", resp.Content)
	}
}

func TestNewProviderUnsupported(t *testing.T) {
	if _, err := NewProvider("carrier-pigeon", "m"); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}
