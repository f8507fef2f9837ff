package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stubProvider returns canned responses per model name.
type stubProvider struct {
	name    string
	calls   []string // model names in call order
	respond func(model string) (string, error)
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) Generate(_ context.Context, req *GenerateRequest) (string, error) {
	s.calls = append(s.calls, req.Model)
	return s.respond(req.Model)
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, BackoffFactor: 1.0, MaxDelay: time.Millisecond}
}

func TestChainFallsBackToNextModel(t *testing.T) {
	stub := &stubProvider{name: "gemini", respond: func(model string) (string, error) {
		if model == "gemini-2.0-flash" {
			return "", errors.New("404 model not found")
		}
		return "fallback output", nil
	}}
	reg := NewRegistry()
	reg.Register(stub)

	chain := NewChain(reg, []string{"gemini/gemini-2.0-flash", "gemini/gemini-1.5-flash"}, fastPolicy())
	text, err := chain.Generate(context.Background(), &GenerateRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "fallback output" {
		t.Errorf("expected fallback model output, got %q", text)
	}
}

func TestChainRetriesRetryableErrors(t *testing.T) {
	attempts := 0
	stub := &stubProvider{name: "gemini", respond: func(string) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("429 too many requests")
		}
		return "eventually", nil
	}}
	reg := NewRegistry()
	reg.Register(stub)

	chain := NewChain(reg, []string{"gemini/flash"}, fastPolicy())
	text, err := chain.Generate(context.Background(), &GenerateRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "eventually" {
		t.Errorf("got %q", text)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestChainDoesNotRetryPermanentErrors(t *testing.T) {
	stub := &stubProvider{name: "gemini", respond: func(string) (string, error) {
		return "", errors.New("invalid api key")
	}}
	reg := NewRegistry()
	reg.Register(stub)

	chain := NewChain(reg, []string{"gemini/flash"}, fastPolicy())
	if _, err := chain.Generate(context.Background(), &GenerateRequest{Prompt: "p"}); err == nil {
		t.Fatal("expected error")
	}
	if len(stub.calls) != 1 {
		t.Errorf("permanent error should not be retried, got %d calls", len(stub.calls))
	}
}

func TestChainAllModelsFail(t *testing.T) {
	stub := &stubProvider{name: "gemini", respond: func(string) (string, error) {
		return "", errors.New("bad request")
	}}
	reg := NewRegistry()
	reg.Register(stub)

	chain := NewChain(reg, []string{"gemini/a", "gemini/b"}, fastPolicy())
	if _, err := chain.Generate(context.Background(), &GenerateRequest{Prompt: "p"}); err == nil {
		t.Fatal("expected error when every model fails")
	}
	if len(stub.calls) != 2 {
		t.Errorf("expected both models tried once, got %v", stub.calls)
	}
}

func TestChainNoModels(t *testing.T) {
	chain := NewChain(NewRegistry(), nil, fastPolicy())
	if _, err := chain.Generate(context.Background(), &GenerateRequest{Prompt: "p"}); err == nil {
		t.Fatal("expected error for empty model list")
	}
}

func TestChainStopsOnCancelledContext(t *testing.T) {
	stub := &stubProvider{name: "gemini", respond: func(string) (string, error) {
		return "", errors.New("503 overloaded")
	}}
	reg := NewRegistry()
	reg.Register(stub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := NewChain(reg, []string{"gemini/a", "gemini/b"}, fastPolicy())
	if _, err := chain.Generate(ctx, &GenerateRequest{Prompt: "p"}); err == nil {
		t.Fatal("expected error")
	}
	if len(stub.calls) != 1 {
		t.Errorf("cancelled context should stop the chain, got %d calls", len(stub.calls))
	}
}
