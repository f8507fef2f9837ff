package provider

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// RetryPolicy controls retry behavior for a single model within a Chain.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
}

// DefaultRetryPolicy retries twice with exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    2,
		InitialDelay:  time.Second,
		BackoffFactor: 2.0,
		MaxDelay:      30 * time.Second,
	}
}

// Chain tries an ordered list of "provider/model" identifiers until one
// succeeds. Retryable errors (rate limits, transient 5xx) are retried on
// the same model with backoff before falling through to the next one.
// The pipeline itself performs no retries; fallback lives entirely here.
type Chain struct {
	registry *Registry
	models   []string
	policy   RetryPolicy
}

func NewChain(registry *Registry, models []string, policy RetryPolicy) *Chain {
	return &Chain{registry: registry, models: models, policy: policy}
}

// Models returns the configured identifier list, primary first.
func (c *Chain) Models() []string { return c.models }

func (c *Chain) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	if len(c.models) == 0 {
		return "", fmt.Errorf("no models configured")
	}

	var lastErr error
	for _, modelID := range c.models {
		prov, modelName, err := c.registry.Resolve(modelID)
		if err != nil {
			lastErr = err
			continue
		}

		call := *req
		call.Model = modelName

		for attempt := 0; ; attempt++ {
			text, err := prov.Generate(ctx, &call)
			if err == nil {
				return text, nil
			}
			lastErr = err

			if ctx.Err() != nil {
				return "", lastErr
			}
			if !isRetryable(err) || attempt >= c.policy.MaxRetries {
				slog.Warn("generation failed, trying next model", "model", modelID, "err", err)
				break
			}
			sleepWithBackoff(ctx, c.policy, attempt)
		}
	}
	return "", lastErr
}

// sleepWithBackoff waits for the backoff duration, respecting context cancellation.
func sleepWithBackoff(ctx context.Context, policy RetryPolicy, attempt int) {
	delay := calculateBackoff(policy, attempt)
	slog.Info("generation retry: backing off", "attempt", attempt+1, "delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// calculateBackoff computes the delay for a given attempt using exponential backoff.
func calculateBackoff(policy RetryPolicy, attempt int) time.Duration {
	delay := float64(policy.InitialDelay) * math.Pow(policy.BackoffFactor, float64(attempt))
	if time.Duration(delay) > policy.MaxDelay {
		return policy.MaxDelay
	}
	return time.Duration(delay)
}

// isRetryable checks if an error message indicates a transient condition.
func isRetryable(err error) bool {
	lower := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout", "rate_limit", "rate limit", "too many requests",
		"429", "500", "502", "503", "504",
		"connection reset", "connection refused", "eof",
		"overloaded", "capacity",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
