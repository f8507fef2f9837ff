// Package provider implements the text-generation capability consumed by
// the stage runner. Model selection, credentials, and request shaping are
// handled here so the pipeline stays provider-agnostic.
package provider

import (
	"context"
	"fmt"
	"strings"
)

// GenerateRequest is a single text-generation call.
type GenerateRequest struct {
	Model          string // provider-local model name, e.g. "gemini-2.0-flash"
	System         string // persona instruction for the stage's agent
	Prompt         string // composed user prompt
	ExpectedOutput string // advisory hint describing the desired shape; not parsed or enforced
	APIKey         string // optional per-request credential override
}

// userContent renders the prompt plus the advisory output hint.
func (r *GenerateRequest) userContent() string {
	if r.ExpectedOutput == "" {
		return r.Prompt
	}
	return r.Prompt + "\n\nExpected output: " + r.ExpectedOutput
}

// Provider is a single backend capable of turning a prompt into text.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}

// Generator is the capability handed to the stage runner. A Provider
// satisfies it directly; Chain wraps several provider/model identifiers
// behind the same call.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}

// GenerationError reports a failed generation call, carrying the provider
// message so the run record can surface it.
type GenerationError struct {
	Provider string
	Model    string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: model %q: %v", e.Provider, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ParseModelID splits a "provider/model" identifier.
func ParseModelID(modelID string) (providerName, modelName string, err error) {
	parts := strings.SplitN(modelID, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid model ID %q: expected format 'provider/model'", modelID)
	}
	return parts[0], parts[1], nil
}
