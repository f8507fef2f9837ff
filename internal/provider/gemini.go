package provider

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

// GeminiProvider uses the google.golang.org/genai Go SDK directly for text
// generation against the Gemini API.
type GeminiProvider struct {
	name    string
	apiKey  string
	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGeminiProvider creates a native Gemini adapter for the given provider name.
func NewGeminiProvider(providerName, apiKey string) *GeminiProvider {
	return &GeminiProvider{name: providerName, apiKey: apiKey}
}

func (g *GeminiProvider) Name() string { return g.name }

func (g *GeminiProvider) ensureClient(ctx context.Context) error {
	g.once.Do(func() {
		g.client, g.initErr = newGeminiClient(ctx, g.apiKey)
	})
	return g.initErr
}

func newGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func (g *GeminiProvider) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	var client *genai.Client
	if req.APIKey != "" && req.APIKey != g.apiKey {
		// Per-request credential override gets its own client.
		c, err := newGeminiClient(ctx, req.APIKey)
		if err != nil {
			return "", g.wrap(req.Model, fmt.Errorf("client init failed: %w", err))
		}
		client = c
	} else {
		if err := g.ensureClient(ctx); err != nil {
			return "", g.wrap(req.Model, fmt.Errorf("client init failed: %w", err))
		}
		client = g.client
	}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.userContent()), cfg)
	if err != nil {
		return "", g.wrap(req.Model, err)
	}
	return extractGeminiText(resp), nil
}

func (g *GeminiProvider) wrap(model string, err error) error {
	return &GenerationError{Provider: g.name, Model: model, Err: err}
}

// extractGeminiText concatenates all text parts of the first candidate.
func extractGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.Text != "" {
			text += p.Text
		}
	}
	return text
}
