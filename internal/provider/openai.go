package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const openaiDefaultBaseURL = "https://api.openai.com/v1"

// OpenAIProvider calls the OpenAI Chat Completions API. It also works with
// OpenAI-compatible endpoints such as Ollama and LM Studio via a custom
// base URL.
type OpenAIProvider struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithBaseURL points the provider at an OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) { p.baseURL = url }
}

// WithName overrides the provider's registry name (default "openai").
func WithName(name string) OpenAIOption {
	return func(p *OpenAIProvider) { p.name = name }
}

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(p *OpenAIProvider) { p.client = client }
}

func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{
		name:    "openai",
		baseURL: openaiDefaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	messages := []map[string]string{}
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.userContent()})

	body := map[string]any{
		"model":    req.Model,
		"messages": messages,
		"stream":   false,
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", p.wrap(req.Model, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return "", p.wrap(req.Model, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if key := p.key(req); key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", p.wrap(req.Model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", p.wrap(req.Model, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody)))
	}

	var apiResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", p.wrap(req.Model, fmt.Errorf("decode response: %w", err))
	}
	if len(apiResp.Choices) == 0 {
		return "", p.wrap(req.Model, fmt.Errorf("no choices in response"))
	}

	return apiResp.Choices[0].Message.Content, nil
}

// key returns the per-request override when set, else the configured key.
func (p *OpenAIProvider) key(req *GenerateRequest) string {
	if req.APIKey != "" {
		return req.APIKey
	}
	return p.apiKey
}

func (p *OpenAIProvider) wrap(model string, err error) error {
	return &GenerationError{Provider: p.name, Model: model, Err: err}
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
}

type openAIChoice struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}
