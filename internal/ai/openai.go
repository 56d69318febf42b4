package ai

import (
	"context"
	"net/http"
	"strings"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type openAIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func (p *openAIProvider) Name() string {
	return "openai"
}

func (p *openAIProvider) Generate(ctx context.Context, model string, prompt string, opts Options) (string, error) {
	if p.apiKey == "" {
		return "", ErrUnavailable
	}
	// top_k is not part of the OpenAI API.
	return doChatCompletion(ctx, p.client, chatCall{
		name:     p.Name(),
		endpoint: strings.TrimRight(p.baseURL, "/") + "/chat/completions",
		apiKey:   p.apiKey,
		body: chatRequest{
			Model:       model,
			Messages:    []chatMsg{{Role: "user", Content: prompt}},
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
			MaxTokens:   opts.MaxTokens,
		},
	})
}

func createOpenAIFactory(args interface{}) (IProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	provider := &openAIProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		client:  http.DefaultClient,
	}
	return provider, nil
}

func init() {
	Register("openai", createOpenAIFactory)
}
