package chat

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Gemini generates replies with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Generator = (*Gemini)(nil)

// NewGemini creates a Gemini generator. apiKey must not be empty.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("chat: gemini api key is required")
	}
	cfg := newConfig(DefaultGeminiModel, opts)
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.httpClient,
	}
	if cfg.baseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.baseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("chat: genai client: %w", err)
	}
	return &Gemini{client: client, model: cfg.model}, nil
}

func (g *Gemini) Generate(ctx context.Context, system, prompt string) (string, error) {
	var gc *genai.GenerateContentConfig
	if system != "" {
		gc = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), gc)
	if err != nil {
		return "", fmt.Errorf("chat: gemini generate: %w", err)
	}
	return resp.Text(), nil
}
