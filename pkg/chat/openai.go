package chat

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI generates replies with an OpenAI-compatible chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

var _ Generator = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI generator. apiKey must not be empty.
func NewOpenAI(apiKey string, opts ...Option) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("chat: openai api key is required")
	}
	cfg := newConfig(DefaultOpenAIModel, opts)
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.httpClient),
		option.WithMaxRetries(1),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	client := openai.NewClient(clientOpts...)
	return &OpenAI{client: &client, model: cfg.model}, nil
}

func (o *OpenAI) Generate(ctx context.Context, system, prompt string) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("chat: openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
