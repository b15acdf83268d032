package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"phistack/internal/logging"
)

// OpenAIGenerator talks to an OpenAI-compatible completion endpoint, such as
// a local inference server serving the cached Phi artifact.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	logger *logging.Logger
}

// NewOpenAIGenerator creates a generator for endpoint. An empty endpoint
// targets the public OpenAI API.
func NewOpenAIGenerator(endpoint, apiKey, model string, logger *logging.Logger) *OpenAIGenerator {
	if logger == nil {
		logger = logging.Discard()
	}
	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = strings.TrimRight(endpoint, "/")
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

// Generate sends prompt as a single user message and returns the first choice.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		g.logger.Error("chat.generate.failed", "Completion request failed", map[string]interface{}{
			"model": g.model,
			"error": err.Error(),
		})
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	g.logger.Debug("chat.generate.done", "Completion received", map[string]interface{}{
		"model":         g.model,
		"finish_reason": string(resp.Choices[0].FinishReason),
		"total_tokens":  resp.Usage.TotalTokens,
	})
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
