package insight

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Generator produces model text for a system framing and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// AnthropicGenerator calls the Anthropic Messages API.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicGenerator builds a generator for the given API key and model.
func NewAnthropicGenerator(apiKey, model string, maxTokens int64) *AnthropicGenerator {
	return &AnthropicGenerator{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Generate sends one message and returns the first text block of the reply.
// Errors, including rate-limit rejections, pass through unmodified inside
// the wrap so callers can still inspect them with errors.As.
func (g *AnthropicGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("insight: generate: %w", err)
	}
	if len(msg.Content) == 0 {
		return "", fmt.Errorf("insight: empty model response")
	}
	return msg.Content[0].Text, nil
}

// IsRateLimited reports whether err is an upstream HTTP 429 rejection.
func IsRateLimited(err error) bool {
	var apiErr *anthropic.Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
