package oracle

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/v0xg/vistest/internal/fault"
)

// Claude is a vision oracle backed by Anthropic's Claude models.
type Claude struct {
	client  *anthropic.Client
	model   string
	timeout time.Duration
}

// NewClaude creates a Claude oracle client.
func NewClaude(model string) (*Claude, error) {
	apiKey := os.Getenv("VISTEST_ANTHROPIC_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("VISTEST_ANTHROPIC_KEY or ANTHROPIC_API_KEY environment variable required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &Claude{
		client:  &client,
		model:   model,
		timeout: defaultTimeout,
	}, nil
}

// AskText sends the screenshot plus prompt and returns the text answer.
func (c *Claude) AskText(ctx context.Context, image []byte, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	encoded := base64.StdEncoding.EncodeToString(image)

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64("image/png", encoded),
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		return "", fault.Wrap(fault.Oracle, err, "Claude API error")
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fault.New(fault.Oracle, "empty response from Claude")
}

// AskJSON sends the screenshot plus prompt and decodes a JSON object answer.
func (c *Claude) AskJSON(ctx context.Context, image []byte, prompt string) (map[string]any, error) {
	return askJSON(ctx, c, image, prompt)
}

// Complete answers a text-only prompt, used by the scenario parser fallback.
func (c *Claude) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fault.Wrap(fault.Oracle, err, "Claude API error")
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fault.New(fault.Oracle, "empty response from Claude")
}
