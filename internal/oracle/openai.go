package oracle

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/v0xg/vistest/internal/fault"
)

// OpenAI is a vision oracle backed by OpenAI's vision-capable models.
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI creates an OpenAI oracle client.
func NewOpenAI(model string) (*OpenAI, error) {
	apiKey := os.Getenv("VISTEST_OPENAI_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("VISTEST_OPENAI_KEY or OPENAI_API_KEY environment variable required")
	}

	client := openai.NewClient(apiKey)

	if model == "" {
		model = "gpt-4o"
	}

	return &OpenAI{
		client:  client,
		model:   model,
		timeout: defaultTimeout,
	}, nil
}

// AskText sends the screenshot plus prompt and returns the text answer.
func (o *OpenAI) AskText(ctx context.Context, image []byte, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
		MaxTokens: 1024,
	})
	if err != nil {
		return "", fault.Wrap(fault.Oracle, err, "OpenAI API error")
	}

	if len(resp.Choices) == 0 {
		return "", fault.New(fault.Oracle, "empty response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// AskJSON sends the screenshot plus prompt and decodes a JSON object answer.
func (o *OpenAI) AskJSON(ctx context.Context, image []byte, prompt string) (map[string]any, error) {
	return askJSON(ctx, o, image, prompt)
}

// Complete answers a text-only prompt, used by the scenario parser fallback.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens: 1024,
	})
	if err != nil {
		return "", fault.Wrap(fault.Oracle, err, "OpenAI API error")
	}
	if len(resp.Choices) == 0 {
		return "", fault.New(fault.Oracle, "empty response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}
