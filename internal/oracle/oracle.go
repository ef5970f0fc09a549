// Package oracle talks to a hosted vision model about screenshots: bounding
// boxes, selectors, yes/no questions. Clients are stateless beyond their
// configuration and safe for concurrent use.
package oracle

import (
	"context"
	"fmt"
	"time"
)

// Oracle answers questions about a screenshot.
type Oracle interface {
	// AskJSON asks for a strictly JSON-shaped answer and returns the
	// decoded object after best-effort repair of near-JSON output.
	AskJSON(ctx context.Context, image []byte, prompt string) (map[string]any, error)
	// AskText asks for a free-text answer.
	AskText(ctx context.Context, image []byte, prompt string) (string, error)
}

// Completer is the image-free completion used by the scenario parser
// fallback. Both clients implement it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const systemPrompt = "You are a helpful assistant specialized in analyzing web page screenshots. Provide precise, direct answers."

const jsonOnlySuffix = "\nImportant: Return ONLY valid JSON without any commentary, explanation or surrounding text."

const defaultTimeout = 60 * time.Second

// New creates an oracle client for the named provider.
func New(provider, model string) (Oracle, error) {
	switch provider {
	case "claude", "anthropic":
		return NewClaude(model)
	case "openai", "gpt":
		return NewOpenAI(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", provider)
	}
}

type textAsker interface {
	AskText(ctx context.Context, image []byte, prompt string) (string, error)
}

func askJSON(ctx context.Context, t textAsker, image []byte, prompt string) (map[string]any, error) {
	raw, err := t.AskText(ctx, image, prompt+jsonOnlySuffix)
	if err != nil {
		return nil, err
	}
	return decodeObject(raw)
}
