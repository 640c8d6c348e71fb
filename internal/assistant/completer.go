package assistant

import (
	"context"
	"fmt"
	"strings"
)

// Message is one entry of the ordered prompt sent to the completion API.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Completer produces one assistant reply for an ordered message list. An
// empty reply with a nil error means the model returned nothing usable;
// callers decide how to surface that.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Config controls completer construction.
type Config struct {
	Mode        string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

func NewCompleter(cfg Config) (Completer, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewOpenAICompleter(cfg), nil
		}
		return NewMockCompleter(), nil
	case "openai":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("assistant API key is required for openai mode")
		}
		return NewOpenAICompleter(cfg), nil
	case "mock":
		return NewMockCompleter(), nil
	default:
		return nil, fmt.Errorf("unsupported assistant mode %q", cfg.Mode)
	}
}
