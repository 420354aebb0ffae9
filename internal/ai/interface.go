package ai

import (
	"context"
	"errors"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrEmptyResponse = errors.New("llm returned an empty response")

// Message is one conversation turn sent to a provider.
type Message struct {
	Role    string
	Content string
}

// Request is a provider-neutral completion request.
// JSON asks the provider to return a single JSON object.
type Request struct {
	System      string
	Messages    []Message
	JSON        bool
	MaxTokens   int
	Temperature float32
}

// LLMProvider defines the contract for interacting with AI models.
// Gemini, OpenAI and Bedrock implementations are swapped by configuration.
type LLMProvider interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}
