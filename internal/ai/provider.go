package ai

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// ProviderConfig selects and configures one LLM backend.
type ProviderConfig struct {
	Name      string
	Model     string
	APIKey    string
	AWSRegion string
}

// NewProvider builds the configured provider. It returns (nil, nil) for
// "none" or an empty name; callers then answer with deterministic prompts.
func NewProvider(ctx context.Context, cfg ProviderConfig) (LLMProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "", "none":
		return nil, nil
	case "gemini":
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.Model)
	case "bedrock":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("bedrock: load aws config: %w", err)
		}
		return NewBedrockProvider(awsCfg, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Name)
	}
}

// normalizeTurns drops empty and leading assistant turns and merges
// consecutive turns of the same role, so the result starts and ends with a
// user turn and alternates. Gemini and Bedrock reject other shapes.
func normalizeTurns(in []Message) []Message {
	out := make([]Message, 0, len(in))
	for _, m := range in {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		role := RoleUser
		if m.Role == RoleAssistant {
			role = RoleAssistant
		}
		if len(out) == 0 && role == RoleAssistant {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content += "\n" + text
			continue
		}
		out = append(out, Message{Role: role, Content: text})
	}
	for len(out) > 0 && out[len(out)-1].Role == RoleAssistant {
		out = out[:len(out)-1]
	}
	return out
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
