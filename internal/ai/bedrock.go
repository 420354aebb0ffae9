package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const DefaultBedrockModel = "meta.llama3-70b-instruct-v1:0"

// converseAPI is the subset of *bedrockruntime.Client used here.
type converseAPI interface {
	Converse(ctx context.Context, in *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider implements LLMProvider on the Bedrock Converse API.
type BedrockProvider struct {
	api   converseAPI
	model string
}

func NewBedrockProvider(cfg aws.Config, model string) *BedrockProvider {
	return newBedrockProvider(bedrockruntime.NewFromConfig(cfg), model)
}

func newBedrockProvider(api converseAPI, model string) *BedrockProvider {
	if model == "" {
		model = DefaultBedrockModel
	}
	return &BedrockProvider{api: api, model: model}
}

func (p *BedrockProvider) Name() string { return "bedrock" }

func (p *BedrockProvider) Generate(ctx context.Context, req Request) (string, error) {
	turns := normalizeTurns(req.Messages)
	if len(turns) == 0 {
		return "", fmt.Errorf("bedrock: no user message")
	}

	msgs := make([]types.Message, 0, len(turns))
	for _, m := range turns {
		role := types.ConversationRoleUser
		if m.Role == RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		msgs = append(msgs, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
		})
	}

	system := req.System
	if req.JSON {
		system += "\n\nRespond with a single JSON object and nothing else."
	}
	in := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(p.model),
		Messages: msgs,
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(req.Temperature),
		},
	}
	if strings.TrimSpace(system) != "" {
		in.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: system}}
	}
	if req.MaxTokens > 0 {
		in.InferenceConfig.MaxTokens = aws.Int32(int32(req.MaxTokens))
	}

	out, err := p.api.Converse(ctx, in)
	if err != nil {
		return "", fmt.Errorf("bedrock: converse: %w", err)
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("bedrock: unexpected output type %T", out.Output)
	}
	var b strings.Builder
	for _, block := range msg.Value.Content {
		if txt, ok := block.(*types.ContentBlockMemberText); ok {
			b.WriteString(txt.Value)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
