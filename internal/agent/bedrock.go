package agent

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// ConverseAPI is the slice of the Bedrock Runtime client BedrockModel uses.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Inference holds optional sampling limits. Zero values leave the provider
// defaults in place.
type Inference struct {
	MaxTokens   int
	Temperature *float32
}

// BedrockModel calls the Bedrock Converse API.
type BedrockModel struct {
	client    ConverseAPI
	inference Inference
}

// NewBedrockModel wraps a Converse client.
func NewBedrockModel(client ConverseAPI, inference Inference) *BedrockModel {
	return &BedrockModel{client: client, inference: inference}
}

// NewBedrockModelFromConfig builds the Bedrock Runtime client from AWS config.
func NewBedrockModelFromConfig(cfg aws.Config, inference Inference) *BedrockModel {
	return NewBedrockModel(bedrockruntime.NewFromConfig(cfg), inference)
}

// Invoke implements Model.
func (m *BedrockModel) Invoke(ctx context.Context, conv Conversation, query string) (Answer, error) {
	out, err := m.client.Converse(ctx, m.converseInput(conv, query))
	if err != nil {
		return Answer{}, fmt.Errorf("bedrock converse: %w", err)
	}

	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return Answer{}, fmt.Errorf("bedrock converse: unexpected output %T", out.Output)
	}

	answer := Answer{StopReason: string(out.StopReason)}
	for _, block := range msg.Value.Content {
		switch b := block.(type) {
		case *brtypes.ContentBlockMemberText:
			answer.Content = append(answer.Content, ContentBlock{Kind: BlockText, Text: b.Value})
		case *brtypes.ContentBlockMemberToolUse:
			answer.Content = append(answer.Content, ContentBlock{Kind: BlockToolUse})
		default:
			answer.Content = append(answer.Content, ContentBlock{Kind: BlockOther})
		}
	}
	if out.Usage != nil {
		answer.Usage = Usage{
			InputTokens:  int(aws.ToInt32(out.Usage.InputTokens)),
			OutputTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
		}
	}
	return answer, nil
}

// converseInput maps the conversation onto Converse: system messages go to
// the System field and consecutive turns of the same role are merged into
// one message, since Converse requires roles to alternate.
func (m *BedrockModel) converseInput(conv Conversation, query string) *bedrockruntime.ConverseInput {
	in := &bedrockruntime.ConverseInput{ModelId: aws.String(conv.ModelID())}

	for _, msg := range conv.WithQuery(query) {
		if msg.Role == RoleSystem {
			in.System = append(in.System, &brtypes.SystemContentBlockMemberText{Value: msg.Text})
			continue
		}
		role := brtypes.ConversationRoleUser
		if msg.Role == RoleAssistant {
			role = brtypes.ConversationRoleAssistant
		}
		block := &brtypes.ContentBlockMemberText{Value: msg.Text}
		if n := len(in.Messages); n > 0 && in.Messages[n-1].Role == role {
			in.Messages[n-1].Content = append(in.Messages[n-1].Content, block)
			continue
		}
		in.Messages = append(in.Messages, brtypes.Message{Role: role, Content: []brtypes.ContentBlock{block}})
	}

	if m.inference.MaxTokens > 0 || m.inference.Temperature != nil {
		cfg := &brtypes.InferenceConfiguration{Temperature: m.inference.Temperature}
		if m.inference.MaxTokens > 0 {
			cfg.MaxTokens = aws.Int32(int32(m.inference.MaxTokens))
		}
		in.InferenceConfig = cfg
	}
	return in
}
