package agent

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ChatCompletionAPI is the slice of the go-openai client OpenAIModel uses.
type ChatCompletionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIModel calls any OpenAI-compatible chat completions endpoint.
type OpenAIModel struct {
	client    ChatCompletionAPI
	inference Inference
}

// NewOpenAIModel wraps a chat completions client.
func NewOpenAIModel(client ChatCompletionAPI, inference Inference) *OpenAIModel {
	return &OpenAIModel{client: client, inference: inference}
}

// NewOpenAIClient builds a go-openai client, pointing it at baseURL when set.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Invoke implements Model.
func (m *OpenAIModel) Invoke(ctx context.Context, conv Conversation, query string) (Answer, error) {
	msgs := conv.WithQuery(query)
	req := openai.ChatCompletionRequest{
		Model:     conv.ModelID(),
		Messages:  make([]openai.ChatCompletionMessage, len(msgs)),
		MaxTokens: m.inference.MaxTokens,
	}
	if m.inference.Temperature != nil {
		req.Temperature = *m.inference.Temperature
	}
	for i, msg := range msgs {
		req.Messages[i] = openai.ChatCompletionMessage{Role: openAIRole(msg.Role), Content: msg.Text}
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Answer{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Answer{}, errors.New("openai chat completion: no choices in response")
	}

	choice := resp.Choices[0]
	answer := Answer{
		StopReason: string(choice.FinishReason),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	if choice.Message.Content != "" {
		answer.Content = append(answer.Content, ContentBlock{Kind: BlockText, Text: choice.Message.Content})
	}
	for range choice.Message.ToolCalls {
		answer.Content = append(answer.Content, ContentBlock{Kind: BlockToolUse})
	}
	return answer, nil
}

func openAIRole(r Role) string {
	switch r {
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
