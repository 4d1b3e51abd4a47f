package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatServer(t *testing.T, reply string, got *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  got.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 900, "completion_tokens": 25, "total_tokens": 925},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIModel_RoundTrip(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := newChatServer(t, "Yes, the GoPro HERO12 has clean HDMI with the Media Mod.", &got)

	model := NewOpenAIModel(NewOpenAIClient("test-key", srv.URL), Inference{MaxTokens: 256})
	answer, err := model.Invoke(context.Background(), testConversation(), "GoPro HERO12")
	require.NoError(t, err)

	assert.Equal(t, "Yes, the GoPro HERO12 has clean HDMI with the Media Mod.", answer.Text())
	assert.Equal(t, "stop", answer.StopReason)
	assert.Equal(t, Usage{InputTokens: 900, OutputTokens: 25}, answer.Usage)

	assert.Equal(t, testModelID, got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[1].Role)
	assert.Equal(t, "GoPro HERO12", got.Messages[2].Content)
}

func TestOpenAIModel_EmptyContent(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := newChatServer(t, "", &got)

	answer, err := NewOpenAIModel(NewOpenAIClient("k", srv.URL), Inference{}).Invoke(context.Background(), testConversation(), "q")
	require.NoError(t, err)
	assert.Equal(t, "", answer.Text())
}

type stubChat struct {
	resp openai.ChatCompletionResponse
	err  error
}

func (s stubChat) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return s.resp, s.err
}

func TestOpenAIModel_NoChoices(t *testing.T) {
	_, err := NewOpenAIModel(stubChat{}, Inference{}).Invoke(context.Background(), testConversation(), "q")
	assert.Error(t, err)
}

func TestOpenAIModel_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewOpenAIModel(NewOpenAIClient("k", srv.URL), Inference{}).Invoke(context.Background(), testConversation(), "q")
	assert.Error(t, err)
}
