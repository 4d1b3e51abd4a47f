package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camcheck/internal/agent"
	"camcheck/internal/config"
	"camcheck/pkg/mcpserver"
)

const testList = `[{"brand":"Canon","model":"EOS R5","clean_hdmi":true}]`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedModel answers "<query> supports HDMI" and records what it saw.
type scriptedModel struct {
	queries []string
	conv    agent.Conversation
}

func (m *scriptedModel) Invoke(_ context.Context, conv agent.Conversation, query string) (agent.Answer, error) {
	m.queries = append(m.queries, query)
	m.conv = conv
	return agent.TextAnswer(query + " supports HDMI"), nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cameras.json")
	require.NoError(t, os.WriteFile(path, []byte(testList), 0o644))
	cfg := config.Default()
	cfg.Agent.ReferencePath = path
	return cfg
}

func TestNew_WiresReferenceIntoConversation(t *testing.T) {
	model := &scriptedModel{}
	a, err := New(testConfig(t), model, discardLogger())
	require.NoError(t, err)

	_, err = a.Session.Ask(context.Background(), "Canon R5")
	require.NoError(t, err)

	msgs := model.conv.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, agent.ReferencePreamble+testList, msgs[1].Text)
	assert.Equal(t, "amazon.nova-lite-v1:0", model.conv.ModelID())
}

func TestNew_MissingReferenceFails(t *testing.T) {
	cfg := config.Default()
	cfg.Agent.ReferencePath = filepath.Join(t.TempDir(), "missing.json")

	a, err := New(cfg, &scriptedModel{}, discardLogger())
	assert.Error(t, err)
	assert.Nil(t, a)
}

func TestRouter_DirectAndToolAgree(t *testing.T) {
	model := &scriptedModel{}
	a, err := New(testConfig(t), model, discardLogger())
	require.NoError(t, err)
	router := a.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/invocations", bytes.NewReader([]byte(`{"prompt":"Canon R5"}`))))
	require.Equal(t, http.StatusOK, w.Code)
	var direct struct{ Result string }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &direct))

	body, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "tools/call",
		"params": map[string]any{"name": "check_camera", "arguments": map[string]any{"camera_name": "Canon R5"}},
	})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	var rpc mcpserver.JSONRPCResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rpc))
	require.Nil(t, rpc.Error)
	var tool mcpserver.ToolResult
	require.NoError(t, json.Unmarshal(rpc.Result, &tool))

	assert.Equal(t, "Canon R5 supports HDMI", direct.Result)
	assert.Equal(t, direct.Result, tool.FirstText())
	assert.Equal(t, []string{"Canon R5", "Canon R5"}, model.queries)
}

func TestRouter_HealthEndpoints(t *testing.T) {
	a, err := New(testConfig(t), &scriptedModel{}, discardLogger())
	require.NoError(t, err)
	router := a.Router()

	for path, want := range map[string]string{
		"/ping":    `{"status":"Healthy"}`,
		"/healthz": `{"status":"ok"}`,
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, want, w.Body.String(), path)
	}
}

func TestNewModel_OpenAI(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Provider = config.ProviderOpenAI
	cfg.OpenAI.APIKey = "sk-test"

	model, err := NewModel(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &agent.OpenAIModel{}, model)
}

func TestNewModel_Bedrock(t *testing.T) {
	cfg := config.Default()
	model, err := NewModel(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &agent.BedrockModel{}, model)
}

func TestNewModel_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Provider = "local"
	_, err := NewModel(context.Background(), cfg)
	assert.Error(t, err)
}
