// Package invocation is the direct request/response entrypoint: a payload
// with a prompt goes in, {"result": "..."} comes out. It follows the
// AgentCore runtime HTTP contract (POST /invocations, GET /ping).
package invocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// ErrMissingPrompt is returned when the payload has no usable prompt. A
// prompt that is absent, null, not a string, or empty is rejected.
var ErrMissingPrompt = errors.New("prompt is required")

// Payload is the decoded request body.
type Payload map[string]any

// Prompt extracts the prompt field.
func (p Payload) Prompt() (string, error) {
	prompt, ok := p["prompt"].(string)
	if !ok || prompt == "" {
		return "", ErrMissingPrompt
	}
	return prompt, nil
}

// Response is the direct entrypoint's reply.
type Response struct {
	Result string `json:"result"`
}

// CameraChecker is the tool handler the entrypoint delegates to.
type CameraChecker interface {
	CheckCamera(ctx context.Context, cameraName string) (string, error)
}

// Logger abstracts structured logging. Compatible with *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Handler serves direct invocations.
type Handler struct {
	checker CameraChecker
	timeout time.Duration
	logger  Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithTimeout bounds each invocation. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// WithLogger sets the handler logger. Defaults to slog.Default().
func WithLogger(l Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// NewHandler creates a direct entrypoint delegating to checker.
func NewHandler(checker CameraChecker, opts ...Option) *Handler {
	h := &Handler{checker: checker}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Invoke answers one payload.
func (h *Handler) Invoke(ctx context.Context, payload Payload) (Response, error) {
	prompt, err := payload.Prompt()
	if err != nil {
		return Response{}, err
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	result, err := h.checker.CheckCamera(ctx, prompt)
	if err != nil {
		return Response{}, err
	}
	return Response{Result: result}, nil
}

// InvokeJSON decodes body, invokes, and returns the HTTP status and JSON
// value to send back. Shared by the HTTP server and the Lambda adapter.
func (h *Handler) InvokeJSON(ctx context.Context, body []byte) (int, any) {
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return http.StatusBadRequest, errorBody(fmt.Errorf("invalid JSON: %w", err))
	}

	resp, err := h.Invoke(ctx, payload)
	switch {
	case err == nil:
		return http.StatusOK, resp
	case errors.Is(err, ErrMissingPrompt):
		return http.StatusBadRequest, errorBody(err)
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Error("invocation timed out", "timeout", h.timeout.String(), "err", err)
		return http.StatusGatewayTimeout, errorBody(err)
	default:
		h.logger.Error("invocation failed", "err", err)
		return http.StatusInternalServerError, errorBody(err)
	}
}

// Mount registers the entrypoint routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/invocations", h.handleInvocations)
	r.Get("/ping", h.handlePing)
}

func (h *Handler) handleInvocations(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := readBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}
	status, payload := h.InvokeJSON(r.Context(), body)
	writeJSON(w, status, payload)
}

func (h *Handler) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, PingResponse())
}

// PingResponse is the health body expected by the AgentCore runtime.
func PingResponse() map[string]string {
	return map[string]string{"status": "Healthy"}
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}
