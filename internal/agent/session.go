package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Model is the remote language model. Invoke sends the base conversation
// followed by query and blocks until the provider replies.
type Model interface {
	Invoke(ctx context.Context, conv Conversation, query string) (Answer, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, conv Conversation, query string) (Answer, error)

// Invoke calls f.
func (f ModelFunc) Invoke(ctx context.Context, conv Conversation, query string) (Answer, error) {
	return f(ctx, conv, query)
}

// Logger abstracts structured logging. Compatible with *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Session answers queries against one fixed conversation. It holds no
// mutable state and is safe for concurrent use.
type Session struct {
	model  Model
	conv   Conversation
	logger Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Defaults to slog.Default().
func WithLogger(l Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession binds a model to a conversation.
func NewSession(model Model, conv Conversation, opts ...Option) (*Session, error) {
	if model == nil {
		return nil, errors.New("agent: model is required")
	}
	if conv.ModelID() == "" {
		return nil, errors.New("agent: model id is required")
	}
	s := &Session{model: model, conv: conv}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Conversation returns the base context the session was built with.
func (s *Session) Conversation() Conversation { return s.conv }

// Ask sends query to the model once. Provider errors are returned wrapped but
// otherwise untouched; there is no retry.
func (s *Session) Ask(ctx context.Context, query string) (Answer, error) {
	id := uuid.NewString()
	start := time.Now()
	s.logger.Debug("ask", "ask_id", id, "model", s.conv.ModelID(), "query_len", len(query))

	answer, err := s.model.Invoke(ctx, s.conv, query)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Error("model invoke failed", "ask_id", id, "model", s.conv.ModelID(), "duration_ms", elapsed.Milliseconds(), "err", err)
		return Answer{}, fmt.Errorf("invoke %s: %w", s.conv.ModelID(), err)
	}

	s.logger.Info("answered",
		"ask_id", id,
		"model", s.conv.ModelID(),
		"duration_ms", elapsed.Milliseconds(),
		"stop_reason", answer.StopReason,
		"input_tokens", answer.Usage.InputTokens,
		"output_tokens", answer.Usage.OutputTokens,
	)
	return answer, nil
}
