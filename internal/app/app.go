// Package app assembles the service from configuration: reference list,
// agent session, check_camera tool, MCP server and direct entrypoint.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"camcheck/internal/agent"
	"camcheck/internal/config"
	"camcheck/internal/invocation"
	"camcheck/internal/reference"
	"camcheck/internal/tools"
	"camcheck/pkg/mcpserver"
)

const mcpInstructions = "Call check_camera with a camera model or brand to learn whether it supports realtime HDMI output according to the list of Elgato Tested Devices."

// App is the assembled service. All fields are read-only after New.
type App struct {
	Config     config.Config
	Reference  reference.List
	Session    *agent.Session
	Checker    *tools.CameraChecker
	MCP        *mcpserver.Server
	Invocation *invocation.Handler
	logger     *slog.Logger
}

// NewModel builds the remote model selected by cfg.Model.Provider.
func NewModel(ctx context.Context, cfg config.Config) (agent.Model, error) {
	inference := agent.Inference{MaxTokens: cfg.Model.MaxTokens, Temperature: cfg.Model.Temperature}

	switch cfg.Model.Provider {
	case config.ProviderBedrock:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Model.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return agent.NewBedrockModelFromConfig(awsCfg, inference), nil
	case config.ProviderOpenAI:
		return agent.NewOpenAIModel(agent.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL), inference), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

// New loads the reference list and wires every handler around model. It
// fails if the reference list cannot be read, so no handler is ever served
// without its context.
func New(cfg config.Config, model agent.Model, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ref, err := reference.Load(cfg.Agent.ReferencePath)
	if err != nil {
		return nil, err
	}
	logger.Info("reference list loaded", "path", ref.Path(), "bytes", ref.Len())

	conv := agent.NewConversation(cfg.Model.ID, agent.DefaultInstruction, ref)
	session, err := agent.NewSession(model, conv, agent.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	checker := tools.NewCameraChecker(session)

	opts := append(tools.ServerOptions(ref),
		mcpserver.WithServerInfo(cfg.Server.Name, cfg.Server.Version),
		mcpserver.WithInstructions(mcpInstructions),
		mcpserver.WithLogger(logger),
	)
	srv, err := mcpserver.New(opts...)
	if err != nil {
		return nil, err
	}
	if err := tools.RegisterAll(srv, checker, ref); err != nil {
		return nil, err
	}

	inv := invocation.NewHandler(checker,
		invocation.WithTimeout(cfg.Agent.RequestTimeout),
		invocation.WithLogger(logger),
	)

	return &App{
		Config:     cfg,
		Reference:  ref,
		Session:    session,
		Checker:    checker,
		MCP:        srv,
		Invocation: inv,
		logger:     logger,
	}, nil
}

// Router serves both front-ends on one listener:
//
//	POST /invocations  direct entrypoint
//	GET  /ping         runtime health
//	POST /mcp          MCP Streamable HTTP (DELETE ends a session)
//	GET  /healthz      MCP health
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	a.Invocation.Mount(r)

	mcp := a.MCP.HTTPHandler()
	var mr chi.Router = r
	if d := a.Config.Agent.RequestTimeout; d > 0 {
		mr = r.With(middleware.Timeout(d))
	}
	mr.Handle("/mcp", mcp)
	r.Handle("/healthz", mcp)
	return r
}
