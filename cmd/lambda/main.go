package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"camcheck/internal/app"
	"camcheck/internal/config"
	"camcheck/internal/transport"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	path := os.Getenv("CAMCHECK_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	model, err := app.NewModel(context.Background(), cfg)
	if err != nil {
		logger.Error("build model", "error", err)
		os.Exit(1)
	}
	a, err := app.New(cfg, model, logger)
	if err != nil {
		logger.Error("init", "error", err)
		os.Exit(1)
	}

	adapter := transport.NewLambdaAdapter(a.MCP, a.Invocation)
	lambda.Start(adapter.Handle)
}
