package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/rulevii/compliance-rag/internal/adapters/mcp"
	"github.com/rulevii/compliance-rag/internal/bootstrap"
	"github.com/rulevii/compliance-rag/internal/config"
	"github.com/rulevii/compliance-rag/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg := config.Load()
	// stdout carries the protocol.
	logger := logging.NewLogger(os.Stderr, "rag-mcp", cfg.LogLevel, "json")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.WithLogger(logger), bootstrap.WithInlineIngest())
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	handlers := mcpadapter.NewHandlers(app.Retriever, app.LookupUC, app.Router, cfg.RAGMaxRoutedLawCodes, logger)
	srv := mcpadapter.NewServer("compliance-rag", version, handlers)

	logger.Info("mcp server ready on stdio")
	if err := server.ServeStdio(srv); err != nil {
		logger.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
