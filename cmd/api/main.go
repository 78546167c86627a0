package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/rulevii/compliance-rag/internal/adapters/http"
	"github.com/rulevii/compliance-rag/internal/bootstrap"
	"github.com/rulevii/compliance-rag/internal/config"
	"github.com/rulevii/compliance-rag/internal/observability/logging"
	"github.com/rulevii/compliance-rag/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("rag-api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("rag-api")
	app, err := bootstrap.New(ctx, cfg,
		bootstrap.WithLogger(logger),
		bootstrap.WithRetrievalObserver(httpMetrics.Retrieval()),
		bootstrap.WithBreakerListener(httpMetrics.Retrieval().ObserveBreakerState),
	)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	routerOpts := []httpadapter.RouterOption{
		httpadapter.WithMetrics(httpMetrics),
		httpadapter.WithLogger(logger),
	}
	if cfg.APIValidateRequests {
		validator, err := httpadapter.NewRequestValidator()
		if err != nil {
			logger.Error("load openapi document", "error", err)
			os.Exit(1)
		}
		routerOpts = append(routerOpts, httpadapter.WithValidator(validator))
	}

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Retriever: app.Retriever,
		Query:     app.QueryUC,
		Lookup:    app.LookupUC,
		Ingest:    app.IngestUC,
		Documents: app.Repo,
		LawRouter: app.Router,
	}, routerOpts...)

	server := &http.Server{
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		logger.Error("listen failed", "port", cfg.APIPort, "error", err)
		os.Exit(1)
	}
	if cfg.APIMaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.APIMaxConnections)
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort, "vector_backend", cfg.VectorBackend, "max_connections", cfg.APIMaxConnections)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
