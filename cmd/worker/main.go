package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rulevii/compliance-rag/internal/bootstrap"
	"github.com/rulevii/compliance-rag/internal/config"
	"github.com/rulevii/compliance-rag/internal/infrastructure/queue/nats"
	"github.com/rulevii/compliance-rag/internal/observability/logging"
	"github.com/rulevii/compliance-rag/internal/observability/metrics"
)

const serviceName = "rag-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg,
		bootstrap.WithLogger(logger),
		bootstrap.WithBreakerListener(workerMetrics.Resilience().ObserveBreakerState),
	)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           metricsMux(workerMetrics),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject, "metrics_port", cfg.WorkerMetricsPort)
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		if publishedAt, ok := nats.PublishedAt(handlerCtx); ok {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(publishedAt))
		}

		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		workerMetrics.StartDocument()
		started := time.Now()
		err := app.ProcessUC.ProcessByID(processCtx, documentID)
		workerMetrics.FinishDocument(serviceName, time.Since(started), err)
		if err != nil {
			return err
		}

		doc, err := app.Repo.GetByID(processCtx, documentID)
		if err != nil {
			logger.Warn("processed document not readable", "document_id", documentID, "error", err)
			return nil
		}
		workerMetrics.RecordChunks(serviceName, doc.LawCode, doc.ChunkCount)
		logger.Info("document indexed", "document_id", documentID, "law_code", doc.LawCode, "chunks", doc.ChunkCount)
		return nil
	})
	if err != nil {
		logger.Error("worker subscribe error", "error", err)
		os.Exit(1)
	}
}

func metricsMux(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
