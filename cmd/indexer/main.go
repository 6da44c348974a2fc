package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkotelnikov/org-assistant/internal/bootstrap"
	"github.com/mkotelnikov/org-assistant/internal/config"
	"github.com/mkotelnikov/org-assistant/internal/core/usecase"
	"github.com/mkotelnikov/org-assistant/internal/observability/logging"
	"github.com/mkotelnikov/org-assistant/internal/observability/metrics"
)

const service = "indexer"

// The indexer rebuilds the corpus index from scratch, writes the snapshot and
// notifies running api instances over the queue. Intended to run on corpus
// updates, from a scheduler or by hand.
func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewIndexerMetrics(service)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.IndexerMetricsPort,
		Handler: m.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err.Error())
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	start := time.Now()
	if err := app.Retriever.Rebuild(ctx); err != nil {
		m.ObserveBuild(service, "error", time.Since(start))
		log.Fatalf("index rebuild failed: %v", err)
	}
	m.ObserveBuild(service, "ok", time.Since(start))
	if eng, ok := app.Retriever.(*usecase.RetrievalEngine); ok {
		stats := eng.Stats()
		m.SetChunksIndexed(stats.Chunks)
		m.AddSourcesSkipped(service, stats.SourcesSkipped)
	}
	logger.Info("index rebuilt", "elapsed", time.Since(start).String())

	if err := app.Queue.PublishReindex(ctx, "snapshot-updated"); err != nil {
		logger.Warn("reindex notification failed", "error", err.Error())
	}
}
