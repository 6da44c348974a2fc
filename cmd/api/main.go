package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/mkotelnikov/org-assistant/internal/adapters/http"
	"github.com/mkotelnikov/org-assistant/internal/bootstrap"
	"github.com/mkotelnikov/org-assistant/internal/config"
	"github.com/mkotelnikov/org-assistant/internal/observability/logging"
	"github.com/mkotelnikov/org-assistant/internal/observability/metrics"
)

const service = "api"

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

	chatMetrics := metrics.NewChatMetrics(service)
	router := httpadapter.NewRouter(service, app.ChatUC, app.Retriever, app.TurnLog, app.Queue, chatMetrics).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Serve immediately; /v1/chat answers 503 until the index is ready.
	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	go func() {
		if err := app.Retriever.Initialize(ctx); err != nil {
			logger.Error("index initialization failed", "error", err.Error())
			return
		}
		logger.Info("index ready")
	}()

	go func() {
		err := app.Queue.SubscribeReindex(ctx, func(ctx context.Context, reason string) error {
			logger.Info("reindex requested", "reason", reason)
			return app.Retriever.Rebuild(ctx)
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("reindex subscription failed", "error", err.Error())
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err.Error())
	}
}
