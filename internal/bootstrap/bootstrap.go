package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/mkotelnikov/org-assistant/internal/config"
	"github.com/mkotelnikov/org-assistant/internal/core/ports"
	"github.com/mkotelnikov/org-assistant/internal/core/usecase"
	"github.com/mkotelnikov/org-assistant/internal/infrastructure/chunking"
	"github.com/mkotelnikov/org-assistant/internal/infrastructure/corpus"
	"github.com/mkotelnikov/org-assistant/internal/infrastructure/language"
	"github.com/mkotelnikov/org-assistant/internal/infrastructure/llm/openai"
	"github.com/mkotelnikov/org-assistant/internal/infrastructure/queue/nats"
	"github.com/mkotelnikov/org-assistant/internal/infrastructure/repository/postgres"
	"github.com/mkotelnikov/org-assistant/internal/infrastructure/resilience"
	"github.com/mkotelnikov/org-assistant/internal/infrastructure/vector/flat"
)

// App holds the wired dependency graph shared by the api and indexer
// binaries.
type App struct {
	Config config.Config

	Retriever ports.Retriever
	ChatUC    ports.ChatService
	TurnLog   ports.TurnLogStore
	Queue     *nats.Queue

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	manifest, err := config.LoadManifest(cfg.CorpusManifestPath)
	if err != nil {
		return nil, err
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	client := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIChatModel, cfg.OpenAIEmbedModel, executor)
	embedder := openai.NewEmbedder(client)
	completer := openai.NewCompleter(client)
	translator := openai.NewTranslator(client, cfg.DefaultLocale)
	detector := language.NewDetector(cfg.DefaultLocale)

	pages := make([]corpus.Page, 0, len(manifest.Pages))
	for _, p := range manifest.Pages {
		pages = append(pages, corpus.Page{Name: p.Name, URL: p.URL})
	}
	dirs := manifest.Dirs
	if cfg.ResourcesDir != "" {
		dirs = append(dirs, cfg.ResourcesDir)
	}
	fetcher := corpus.NewFetcher(pages, dirs, rate.NewLimiter(rate.Limit(1), 1), logger)

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	gate := usecase.NewRelevanceGate(cfg.RelevantTopics)

	retriever := usecase.NewRetrievalEngine(
		fetcher,
		chunker,
		embedder,
		func() ports.VectorIndex { return flat.New() },
		gate,
		usecase.RetrievalOptions{
			SnapshotDir:    cfg.SnapshotDir,
			EmbedBatchSize: cfg.EmbedBatchSize,
			EmbedRate:      rate.NewLimiter(rate.Limit(cfg.EmbedRatePerSec), cfg.EmbedBatchSize),
			Refusal:        cfg.OffTopicReply,
		},
		logger,
	)

	var turnLog ports.TurnLogStore
	closeDB := func() {}
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewTurnLogRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		turnLog = repo
		closeDB = func() { _ = db.Close() }
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSReindexSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("init reindex queue: %w", err)
	}

	chatUC := usecase.NewChatUseCase(
		retriever,
		completer,
		translator,
		detector,
		usecase.NewSessionStore(),
		turnLog,
		usecase.ChatConfig{
			DefaultLocale: cfg.DefaultLocale,
			HistoryWindow: cfg.HistoryWindow,
			RetrievalTopK: cfg.RetrievalTopK,
		},
		nil,
		logger,
	)

	return &App{
		Config:    cfg,
		Retriever: retriever,
		ChatUC:    chatUC,
		TurnLog:   turnLog,
		Queue:     queue,

		closeFn: func() {
			queue.Close()
			closeDB()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
