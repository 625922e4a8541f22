package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	api "mailsift-backend/cmd/api"
	emailRepo "mailsift-backend/internal/email/repository"
	emailUsecase "mailsift-backend/internal/email/usecase"
	"mailsift-backend/pkg/ai"
	"mailsift-backend/pkg/config"
	"mailsift-backend/pkg/database"
	"mailsift-backend/pkg/gmail"
	"mailsift-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	// Store is optional; without one the pipeline runs degraded
	store := openStore(ctx, cfg)
	gateway := emailRepo.NewGateway(store)

	// Remote mailbox
	gmailService := gmail.NewService(cfg.GmailCallTimeout)
	fetcher := emailUsecase.NewFetchCoordinator(gmailService, cfg.FetchConcurrency, cfg.SyncBatchTimeout)

	// Settings API doubles as the runtime source of Ollama config
	settings := api.NewSettingsHandler(cfg.OllamaBaseURL, cfg.OllamaModel)

	// AI engine, initialized lazily on first use
	provider := ai.ProviderType(cfg.AIProvider)
	var factory ai.GeneratorFactory
	if provider == ai.ProviderGemini && cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set, classification and summaries use fallbacks")
	} else {
		aiCfg := ai.Config{
			Provider:         provider,
			GeminiAPIKey:     cfg.GeminiAPIKey,
			GeminiModel:      cfg.GeminiModelName,
			GetOllamaBaseURL: settings.BaseURL,
			GetOllamaModel:   settings.Model,
		}
		factory = func(ctx context.Context) (ai.TextGenerator, error) {
			return ai.NewGenerator(ctx, aiCfg)
		}
	}
	engine := ai.NewEngine(factory)

	// Background enrichment
	worker := emailUsecase.NewEnrichmentWorkerService(engine, gateway, cfg.EnrichmentWorkers, cfg.EnrichmentQueueSize, cfg.EnrichmentTimeout)
	worker.Start()

	emailUsecaseInstance := emailUsecase.NewEmailUsecase(gmailService, gateway, fetcher, worker, engine, cfg)

	// Initialize HTTP handler
	handler := api.NewHandler(emailUsecaseInstance, settings, cfg)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler.Router(),
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreBackend).Str("ai_provider", cfg.AIProvider).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	worker.Stop()
	if err := engine.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close model client")
	}
}

// openStore connects the configured backend. A failed connection yields nil.
func openStore(ctx context.Context, cfg *config.Config) emailRepo.MessageStore {
	switch cfg.StoreBackend {
	case config.StoreFirestore:
		client, err := database.NewFirestoreClient(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("firestore unavailable, persistence disabled")
			return nil
		}
		return emailRepo.NewFirestoreMessageStore(client)

	case config.StorePostgres:
		db, err := database.NewPostgresConnection(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("postgres unavailable, persistence disabled")
			return nil
		}
		if err := db.AutoMigrate(&emailRepo.UserScopeRow{}, &emailRepo.MessageRow{}); err != nil {
			log.Warn().Err(err).Msg("failed to migrate database, persistence disabled")
			return nil
		}
		return emailRepo.NewPostgresMessageStore(db)

	case config.StoreMemory:
		return emailRepo.NewMemoryMessageStore()

	case config.StoreNone:
		log.Warn().Msg("no store configured, persistence disabled")
		return nil

	default:
		log.Warn().Str("store", cfg.StoreBackend).Msg("unknown store backend, persistence disabled")
		return nil
	}
}
