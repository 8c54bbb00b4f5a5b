// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicebridge/internal/config"
	"voicebridge/internal/domain/ports/adapter"
	aiAdapters "voicebridge/internal/infra/adapters/ai"
	"voicebridge/internal/infra/adapters/transcribe"
	pg "voicebridge/internal/infra/db/postgres"
	"voicebridge/internal/infra/logging"
	"voicebridge/internal/infra/metrics"
	red "voicebridge/internal/infra/redis"
	tele "voicebridge/internal/infra/telegram"
	"voicebridge/internal/infra/web"
	"voicebridge/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	txManager := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	transcriptCache := red.NewTranscriptCache(redisClient, cfg.Redis.TTL)
	commandLimiter := red.NewCommandLimiter(redisClient, 10, time.Minute)

	// ---- Repositories ----
	accountRepo := pg.NewPostgresCreditAccountRepo(pool)
	trialRepo := pg.NewPostgresTrialRepo(pool)
	roleRepo := pg.NewPostgresRoleRepo(pool)
	statsRepo := pg.NewPostgresStatsRepo(pool)
	userUsageRepo := pg.NewPostgresUserUsageRepo(pool)
	witUsageRepo := pg.NewPostgresWitUsageRepo(pool)
	alertRepo := pg.NewPostgresAlertRepo(pool)
	linkRepo := pg.NewPostgresLinkRepo(pool)
	linkCodeRepo := pg.NewPostgresLinkCodeRepo(pool)
	linkAttemptRepo := pg.NewPostgresLinkAttemptRepo(pool)

	// ---- Telegram admin notifier ----
	notifier, err := tele.NewAdminNotifier(cfg.Bot.Token, cfg.Bot.AdminIDs, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram notifier")
	}

	// ---- Use cases ----
	creditUC := usecase.NewCreditUseCase(
		accountRepo, trialRepo, roleRepo, statsRepo, userUsageRepo, txManager,
		cfg.Credits.MonthlyFree, cfg.Credits.InitialGrant, cfg.Bot.AdminIDs, logger,
	)
	witUC := usecase.NewWitUsageUseCase(witUsageRepo, alertRepo, notifier, cfg.Wit.MonthlyFreeLimit, logger)
	linkingUC := usecase.NewLinkingUseCase(linkRepo, linkCodeRepo, linkAttemptRepo, txManager, logger)
	_ = linkingUC // consumed by the messaging surfaces

	// ---- Transcribers ----
	witTranscriber := transcribe.NewWitTranscriber(cfg.Wit.Tokens)
	groqTranscriber := transcribe.NewGroqTranscriber(cfg.AI.GroqKey, "whisper-large-v3")

	transcriptionUC := usecase.NewTranscriptionUseCase(
		creditUC, witUC, witTranscriber, groqTranscriber, transcriptCache, commandLimiter, logger,
	)
	_ = transcriptionUC // consumed by the messaging surfaces

	// ---- Generative fallback chain ----
	chain, err := buildChain(ctx, &cfg.AI)
	if err != nil {
		logger.Fatal().Err(err).Msg("ai providers")
	}
	dispatcher := aiAdapters.NewDispatcher(chain, aiAdapters.NewRateLimiter(cfg.AI.RPM), logger)
	summaryUC := usecase.NewSummaryUseCase(creditUC, dispatcher, transcriptCache, logger)
	_ = summaryUC // consumed by the messaging surfaces

	// ---- Admin web API ----
	statsUC := usecase.NewStatsUseCase(accountRepo, statsRepo, userUsageRepo, witUsageRepo, logger)
	auth := web.NewAuthManager(cfg.Admin.SessionSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL)
	srv := web.NewServer(statsUC, creditUC, auth, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("admin api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	cancel()
}

// buildChain assembles the fallback chain in configured order, ignoring
// unknown names. Unconfigured providers stay in the chain; the
// dispatcher skips them.
func buildChain(ctx context.Context, cfg *config.AIConfig) ([]adapter.AIProvider, error) {
	providers := make([]adapter.AIProvider, 0, len(cfg.FallbackOrder))
	for _, name := range cfg.FallbackOrder {
		switch name {
		case "gemini":
			p, err := aiAdapters.NewGeminiProvider(ctx, cfg.GeminiKey, cfg.GeminiModel)
			if err != nil {
				return nil, fmt.Errorf("gemini: %w", err)
			}
			providers = append(providers, p)
		case "groq":
			providers = append(providers, aiAdapters.NewGroqProvider(cfg.GroqKey, cfg.GroqModel))
		case "openrouter":
			providers = append(providers, aiAdapters.NewOpenRouterProvider(cfg.OpenRouterKey, cfg.OpenRouterModel))
		case "anthropic":
			providers = append(providers, aiAdapters.NewAnthropicProvider(cfg.AnthropicKey, cfg.AnthropicModel))
		case "openai":
			providers = append(providers, aiAdapters.NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIModel))
		}
	}
	return providers, nil
}
