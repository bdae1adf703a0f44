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

	"novai-server/internal/config"
	"novai-server/internal/domain/ports/adapter"
	"novai-server/internal/domain/ports/repository"
	aiAdapters "novai-server/internal/infra/adapters/ai"
	"novai-server/internal/infra/jsonstore"
	"novai-server/internal/infra/logging"
	"novai-server/internal/infra/memory"
	"novai-server/internal/infra/metrics"
	red "novai-server/internal/infra/redis"
	"novai-server/internal/infra/security"
	"novai-server/internal/infra/web"
	"novai-server/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Flat-file stores ----
	userRepo, err := jsonstore.NewUserRepo(cfg.Store.UsersFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("user store")
	}
	transcriptRepo, err := jsonstore.NewTranscriptRepo(cfg.Store.ChatsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("chat store")
	}

	// ---- Sessions (redis when configured, in-memory otherwise) ----
	var sessions repository.SessionRepository
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		sessions = red.NewSessionRepo(redisClient, cfg.Session.TTL)
		logger.Info().Str("url", cfg.Redis.URL).Msg("sessions: redis")
	} else {
		memSessions := memory.NewSessionRepo(cfg.Session.TTL)
		go func() { _ = memSessions.RunJanitor(ctx, time.Minute, logger) }()
		sessions = memSessions
		logger.Info().Msg("sessions: in-memory")
	}

	// ---- Conversation window ----
	conversations := memory.NewConversationRepo(memory.DefaultWindow)

	// ---- AI adapter (ollama | rules) ----
	var ai adapter.AIServiceAdapter
	switch cfg.AI.Mode {
	case "rules":
		ai = aiAdapters.NewRulesAdapter(nil, "")
		logger.Info().Msg("AI adapter: rules fallback (no inference backend)")
	default:
		ai, err = aiAdapters.NewOllamaAdapter(cfg.AI.BackendURL, cfg.AI.Model, cfg.AI.ProbeTimeout, cfg.AI.GenerateTimeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("ollama adapter")
		}
		logger.Info().Str("url", cfg.AI.BackendURL).Str("model", cfg.AI.Model).Msg("AI adapter: ollama")
	}
	ai = aiAdapters.NewLimitedAI(ai, cfg.AI.ConcurrentLimit)

	// ---- Use cases ----
	hasher := security.NewPasswordHasher()
	userUC := usecase.NewUserUseCase(userRepo, hasher, logger)
	chatUC := usecase.NewChatUseCase(conversations, ai, logger)
	transcriptUC := usecase.NewTranscriptUseCase(transcriptRepo, logger)

	// ---- HTTP server ----
	srv := web.NewServer(
		userUC, chatUC, transcriptUC, sessions,
		cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.SecureCookie,
		cfg.AI.Model, logger,
	)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Routes(),
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
