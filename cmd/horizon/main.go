package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/trendscout/horizon/internal/api/assistants"
	"github.com/trendscout/horizon/internal/config"
	"github.com/trendscout/horizon/internal/httpapi"
	"github.com/trendscout/horizon/internal/scan"
	"github.com/trendscout/horizon/internal/server"
	"github.com/trendscout/horizon/internal/storage"
	"github.com/trendscout/horizon/internal/storage/memory"
	"github.com/trendscout/horizon/internal/storage/sqlite"
	"github.com/trendscout/horizon/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("horizon-scanner", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.OpenAI.APIKey == "" {
		log.Fatal("HORIZON_OPENAI_API_KEY is required")
	}
	if cfg.OpenAI.AssistantID == "" {
		log.Fatal("HORIZON_OPENAI_ASSISTANT_ID is required")
	}

	store := selectStore(cfg, logger)
	defer store.Close()

	clientOpts := []assistants.ClientOption{}
	if cfg.OpenAI.BaseURL != "" {
		clientOpts = append(clientOpts, assistants.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	client := assistants.NewClient(cfg.OpenAI.APIKey, clientOpts...)

	orchestrator := scan.New(client, store, cfg.OpenAI.AssistantID, scan.Options{
		PollInterval: cfg.Scan.PollInterval,
		PollTimeout:  cfg.Scan.PollTimeout,
		DedupeLimit:  cfg.Scan.DedupeLimit,
	}, logger)

	srv := server.New(server.Options{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		// Chat requests poll for up to the scan budget; leave headroom.
		RequestTimeout: cfg.Scan.PollTimeout + 30*time.Second,
	}, logger)

	handler := httpapi.NewHandler(orchestrator, store, cfg.Board.URL, logger)
	handler.Register(srv.Router)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server stopped", slog.String("error", err.Error()))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// selectStore picks the persistence backend once at startup: SQLite when a
// path is configured and opens cleanly, the in-memory store otherwise.
func selectStore(cfg *config.Config, logger *slog.Logger) storage.SignalStore {
	if cfg.Storage.Path == "" {
		logger.Warn("no storage path configured, saved signals will not survive restarts")
		return memory.New()
	}

	store, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		logger.Warn("sqlite unavailable, falling back to in-memory store",
			slog.String("path", cfg.Storage.Path),
			slog.String("error", err.Error()))
		return memory.New()
	}

	logger.Info("storage ready", slog.String("path", cfg.Storage.Path))
	return store
}
