// MazeLab - LLM recommendation research server
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/mazelab/mazelab/internal/acquire"
	"github.com/mazelab/mazelab/internal/api"
	"github.com/mazelab/mazelab/internal/config"
	"github.com/mazelab/mazelab/internal/identity"
	"github.com/mazelab/mazelab/internal/llm"
	"github.com/mazelab/mazelab/internal/middleware"
	"github.com/mazelab/mazelab/internal/recommend"
	"github.com/mazelab/mazelab/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "provider", cfg.LLM.Provider, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	st, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("Failed to close store", "error", closeErr)
		}
	}()

	if err := st.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	var svc llm.Service
	switch cfg.LLM.Provider {
	case config.ProviderAnthropic:
		svc = llm.NewAnthropicService(cfg.LLM.APIKey)
	default:
		svc = llm.NewOpenAIService(cfg.LLM.APIKey)
	}

	// Content acquisition is optional: no source catalog, no searcher.
	opts := []recommend.Option{recommend.WithStageTimeout(cfg.LLM.StageTimeout)}
	if cfg.SourcesPath != "" {
		sources, err := acquire.LoadConfig(cfg.SourcesPath)
		if err != nil {
			slog.Error("Failed to load source catalog", "error", err, "path", cfg.SourcesPath)
			os.Exit(1)
		}
		searcher := acquire.NewWebSearcher(&http.Client{Timeout: 15 * time.Second}, sources)
		opts = append(opts, recommend.WithSearcher(searcher))
		slog.Info("Content acquisition enabled", "sources", len(sources.Sources))
	}

	recommender := recommend.New(st, svc, opts...)

	// Initialize handlers.
	baseHandler := api.NewHandler(st, recommender)
	healthHandler := api.NewHealthHandler(st)
	articleHandler := api.NewArticleHandler(baseHandler)
	experimentHandler := api.NewExperimentHandler(baseHandler)
	interactionHandler := api.NewInteractionHandler(baseHandler)
	roundHandler := api.NewRoundHandler(baseHandler, cfg.LLM.DefaultModel)
	promptHandler := api.NewPromptHandler(baseHandler)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	// Public routes.
	healthHandler.RegisterHealth(r)

	// All routes use identity middleware (no auth needed).
	articleHandler.RegisterRoutes(r)
	experimentHandler.RegisterRoutes(r)
	interactionHandler.RegisterRoutes(r)
	roundHandler.RegisterRoutes(r)
	promptHandler.RegisterRoutes(r)

	// Create server. Round advancement waits on model calls, so the write
	// timeout must exceed the stage timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLM.StageTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
