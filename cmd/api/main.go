package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/pharmsearch/internal/ai"
	"github.com/xelth-com/pharmsearch/internal/alternatives"
	"github.com/xelth-com/pharmsearch/internal/config"
	"github.com/xelth-com/pharmsearch/internal/database"
	"github.com/xelth-com/pharmsearch/internal/details"
	"github.com/xelth-com/pharmsearch/internal/handlers"
	"github.com/xelth-com/pharmsearch/internal/logger"
	"github.com/xelth-com/pharmsearch/internal/middleware"
	"github.com/xelth-com/pharmsearch/internal/repository"
	"github.com/xelth-com/pharmsearch/internal/search"
	"github.com/xelth-com/pharmsearch/internal/utils"
	"github.com/xelth-com/pharmsearch/internal/websocket"
)

func main() {
	ctx := context.Background()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 30,
		Compress:   true,
	}); err != nil {
		logger.Error(ctx, "Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Error(ctx, "Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// 3. Auto-Migrate Schema
	logger.Info(ctx, "🚀 Synchronizing database schema...")
	if err := db.Migrate(); err != nil {
		logger.Warn(ctx, "⚠️ Migration warning", "error", err)
	} else {
		logger.Info(ctx, "✅ Schema synchronized successfully")
	}

	// 4. Completion service (optional)
	var completer ai.Completer
	var gemini *ai.GeminiClient
	if cfg.AI.GeminiAPIKey == "" {
		logger.Warn(ctx, "⚠️ GEMINI_API_KEY not set, AI search tier disabled")
	} else if gemini, err = ai.NewGeminiClient(ctx, cfg.AI); err != nil {
		logger.Warn(ctx, "⚠️ AI: failed to init Gemini client, AI search tier disabled", "error", err)
		cfg.Search.AIEnabled = false
	} else {
		completer = gemini
		logger.Info(ctx, "✅ AI: Gemini client ready", "model", cfg.AI.Model)
	}

	// 5. Services
	repo := repository.NewProductRepository(db.DB)
	engine := search.NewEngine(repo, repo, completer, cfg.Search)
	resolver := alternatives.NewResolver(repo, repo, cfg.Search)

	var detailCompleter ai.Completer
	if cfg.AI.GenerateDetail {
		detailCompleter = completer
	}
	detailService := details.NewService(repo, repo, detailCompleter)

	hubCtx, stopHub := context.WithCancel(ctx)
	hub := websocket.NewHub(engine, utils.NewDeduplicator(5*time.Minute))
	go hub.Run(hubCtx)

	// 6. Set up HTTP router
	router := handlers.NewRouter(handlers.Deps{
		Search:          engine,
		Alternatives:    resolver,
		Details:         detailService,
		Hub:             hub,
		BucketThreshold: decimal.NewFromFloat(cfg.Search.PriceBucketThreshold),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.RequestID(middleware.CaseInsensitiveMiddleware(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "🚀 Server starting", "port", cfg.Port, "env", cfg.NodeEnv, "ai_enabled", cfg.Search.AIEnabled)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	logger.Warn(ctx, "⚠️ Received signal, shutting down gracefully...", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown error", "error", err)
	}

	// Disconnect chat clients
	stopHub()

	if gemini != nil {
		gemini.Close()
	}

	// Close database (this also stops embedded PostgreSQL)
	logger.Info(ctx, "🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		logger.Error(ctx, "Database close error", "error", err)
	}

	logger.Info(ctx, "✅ Shutdown complete")
}
