package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sajidcodes/perplexity/internal/agent"
	"github.com/Sajidcodes/perplexity/internal/api"
	"github.com/Sajidcodes/perplexity/internal/config"
	"github.com/Sajidcodes/perplexity/internal/database"
	"github.com/Sajidcodes/perplexity/internal/log"
	"github.com/Sajidcodes/perplexity/internal/model"
	"github.com/Sajidcodes/perplexity/internal/session"
	"github.com/Sajidcodes/perplexity/internal/tools"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 5 * time.Minute // SSE streaming needs a long write window
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

// runServe initializes and starts the HTTP server.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{
		Level: parseLogLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	slog.SetDefault(logger)
	logger.Info("starting server", "version", AppVersion, "config", cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		store session.Store
		pool  *pgxpool.Pool
	)
	if cfg.UsePostgres() {
		connURL := cfg.PostgresURL()
		if err := database.Migrate(connURL); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		pool, err = database.Open(ctx, connURL)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer pool.Close()
		store = session.NewPostgresStore(pool, logger.With("component", "sessions"))
		logger.Info("using PostgreSQL session store", "host", cfg.PostgresHost)
	} else {
		store = session.NewMemoryStore()
		logger.Info("using in-memory session store")
	}

	registry := tools.NewRegistry()
	registry.Register(tools.NewSearchTool(tools.SearchConfig{
		APIKey:     cfg.SearchAPIKey,
		BaseURL:    cfg.SearchBaseURL,
		MaxResults: cfg.SearchMaxResults,
	}, logger.With("component", "search")))

	generator, err := model.NewGemini(ctx, model.GeminiConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.ModelName,
	}, registry.Definitions(), logger.With("component", "gemini"))
	if err != nil {
		return fmt.Errorf("creating model: %w", err)
	}

	ag := agent.New(agent.Config{
		Store:      store,
		Model:      generator,
		Dispatcher: tools.NewDispatcher(registry, logger.With("component", "dispatcher")),
		Logger:     logger.With("component", "agent"),
		MaxRounds:  cfg.MaxRounds,
	})

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:      logger.With("component", "api"),
		Agent:       ag,
		Sessions:    store,
		Pool:        pool,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		RateRPS:     cfg.RateLimitRPS,
		RateBurst:   cfg.RateLimitBurst,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", cfg.Addr,
		"chat", "/chat_stream/{message}",
		"health", "/health, /ready",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}

// parseLogLevel maps a config string to a slog level, defaulting to info.
func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
