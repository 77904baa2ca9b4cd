// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/isnippet/internal/api"
	"github.com/starford/isnippet/internal/mcpserver"
	"github.com/starford/isnippet/internal/models"
	"github.com/starford/isnippet/internal/sse"
	"github.com/starford/isnippet/internal/vault"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	cfg := app.config
	logger := app.logger
	slog.SetDefault(logger)

	broker := sse.NewBroker(500 * time.Millisecond)
	defer broker.Close()

	svcs, err := NewServices(cfg, logger, vault.WithListener(func(kind string, v *models.Vault) {
		broker.PublishVaultEvent(kind, v.Path, v.Name)
	}))
	if err != nil {
		return err
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", svcs.Configs.Dir()),
		slog.Int("recent_limit", cfg.Vaults.RecentLimit),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Startup auto-open: every subscriber learns the last active vault.
	initial, err := svcs.Configs.Load()
	if err != nil {
		logger.Warn("load app config failed", slog.String("error", err.Error()))
	} else if initial != nil {
		broker.Retain(sse.Event{Type: sse.TypeAutoOpen, Data: initial})
		logger.Info("auto-open vault", slog.String("vault_path", initial.Active()))
	}

	apiRouter := api.NewRouter(svcs.Vaults, svcs.Configs, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := os.Stat(svcs.Configs.Dir()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"data dir unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Open event streams end when the broker closes their channels.
	httpServer.RegisterOnShutdown(broker.Close)

	g, gCtx := errgroup.WithContext(ctx)

	// Reload config.json on external edits.
	g.Go(func() error {
		err := svcs.Configs.Watch(gCtx, logger, func(c *models.Config) {
			broker.PublishConfig(c)
		})
		if err != nil {
			logger.Warn("config watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the vault tools over stdio. Logs must not go to stdout,
// which carries the protocol.
func RunMCP(opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogger(NewLogger(slog.LevelInfo, os.Stderr))}, opts...))
	if err != nil {
		return err
	}
	svcs, err := NewServices(app.config, app.logger)
	if err != nil {
		return err
	}
	app.logger.Info("MCP server starting", slog.String("data_dir", svcs.Configs.Dir()))
	return mcpserver.New(svcs.Vaults, svcs.Configs).ServeStdio()
}
