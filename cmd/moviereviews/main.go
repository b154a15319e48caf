// cmd/moviereviews/main.go
package main

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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"movie-reviews/internal/access"
	"movie-reviews/internal/api"
	"movie-reviews/internal/config"
	"movie-reviews/internal/domain"
	"movie-reviews/internal/metrics"
	"movie-reviews/internal/store"
	"movie-reviews/pkg/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := cfg.Logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Movie review service stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	validate := domain.NewValidator()

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	dataStore, err := store.Open(startCtx, cfg.Store, cfg.IsDevelopment(), validate, logger)
	if err != nil {
		return fmt.Errorf("failed to open data store: %w", err)
	}
	defer func() {
		logger.Info("Closing data store...")
		if err := dataStore.Close(); err != nil {
			logger.Error("Failed to close data store", slog.String("error", err.Error()))
		}
	}()

	verifier, tokens, err := newVerifier(startCtx, cfg.Auth)
	if err != nil {
		return err
	}
	resolver := access.NewResolver(auth.NewRequestSessions(verifier, cfg.Auth.CookieName), cfg.Auth.AdminEmails, logger)

	policy, err := access.NewPolicy()
	if err != nil {
		return fmt.Errorf("failed to load access policy: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)
	m.SetDataSource(dataStore.Live())

	deps := api.RouterDeps{
		Handler:  api.NewHandler(dataStore, policy, logger, validate, m),
		Resolver: resolver,
		Logger:   logger,
		Metrics:  m,
	}
	if cfg.RateLimit.Enabled {
		limiter := api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger, m)
		defer limiter.Stop()
		deps.RateLimiter = limiter
	}
	if cfg.IsDevelopment() && tokens != nil {
		deps.Sessions = api.NewSessionHandler(tokens, resolver, logger, validate, cfg.Auth.CookieName, cfg.Auth.TokenTTL)
		logger.Warn("Development session endpoint enabled")
	}

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Movie review service HTTP server starting",
			slog.String("port", cfg.Server.Port),
			slog.Bool("live_store", dataStore.Live()),
			slog.String("auth_provider", cfg.Auth.Provider))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case sig := <-quit:
		logger.Info("Movie review service shutting down...", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	logger.Info("Movie review service HTTP server gracefully stopped.")
	return nil
}

// newVerifier builds the session verifier for the configured provider. The
// token manager is returned as well when tokens are signed locally.
func newVerifier(ctx context.Context, cfg config.AuthConfig) (auth.Verifier, auth.TokenManager, error) {
	switch cfg.Provider {
	case config.ProviderOIDC:
		v, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize OIDC verifier: %w", err)
		}
		return v, nil, nil
	default:
		tm, err := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize token manager: %w", err)
		}
		return tm, tm, nil
	}
}
