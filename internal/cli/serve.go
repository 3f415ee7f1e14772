package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/handler"
	"github.com/boddenberg/denuncias-bfa/internal/infra/kvstore"
	"github.com/boddenberg/denuncias-bfa/internal/infra/observability"
	"github.com/boddenberg/denuncias-bfa/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, app)
		},
	}
}

func runServe(ctx context.Context, app *App) error {
	// --- Config ---
	cfg := app.loadConfig()
	if err := cfg.Validate(true); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("supabase_url", cfg.SupabaseURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.String("filter_store", cfg.FilterStore),
	)

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "denuncias-bfa")
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Clients ---
	supabaseClient := newSupabaseClient(cfg, metrics, logger)

	// --- Filter preference store ---
	kv, err := kvstore.Open(ctx, kvstore.Options{
		Backend:    cfg.FilterStore,
		SQLitePath: cfg.FilterSQLitePath,
		Redis: kvstore.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   "denuncias:",
		},
	})
	if err != nil {
		return fmt.Errorf("open filter store: %w", err)
	}
	defer kv.Close()

	// --- Services ---
	complaints, closeCaches := newComplaintService(cfg, supabaseClient, metrics, logger)
	defer closeCaches()

	svcs := handler.Services{
		Complaints: complaints,
		Auth:       service.NewAuthService(supabaseClient, cfg.SupabaseJWTSecret, cfg.PasswordResetRedirect, logger),
		Filters:    service.NewFilterPreferences(kv, cfg.FilterTTL, logger),
	}
	checks := []handler.HealthCheck{
		{Name: "supabase", Ping: supabaseClient.Ping},
		{Name: "filter-store", Ping: kv.Ping},
	}

	// --- Router ---
	router := handler.NewRouter(svcs, checks, metrics, cfg.CORSAllowedOrigins, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
