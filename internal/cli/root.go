// Package cli implements the denuncias command line: the HTTP BFA server,
// an offline report export and a status calculator.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/boddenberg/denuncias-bfa/internal/config"
	"github.com/boddenberg/denuncias-bfa/internal/infra/cache"
	"github.com/boddenberg/denuncias-bfa/internal/infra/observability"
	"github.com/boddenberg/denuncias-bfa/internal/infra/resilience"
	"github.com/boddenberg/denuncias-bfa/internal/infra/supabase"
	"github.com/boddenberg/denuncias-bfa/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App carries the persistent flags shared by every command.
type App struct {
	EnvFile  string
	LogLevel string
}

// NewRootCmd builds the denuncias command tree.
func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "denuncias",
		Short:        "Backend-for-frontend for the code-enforcement complaint dashboard",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Run the HTTP API
  denuncias serve

  # Write both reports for the signed-in user
  denuncias export --token "$ACCESS_TOKEN" --out ./relatorios

  # Status of a deadline
  denuncias status --start 2024-03-01 --days 30 --extension 15
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if app.EnvFile == "" {
			return nil
		}
		if err := config.LoadDotEnv(app.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", app.EnvFile, err)
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.EnvFile, "env-file", ".env", "Path to a .env file (real environment variables take precedence)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Overrides LOG_LEVEL (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// loadConfig reads the environment and applies flag overrides.
func (a *App) loadConfig() *config.Config {
	cfg := config.Load()
	if a.LogLevel != "" {
		cfg.LogLevel = a.LogLevel
	}
	return cfg
}

// newSupabaseClient wires the record store with retries, the circuit
// breaker and the retry/error counters.
func newSupabaseClient(cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) *supabase.Client {
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
		OnRetry: func(attempt int, err error) {
			metrics.IncrRetry("supabase")
			logger.Debug("retrying supabase call", zap.Int("attempt", attempt), zap.Error(err))
		},
	}
	cb := resilience.NewCircuitBreaker("supabase")

	client := supabase.NewClient(
		&http.Client{Timeout: cfg.HTTPTimeout},
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cb,
		resilienceCfg,
		logger,
	)
	client.OnError = metrics.IncrExternalError
	return client
}

// newComplaintService returns the service and a func stopping its cache janitors.
func newComplaintService(cfg *config.Config, client *supabase.Client, metrics *observability.Metrics, logger *zap.Logger) (*service.ComplaintService, func()) {
	snapshots := cache.New[*service.Snapshot](cfg.CacheTTL)
	roles := cache.New[string](cfg.CacheTTL)

	svc := service.NewComplaintService(
		client,
		client,
		snapshots,
		roles,
		resilience.NewBulkhead(cfg.MaxConcurrency),
		metrics,
		logger,
	)
	return svc, func() {
		snapshots.Close()
		roles.Close()
	}
}
