package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/infra/observability"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type exportOptions struct {
	Token       string
	Formats     []string
	OutDir      string
	Query       string
	Status      string
	Bairro      string
	Category    string
	Sort        string
	Dir         string
	Date        string
	Month       string
	From        string
	To          string
	Orientation string
	Subtitle    string
	Timeout     time.Duration
}

func newExportCmd(app *App) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the complaint reports of the signed-in user to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Token == "" {
				opts.Token = os.Getenv("DENUNCIAS_ACCESS_TOKEN")
			}
			if opts.Token == "" {
				return writeErr(cmd, errors.New("missing access token (use --token or DENUNCIAS_ACCESS_TOKEN)"))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			paths, err := runExport(ctx, app, opts)
			if err != nil {
				return writeErr(cmd, err)
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Token, "token", "", "Supabase access token (default $DENUNCIAS_ACCESS_TOKEN)")
	cmd.Flags().StringSliceVar(&opts.Formats, "format", []string{"xlsx", "pdf"}, "Report formats (xlsx, pdf)")
	cmd.Flags().StringVar(&opts.OutDir, "out", ".", "Output directory")
	cmd.Flags().StringVar(&opts.Query, "q", "", "Free-text filter")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Status filter (AGUARDAR, PRORROGADO, VENCIDO, PENDENTE)")
	cmd.Flags().StringVar(&opts.Bairro, "bairro", "", "Neighborhood filter")
	cmd.Flags().StringVar(&opts.Category, "categoria", "", "Category filter")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "Sort field")
	cmd.Flags().StringVar(&opts.Dir, "dir", "asc", "Sort direction (asc, desc)")
	cmd.Flags().StringVar(&opts.Date, "date", "", "Only complaints of this day (yyyy-mm-dd)")
	cmd.Flags().StringVar(&opts.Month, "month", "", "Only complaints of this month (yyyy-mm)")
	cmd.Flags().StringVar(&opts.From, "from", "", "Range start (yyyy-mm-dd)")
	cmd.Flags().StringVar(&opts.To, "to", "", "Range end (yyyy-mm-dd)")
	cmd.Flags().StringVar(&opts.Orientation, "orientation", "landscape", "PDF orientation (landscape, portrait)")
	cmd.Flags().StringVar(&opts.Subtitle, "subtitle", "", "Report subtitle")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "Overall deadline")

	return cmd
}

func (o *exportOptions) scope() (domain.ExportScope, error) {
	set := 0
	for _, v := range []string{o.Date, o.Month, o.From + o.To} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return domain.ExportScope{}, errors.New("--date, --month and --from/--to are mutually exclusive")
	}

	switch {
	case o.Date != "":
		return domain.ExportScope{Type: domain.ScopeDate, Date: o.Date}, nil
	case o.Month != "":
		return domain.ExportScope{Type: domain.ScopeMonth, Month: o.Month}, nil
	case o.From != "" || o.To != "":
		return domain.ExportScope{Type: domain.ScopeRange, StartDate: o.From, EndDate: o.To}, nil
	default:
		return domain.ExportScope{Type: domain.ScopeAll}, nil
	}
}

func runExport(ctx context.Context, app *App, opts *exportOptions) ([]string, error) {
	cfg := app.loadConfig()
	if err := cfg.Validate(false); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	scope, err := opts.scope()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	metrics := observability.NewMetrics()
	client := newSupabaseClient(cfg, metrics, logger)
	svc, closeCaches := newComplaintService(cfg, client, metrics, logger)
	defer closeCaches()

	user, err := client.GetUser(ctx, opts.Token)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	ctx = domain.WithPrincipal(ctx, &domain.Principal{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: opts.Token,
	})

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	req := domain.ExportRequest{
		Criteria: domain.FilterCriteria{
			FreeText:     opts.Query,
			Status:       domain.StatusLabel(strings.ToUpper(opts.Status)),
			Neighborhood: opts.Bairro,
			Category:     opts.Category,
		},
		SortField:   opts.Sort,
		SortDir:     domain.SortDirection(strings.ToLower(opts.Dir)),
		Scope:       scope,
		Orientation: opts.Orientation,
		Subtitle:    opts.Subtitle,
	}

	var paths []string
	for _, f := range opts.Formats {
		req.Format = domain.ExportFormat(strings.ToLower(strings.TrimSpace(f)))

		doc, err := svc.Export(ctx, req)
		if err != nil {
			return paths, fmt.Errorf("export %s: %w", req.Format, err)
		}

		path := filepath.Join(opts.OutDir, doc.Filename)
		if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		logger.Debug("report written", zap.String("path", path), zap.Int("rows", doc.Rows))
		paths = append(paths, path)
	}
	return paths, nil
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
