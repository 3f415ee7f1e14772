package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/lifecycle"

	"github.com/spf13/cobra"
)

type statusOptions struct {
	Start     string
	Days      int
	End       string
	Extension int
	Until     string
	Today     string
	JSON      bool
}

type statusResult struct {
	EndDate       *string       `json:"data_final"`
	ExtendedUntil *string       `json:"prorrogado_ate"`
	Status        domain.Status `json:"status"`
}

func newStatusCmd() *cobra.Command {
	opts := &statusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Derive deadline dates and status without touching the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := computeStatus(opts)
			if err != nil {
				return writeErr(cmd, err)
			}

			out := cmd.OutOrStdout()
			if opts.JSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintf(out, "status:         %s (%s)\n", res.Status.Label, res.Status.Severity)
			fmt.Fprintf(out, "data_final:     %s\n", orDash(res.EndDate))
			fmt.Fprintf(out, "prorrogado_ate: %s\n", orDash(res.ExtendedUntil))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start", "", "Start date (yyyy-mm-dd)")
	cmd.Flags().IntVar(&opts.Days, "days", 0, "Initial deadline in days")
	cmd.Flags().StringVar(&opts.End, "end", "", "End date, used when --start/--days do not derive one")
	cmd.Flags().IntVar(&opts.Extension, "extension", 0, "Extension in days")
	cmd.Flags().StringVar(&opts.Until, "until", "", "Extended-until date, used when --extension does not derive one")
	cmd.Flags().StringVar(&opts.Today, "today", "", "Reference day (default: today)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print JSON")

	return cmd
}

func computeStatus(opts *statusOptions) (statusResult, error) {
	today := lifecycle.Today()
	if opts.Today != "" {
		t, ok := lifecycle.ParseDateString(opts.Today)
		if !ok {
			return statusResult{}, fmt.Errorf("invalid --today %q", opts.Today)
		}
		today = t
	}
	if opts.Days < 0 || opts.Extension < 0 {
		return statusResult{}, errors.New("--days and --extension must not be negative")
	}

	c := domain.Complaint{
		StartDate:     optional(opts.Start),
		DeadlineDays:  domain.FlexInt(opts.Days),
		EndDate:       optional(opts.End),
		ExtensionDays: domain.FlexInt(opts.Extension),
		ExtendedUntil: optional(opts.Until),
	}
	c = lifecycle.Recompute(c, "")

	return statusResult{
		EndDate:       c.EndDate,
		ExtendedUntil: c.ExtendedUntil,
		Status:        lifecycle.ComputeStatus(&c, today),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return lifecycle.FormatDisplay(*s)
}
