package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/estatedesk/estatedesk/internal/analytics"
	"github.com/estatedesk/estatedesk/internal/analytics/export"
	"github.com/estatedesk/estatedesk/internal/ar"
	"github.com/estatedesk/estatedesk/internal/snapshot"
)

var reportNames = []string{"invoices", "rows", "payments", "buyers", "buyer", "units", "projects", "aging"}

type summarizeOptions struct {
	file           string
	now            string
	report         string
	buyerID        int64
	projectID      int64
	includePending bool
	format         string
	locale         string
}

func newSummarizeCommand(logger *slog.Logger) *cobra.Command {
	opts := summarizeOptions{}
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Compute a dashboard report from a snapshot file",
		Example: `  # Invoice summary as of a fixed instant
  estatectl summarize --file snapshot.json --now 2025-03-15T12:00:00Z

  # Aging buckets as CSV with German number formatting
  estatectl summarize --file snapshot.json --report aging --format csv --locale de`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd.Context(), cmd.OutOrStdout(), logger, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.file, "file", "", "Snapshot JSON document with buyers, units, projects, invoices and payments")
	flags.StringVar(&opts.now, "now", "", "Evaluation instant (RFC3339 or YYYY-MM-DD, default: current time)")
	flags.StringVar(&opts.report, "report", "invoices", "Report: "+strings.Join(reportNames, ", "))
	flags.Int64Var(&opts.buyerID, "buyer-id", 0, "Buyer scope; required for the buyer report")
	flags.Int64Var(&opts.projectID, "project-id", 0, "Project scope for invoices, rows, units and aging")
	flags.BoolVar(&opts.includePending, "include-pending", false, "Count pending payments toward paid totals")
	flags.StringVar(&opts.format, "format", "json", "Output format: json or csv")
	flags.StringVar(&opts.locale, "locale", "", "Locale for CSV amounts (BCP 47 tag)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runSummarize(ctx context.Context, out io.Writer, logger *slog.Logger, opts summarizeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	now, err := parseNow(opts.now)
	if err != nil {
		return err
	}
	format := strings.ToLower(strings.TrimSpace(opts.format))
	if format != "json" && format != "csv" {
		return fmt.Errorf("unsupported format %q", opts.format)
	}

	svc := analytics.NewService(snapshot.NewFileLoader(opts.file), nil, analytics.Options{
		NowBucket: time.Second,
		Logger:    logger,
		Clock:     func() time.Time { return now },
	})
	q := analytics.InvoiceQuery{
		Filter:         ar.InvoiceFilter{BuyerID: opts.buyerID, ProjectID: opts.projectID},
		IncludePending: opts.includePending,
	}
	formatter := export.NewFormatter(opts.locale)

	var result interface{}
	switch strings.ToLower(strings.TrimSpace(opts.report)) {
	case "invoices":
		stats, err := svc.InvoiceSummary(ctx, q)
		if err != nil {
			return err
		}
		if format == "csv" {
			return export.WriteSummaryCSV(out, stats, formatter)
		}
		result = stats
	case "rows":
		rows, err := svc.Invoices(ctx, q)
		if err != nil {
			return err
		}
		if format == "csv" {
			return export.WriteInvoicesCSV(out, rows, formatter)
		}
		result = rows
	case "aging":
		report, err := svc.Aging(ctx, q)
		if err != nil {
			return err
		}
		if format == "csv" {
			return export.WriteAgingCSV(out, report, formatter)
		}
		result = report
	case "payments":
		result, err = svc.PaymentSummary(ctx, analytics.PaymentQuery{Filter: ar.PaymentFilter{BuyerID: opts.buyerID}})
	case "buyers":
		result, err = svc.Buyers(ctx, analytics.BuyerQuery{})
	case "buyer":
		if opts.buyerID <= 0 {
			return fmt.Errorf("--buyer-id is required for the buyer report")
		}
		result, err = svc.BuyerSummary(ctx, opts.buyerID)
	case "units":
		result, err = svc.UnitSummary(ctx, analytics.UnitQuery{ProjectID: opts.projectID})
	case "projects":
		result, err = svc.ProjectSummary(ctx)
	default:
		return fmt.Errorf("unknown report %q (want one of %s)", opts.report, strings.Join(reportNames, ", "))
	}
	if err != nil {
		return err
	}
	if format == "csv" {
		return fmt.Errorf("csv output is not available for the %s report", opts.report)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func parseNow(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: use RFC3339 or YYYY-MM-DD", raw)
	}
	return t, nil
}
