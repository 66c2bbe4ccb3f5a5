package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

// NewRootCommand assembles the estatectl command tree writing results to out.
func NewRootCommand(out io.Writer, logger *slog.Logger) *cobra.Command {
	if logger == nil {
		logger = slog.Default()
	}
	root := &cobra.Command{
		Use:   "estatectl",
		Short: "Operational helpers for the estatedesk sales dashboard",
		Long: `estatectl computes dashboard reports offline from an exported snapshot
and manages the dashboard background jobs.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newSummarizeCommand(logger))
	root.AddCommand(newJobsCommand())
	return root
}
