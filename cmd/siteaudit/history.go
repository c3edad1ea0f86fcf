package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <site>",
		Short: "Show stored audit history for a site",
		Long: `History lists the stored audits for a site (hostname), newest first.

Examples:
  siteaudit history example.com
  siteaudit history --postgres "$DSN" example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("postgres", "",
		"PostgreSQL DSN for the audit store (default: embedded SQLite)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	site := args[0]
	ctx := context.Background()

	dsn, err := cmd.Flags().GetString("postgres")
	if err != nil {
		return err
	}

	var history []database.AuditSummary
	if dsn != "" {
		store, err := database.OpenPostgres(ctx, dsn)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck // read-only usage
		history, err = store.GetAuditHistory(ctx, site)
		if err != nil {
			return err
		}
	} else {
		store, err := database.Open(config.XDGDataDir(), database.Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck // read-only usage
		history, err = store.GetAuditHistory(ctx, site)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if len(history) == 0 {
		fmt.Fprintf(out, "No stored audits for %s\n", site)
		return nil
	}
	for _, h := range history {
		line := fmt.Sprintf("%s  %-6s  %s", h.Timestamp.Format("2006-01-02 15:04"), h.Status, h.URL)
		if h.FailureReason != "" {
			line += fmt.Sprintf("  (%s, %s)", h.FailureReason, h.RejectionCode)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
