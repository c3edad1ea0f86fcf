// Package main provides the entry point for the siteaudit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for siteaudit.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "siteaudit",
		Short: "Publisher site auditing tool for ad-network acceptance",
		Long: `Siteaudit evaluates publisher sites for ad-network acceptance.

It checks each URL against content policy, redirect behavior, content
freshness, plagiarism, hate speech, image safety, and premium ad-partner
activity, then reports a verdict with a stable rejection code.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCodesCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
