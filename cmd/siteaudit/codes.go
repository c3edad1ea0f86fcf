package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siteaudit/siteaudit/internal/outcome"
)

// NewCodesCmd creates the codes command.
func NewCodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes [reason...]",
		Short: "Show rejection codes",
		Long: `Codes lists the stable rejection codes, or resolves the given failure
reasons to their codes.

Examples:
  # List all rejection codes
  siteaudit codes

  # Resolve a failure reason
  siteaudit codes "external redirect"`,
		Args: cobra.ArbitraryArgs,
		Run:  runCodesCmd,
	}
	return cmd
}

// codeDescriptions documents each rejection code for operators.
var codeDescriptions = []struct {
	code string
	desc string
}{
	{outcome.CodeBannedContent, "banned term or TLD in the URL"},
	{outcome.CodeExternalRedirect, "URL redirects to a different domain"},
	{outcome.CodeContentFreshness, "content lacks required freshness or history"},
	{outcome.CodeUnsafeContent, "hate speech or inappropriate image content"},
	{outcome.CodePlagiarism, "content similarity above the plagiarism threshold"},
	{outcome.CodeManualReview, "insufficient ad-partner activity, requires manual review"},
	{outcome.CodeTechnical, "technical error, timeout, or unclassified failure"},
}

// runCodesCmd executes the codes command.
func runCodesCmd(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		for _, c := range codeDescriptions {
			fmt.Fprintf(out, "%s  %s\n", c.code, c.desc)
		}
		return
	}

	table := outcome.NewCodeTable()
	for _, reason := range args {
		fmt.Fprintf(out, "%s  %s\n", table.Lookup(reason), reason)
	}
}
