// safedesk serves the anonymous grievance API.
//
// Usage:
//
//	safedesk serve      run the HTTP API, evidence workers and audit worker
//	safedesk migrate    apply embedded SQL migrations to DATABASE_URL
//	safedesk seed       create the demo organization and reviewer accounts
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "safedesk",
	Short: "Anonymous workplace grievance reporting",
	Long:  "SafeDesk lets employees file harassment reports without an account and\nlets committee reviewers triage them in a role-gated portal.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
