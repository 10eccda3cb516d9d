// Package main provides the cargodesk CLI: a freight-forwarding back
// office serving wizard-driven data entry over HTTP and WebSocket.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configDir is set by the --config-dir flag.
var configDir string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cargodesk",
	Short: "Cargodesk is a freight-forwarding back office",
	Long: `Cargodesk serves the multi-step data-entry wizards of a freight
forwarder's back office: air export jobs, customer onboarding, and CRM
call entries, backed by SQLite master data and an audit trail.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding cargodesk.yaml (default: working directory)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("cargodesk v0.1.0")
	},
}
