// Package cmd implements the CLI commands for transcast-worker.
package cmd

import (
	"fmt"

	"github.com/transcast-io/transcast/internal/config"
	"github.com/transcast-io/transcast/internal/observability"
	"github.com/transcast-io/transcast/internal/version"
	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "transcast-worker",
	Short:   "Transcode capacity worker for transcast",
	Version: version.Short(),
	Long: `transcast-worker connects to a transcast-server, reports its encode
capacity, and runs ffmpeg against whatever Encode work items the server
assigns it, handing finished artifacts back across to the server's
staging area once each transcode completes.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		observability.SetDefault(observability.NewLogger(config.LoggingConfig{Level: "info", Format: "json"}))
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "worker config file (default searches ./worker.yaml, /etc/transcast)")
}
