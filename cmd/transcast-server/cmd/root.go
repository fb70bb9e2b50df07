// Package cmd implements the CLI commands for transcast-server.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/transcast-io/transcast/internal/config"
	"github.com/transcast-io/transcast/internal/observability"
	"github.com/transcast-io/transcast/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "transcast-server",
	Short:   "Distributed media transcode orchestrator",
	Version: version.Short(),
	Long: `transcast-server ingests a media library, tracks per-file video
profiles, and hands off transcode work to connected transcast-worker
processes over a stream-framed protocol, adopting finished artifacts back
into the library once a worker reports completion.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initLogging()
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
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ./config.yaml, /etc/transcast)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")

	mustBindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig points viper at the requested config file, if any, ahead of
// any subcommand's own config.Load call.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/transcast")
	}

	viper.SetEnvPrefix("TRANSCAST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// initLogging installs the default slog logger from the bound
// logging.level/logging.format flags, ahead of config.Load building the
// fuller LoggingConfig a subcommand will use for everything after.
func initLogging() error {
	cfg := config.LoggingConfig{
		Level:  strings.ToLower(viper.GetString("logging.level")),
		Format: strings.ToLower(viper.GetString("logging.format")),
	}
	slog.SetDefault(observability.NewLogger(cfg))
	return nil
}

// mustBindPFlag binds a viper key to a cobra flag and panics if binding
// fails, matching the teacher's lint-compliant wrapper around
// viper.BindPFlag's ignorable error return.
func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %q to key %q: %v", flag.Name, key, err))
	}
}
