// Package cli implements the menuflow command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/menuflow/menuflow/internal/config"
	"github.com/menuflow/menuflow/internal/logging"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logPretty  bool
	noProgress bool

	cliConfig *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "pretty", false, "human-readable log output")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress output")
}

var rootCmd = &cobra.Command{
	Use:   "menuflow",
	Short: "Run multi-step menu sequences",
	Long:  "Menuflow validates, executes, and analyzes multi-step sequences against interactive menu services.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if logPretty {
			cfg.LogPretty = true
		}
		cliConfig = cfg
		logging.Setup(cfg.LogLevel, cfg.LogPretty)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// GetConfig returns the loaded configuration. Nil before the root command
// runs.
func GetConfig() *config.Config {
	return cliConfig
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
