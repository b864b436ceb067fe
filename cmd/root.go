// Package cmd is the schedulehub command line.
package cmd

import (
	"context"
	"os"

	"github.com/rohanthewiz/logger"
	"github.com/spf13/cobra"

	"schedulehub/config"
)

var rootCmd = &cobra.Command{
	Use:   "schedulehub",
	Short: "Household schedule dashboard",
	Long: `schedulehub serves a shared month calendar for a household.

Every device that joins a household with its share code sees the same
events, and changes made on one device show up on the others live.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command line and exits non-zero on failure.
// This is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.LogErr(err, "schedulehub failed")
		os.Exit(1)
	}
}

// loadConfig reads and validates the environment, then applies the log level
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.SetLogLevel(cfg.LogLevel)
	return cfg, nil
}
