package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"noteally/internal/config"
	"noteally/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "noteally",
	Short: "NoteAlly note sharing API",
	Long: `NoteAlly lets students upload PDF notes, browse and filter a live feed,
like and view notes, and manage their own uploads from a dashboard.

Configuration is read from the environment; a .env file in the working
directory is loaded first if present.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and builds the process logger.
func loadConfig() (*config.AppConfig, *logging.Logger) {
	cfg := config.Load()
	return cfg, logging.New(os.Stdout, cfg.Location())
}
