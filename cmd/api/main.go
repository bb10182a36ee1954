package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"impactmatrix/api/internal/config"
	"impactmatrix/api/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, os.Stderr)

	rootCmd := &cobra.Command{
		Use:   "impact-matrix-api",
		Short: "Impact Matrix API server and maintenance commands",
		Long: `impact-matrix-api serves the Impact Matrix REST API. Ideas are scored on
effort and business value, placed on a 10x10 grid and grouped into quadrants.

Running it without a subcommand starts the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg, logger)
		},
	}

	rootCmd.AddCommand(newServeCmd(cfg, logger))
	rootCmd.AddCommand(newMigrateCmd(cfg, logger))
	rootCmd.AddCommand(newSeedCmd(cfg, logger))
	rootCmd.AddCommand(newExportCmd(cfg, logger))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
