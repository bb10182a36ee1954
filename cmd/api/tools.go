package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"impactmatrix/api/internal/app"
	"impactmatrix/api/internal/config"
	"impactmatrix/api/internal/seed"
	"impactmatrix/api/internal/store"
)

func newMigrateCmd(cfg config.Config, logger zerolog.Logger) *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := store.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if status {
				migrations, err := store.ListMigrations(ctx, db, cfg.MigrationsDir)
				if err != nil {
					return err
				}
				for _, m := range migrations {
					state := "pending"
					if m.Applied {
						state = "applied"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", state, m.Version)
				}
				return nil
			}

			applied, err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir)
			if err != nil {
				return err
			}
			for _, version := range applied {
				logger.Info().Str("version", version).Msg("applied migration")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", len(applied))
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "list migrations and whether they are applied")
	return cmd
}

func newSeedCmd(cfg config.Config, logger zerolog.Logger) *cobra.Command {
	var fixturePath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo organizations, matrices and ideas",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := loadFixture(fixturePath)
			if err != nil {
				return err
			}

			rt, err := openDeps(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			summary, err := seed.Apply(cmd.Context(), rt.service, fixture, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"seeded %d organization(s), %d project(s), %d matrix(es), %d categories, %d ideas, %d presets\n",
				summary.Organizations, summary.Projects, summary.Matrices,
				summary.Categories, summary.Ideas, summary.Presets)
			return nil
		},
	}
	cmd.Flags().StringVarP(&fixturePath, "file", "f", "", "YAML fixture (defaults to the built-in demo data)")
	return cmd
}

func loadFixture(path string) (seed.Fixture, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.LoadFile(path)
}

func newExportCmd(cfg config.Config, logger zerolog.Logger) *cobra.Command {
	var (
		matrixID string
		format   string
		presets  bool
		archive  bool
		outDir   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a matrix export to a local file",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openDeps(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			outcome, err := rt.service.Export(cmd.Context(), app.ExportInput{
				MatrixID:             matrixID,
				Format:               format,
				IncludeFilterPresets: presets,
				Archive:              archive,
			})
			if err != nil {
				return err
			}

			path := filepath.Join(outDir, outcome.Result.Filename)
			if err := os.WriteFile(path, outcome.Result.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			if outcome.Archived != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "archived as s3://%s/%s\n", outcome.Archived.Bucket, outcome.Archived.Key)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&matrixID, "matrix", "m", "", "matrix id")
	cmd.Flags().StringVar(&format, "format", "xlsx", "xlsx or pdf")
	cmd.Flags().BoolVar(&presets, "presets", false, "include the filter presets sheet")
	cmd.Flags().BoolVar(&archive, "archive", false, "also upload the file to the export bucket")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	_ = cmd.MarkFlagRequired("matrix")
	return cmd
}
