package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"impactmatrix/api/internal/app"
	"impactmatrix/api/internal/archive"
	"impactmatrix/api/internal/config"
	"impactmatrix/api/internal/search"
	"impactmatrix/api/internal/store"
	"impactmatrix/api/internal/viewstate"
)

func newServeCmd(cfg config.Config, logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg, logger)
		},
	}
}

// deps holds the process-wide dependencies and the functions releasing them.
type deps struct {
	db      *sql.DB
	service *app.Service
	search  *search.Service
	closers []func()
}

func (rt *deps) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// openDatabase connects and applies pending migrations.
func openDatabase(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*sql.DB, error) {
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	applied, err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir)
	if err != nil {
		db.Close()
		return nil, err
	}
	for _, version := range applied {
		logger.Info().Str("version", version).Msg("applied migration")
	}
	return db, nil
}

// openDeps wires the service. Optional backends (Meilisearch, Redis, S3)
// are attached only when configured.
func openDeps(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*deps, error) {
	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	rt := &deps{db: db}
	rt.closers = append(rt.closers, func() { db.Close() })

	dataStore := store.NewPostgresStore(db)
	service := app.New(dataStore, logger)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, logger)
		rt.closers = append(rt.closers, meiliClient.Close)
	}
	rt.search = search.NewService(meiliClient, pgfts, logger)
	service.WithSearch(rt.search)

	if strings.TrimSpace(cfg.RedisURL) != "" {
		logger.Info().Msg("using Redis for working filter state")
		redisStore, err := viewstate.NewRedisStore(cfg.RedisURL, cfg.FilterStateTTL)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, func() { redisStore.Close() })
		service.WithFilterStore(redisStore)
	} else {
		logger.Info().Msg("using in-process store for working filter state")
		service.WithFilterStore(viewstate.NewMemoryStore(cfg.FilterStateTTL))
	}

	objects, err := archive.New(ctx, archive.Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
	}, logger)
	switch {
	case err == nil:
		service.WithArchive(objects)
	case errors.Is(err, archive.ErrDisabled):
	default:
		logger.Warn().Err(err).Msg("export archival unavailable")
	}

	rt.service = service
	return rt, nil
}

func runServe(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	rt, err := openDeps(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return err
	}
	defer rt.Close()

	metrics := app.NewMetrics()
	rt.service.WithMetrics(metrics)

	go rt.search.ReindexAllFromPG(context.Background())

	httpServer := app.NewHTTPServer(rt.service, cfg.CORSOrigin, logger)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("Impact Matrix API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error().Err(err).Msg("server failed")
			return err
		}
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	return nil
}
