package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/zonamobi/zonamobi/internal/api"
	"github.com/zonamobi/zonamobi/internal/cache"
	"github.com/zonamobi/zonamobi/internal/catalog"
	"github.com/zonamobi/zonamobi/internal/config"
	"github.com/zonamobi/zonamobi/internal/database"
	"github.com/zonamobi/zonamobi/internal/logger"
	"github.com/zonamobi/zonamobi/internal/scheduler"
	"github.com/zonamobi/zonamobi/internal/startup"
	"github.com/zonamobi/zonamobi/internal/upstream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "zonamobi:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to config file")
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Logging)
	defer log.Close()

	log.Info().
		Str("upstream", cfg.Upstream.BaseURL).
		Str("logLevel", cfg.Logging.Level).
		Bool("cache", cfg.Cache.Enabled).
		Msg("Starting zonamobi")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var responses *cache.ResponseCache
	if cfg.Cache.Enabled {
		var closeCache func()
		responses, closeCache = openResponseCache(ctx, cfg, log.Logger)
		defer closeCache()
	}

	client := upstream.NewClient(cfg.Upstream, log.Logger)
	svc, err := catalog.NewService(cfg.Catalog, client, responses, log.Logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	var sched *scheduler.Scheduler
	if responses != nil {
		sched, err = scheduler.New(log.Logger)
		if err != nil {
			return err
		}
		if err := scheduler.RegisterCacheSweepTask(sched, svc, cfg.Cache.SweepCron, log.WithComponent("cache-sweep")); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				log.Warn().Err(err).Msg("Scheduler shutdown error")
			}
		}()
	}

	err = startup.WithRetry(ctx, "filter warm-up", startup.DefaultRetryConfig(), func(ctx context.Context) error {
		_, err := svc.Filters(ctx)
		return err
	}, log.Logger)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		log.Warn().Err(err).Msg("Filter warm-up failed, filters will be fetched on first request")
	}

	server := api.NewServer(svc, sched, log.Logger)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(cfg.Server.Address())
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
	return nil
}

// openResponseCache opens the on-disk response cache. A cache that cannot be
// opened is not fatal: the returned cache is nil and every lookup goes to
// upstream directly.
func openResponseCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*cache.ResponseCache, func()) {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Database.Path).Msg("Cache database unavailable, continuing without cache")
		return nil, func() {}
	}

	responses, err := cache.Open(ctx, db, cache.Config{TTL: cfg.Cache.TTL()}, logger)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Database.Path).Msg("Response cache unavailable, continuing without cache")
		_ = db.Close()
		return nil, func() {}
	}
	return responses, func() { _ = db.Close() }
}
