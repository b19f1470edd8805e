package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"

	"github.com/civitas-app/civitas/internal/api"
	"github.com/civitas-app/civitas/internal/buildinfo"
	"github.com/civitas-app/civitas/internal/cache"
	"github.com/civitas-app/civitas/internal/config"
	"github.com/civitas-app/civitas/internal/feed"
	"github.com/civitas-app/civitas/internal/logger"
	"github.com/civitas-app/civitas/internal/netutil"
	"github.com/civitas-app/civitas/internal/observability"
	"github.com/civitas-app/civitas/internal/orchestrator"
	"github.com/civitas-app/civitas/internal/scanloop"
)

func main() {
	// 1. Load and validate environment config (.env is optional)
	_ = godotenv.Load()
	cfg, err := config.LoadEnvConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, os.Stderr)
	log.Info().
		Str("version", buildinfo.Version).
		Str("commit", buildinfo.GitCommit).
		Msg("starting civitas")
	if config.IsWeakToken(cfg.AdminToken) {
		log.Warn().Msg("CIVITAS_ADMIN_TOKEN is weak; consider a stronger token")
	}

	// 2. Feed registry with optional URL overrides
	overrides, err := config.LoadFeedOverrides(cfg.FeedsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("feed overrides")
	}
	registry := feed.DefaultRegistry().WithURLOverrides(overrides)

	// 3. Observability
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(promRegistry)

	// 4. Two-tier cache
	svc, err := cache.NewService(cache.Options{
		Dir:           cfg.DataDir,
		Log:           log,
		Metrics:       metrics,
		MemoryEntries: cfg.MemoryEntries,
		OnlineTTL:     cfg.OnlineTTL,
		OfflineTTL:    cfg.OfflineTTL,
		Writers:       cfg.CacheWriters,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("open cache")
	}
	defer svc.Close()
	svc.SetOffline(cfg.Offline)

	// 5. Fetcher and orchestrator
	fetcher := netutil.NewFetcher(cfg.ConnectTimeout, cfg.ReadTimeout, cfg.UserAgent)
	defer fetcher.Close()

	orch := orchestrator.New(orchestrator.Options{
		Registry:       registry,
		Fetcher:        fetcher,
		Cache:          svc,
		Log:            log,
		Metrics:        metrics,
		RefreshTimeout: cfg.RefreshTimeout,
		SnapshotTTL:    cfg.SnapshotTTL,
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 6. Background refresh on the configured schedule
	scheduler := cron.New()
	for _, lang := range cfg.WarmLanguages {
		if _, err := scheduler.AddFunc(cfg.RefreshSchedule, func() {
			if _, err := orch.Refresh(rootCtx, lang); err != nil {
				log.Warn().Err(err).Str("lang", lang).Msg("scheduled refresh failed")
			}
		}); err != nil {
			log.Fatal().Err(err).Msg("schedule refresh")
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	// 7. Periodic expired-row sweep
	go scanloop.Run(rootCtx, cfg.SweepInterval, scanloop.DefaultJitterRange, svc.Sweep)

	// 8. API server
	srv := api.NewServer(cfg, orch, svc, promRegistry, time.Now().UTC())
	go func() {
		log.Info().Str("addr", cfg.ListenAddress).Int("port", cfg.APIPort).Msg("API server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("API server")
		}
	}()

	// 9. Graceful shutdown
	<-rootCtx.Done()
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("stopped")
}
