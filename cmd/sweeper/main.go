package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"realestate_proxy/internal/adapters/backend"
	"realestate_proxy/internal/adapters/observability"
	"realestate_proxy/internal/app"
	"realestate_proxy/internal/domain"
	"realestate_proxy/internal/shared"
	mysqlrepo "realestate_proxy/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MySQLDSN == "" {
		log.Fatal().Msg("MYSQL_DSN is required: the sweeper archives every crawl")
	}
	if len(cfg.SweepCenters) == 0 {
		log.Fatal().Msg("SWEEP_CENTERS is empty or invalid")
	}

	log.Info().
		Str("base", cfg.BackendBase).
		Int("workers", cfg.Workers).
		Int("centers", len(cfg.SweepCenters)).
		Float64("radius", cfg.SweepRadius).
		Msg("sweeper starting")

	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTLPEndpoint, "realestate-sweeper")
	if err != nil {
		log.Fatal().Err(err).Msg("tracing init failed")
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("mysql connect failed")
	}
	defer db.Close()
	log.Info().Msg("db ping ok")

	client, err := backend.New(cfg.BackendBase, cfg.BackendTimeout, cfg.BackendRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backend client")
	}
	sweep := app.NewSweepService(client, mysqlrepo.New(db))

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var ok, failed atomic.Int64

	for _, req := range cfg.SweepCenters {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("sweep interrupted")
			break
		}

		wg.Add(1)
		go func(req domain.CrawlRequest) {
			defer wg.Done()
			defer sem.Release(1)

			snap, err := sweep.SweepArea(ctx, req)
			if err != nil {
				failed.Add(1)
				log.Warn().
					Float64("lat", req.CenterLat).
					Float64("lon", req.CenterLon).
					Str("kind", domain.KindOf(err).String()).
					Err(err).
					Msg("sweep failed")
				return
			}
			ok.Add(1)
			log.Info().
				Str("id", snap.ID).
				Float64("lat", req.CenterLat).
				Float64("lon", req.CenterLon).
				Int("complexes", snap.Summary.Complexes).
				Int("articles", snap.Summary.Articles).
				Int("road_plans", snap.Summary.RoadPlans).
				Msg("sweep ok")
		}(req)
	}

	wg.Wait()
	ev := log.Info()
	if failed.Load() > 0 {
		ev = log.Error()
	}
	ev.Int64("ok", ok.Load()).Int64("failed", failed.Load()).Msg("sweep completed")
}
