package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"realestate_proxy/internal/adapters/backend"
	server "realestate_proxy/internal/adapters/http_server"
	"realestate_proxy/internal/adapters/memcache"
	"realestate_proxy/internal/adapters/observability"
	redisad "realestate_proxy/internal/adapters/redis"
	"realestate_proxy/internal/app"
	"realestate_proxy/internal/domain"
	"realestate_proxy/internal/shared"
	mysqlrepo "realestate_proxy/internal/storage/mysql"
)

// snapshotTTL is used for archived snapshot lookups, which never change.
const snapshotTTL = 10 * time.Minute

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTLPEndpoint, "realestate-proxy")
	if err != nil {
		log.Fatal().Err(err).Msg("tracing init failed")
	}

	client, err := backend.New(cfg.BackendBase, cfg.BackendTimeout, cfg.BackendRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backend client")
	}

	// deps; interfaces stay nil when a feature is disabled
	var cache domain.Cache
	switch cfg.CacheBackend {
	case "memory":
		cache = memcache.New(time.Minute)
	case "redis":
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
		}
		defer rc.Close()
		cache = rc
	case "none", "":
	default:
		log.Warn().Str("cache", cfg.CacheBackend).Msg("unknown CACHE_BACKEND, caching disabled")
	}

	var repo domain.SnapshotRepository
	var q *app.QueryService
	if cfg.MySQLDSN != "" {
		db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("mysql connect failed")
		}
		defer db.Close()
		log.Info().Msg("database connection ok")
		repo = mysqlrepo.New(db)
		q = app.NewQueryService(repo, cache, snapshotTTL)
	}

	crawl := app.NewCrawlService(client, app.CrawlOptions{
		Cache:    cache,
		Archive:  repo,
		CacheTTL: cfg.CacheTTL,
		Fallback: cfg.MockFallback,
	})

	// http
	srv := server.New(server.Options{
		Timeout:     client.Timeout() + 15*time.Second,
		CORSOrigins: cfg.CORSOrigins,
	})
	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Crawl: crawl, Q: q})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("backend", cfg.BackendBase).
			Bool("mock_fallback", crawl.FallbackEnabled()).
			Str("cache", cfg.CacheBackend).
			Bool("archive", repo != nil).
			Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := shutdownTracing(sctx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown failed")
	}
}
