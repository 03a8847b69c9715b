package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"pulse/api/analytics"
	"pulse/api/config"
	"pulse/api/database"
	"pulse/api/handlers"
	"pulse/api/ingest"
	"pulse/api/logger"
	"pulse/api/middleware"
	"pulse/api/store"
	"pulse/api/utils"
)

type backends struct {
	users   store.UserRepository
	sites   store.SiteStore
	events  store.EventStore
	metrics store.MetricStore
	checks  map[string]store.Pinger
	close   func()
}

func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	if cfg.Datastore == config.DatastoreMemory {
		mem := store.NewMemoryStore()
		log.Warn().Msg("using in-memory datastore, data is lost on restart")
		return &backends{
			users:   mem,
			sites:   mem,
			events:  mem,
			metrics: mem,
			checks:  map[string]store.Pinger{"memory": mem},
			close:   func() {},
		}, nil
	}

	dbClient, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsurePostgresSchema(ctx, dbClient.DB); err != nil {
		dbClient.Close()
		return nil, err
	}

	chClient, err := database.NewClickHouseDB(ctx, cfg.ClickHouse)
	if err != nil {
		dbClient.Close()
		return nil, err
	}
	if err := database.EnsureClickHouseSchema(ctx, chClient.Conn); err != nil {
		dbClient.Close()
		chClient.Close()
		return nil, err
	}

	siteStore := store.NewSiteStore(dbClient.DB)
	analyticsStore := store.NewAnalyticsStore(chClient.Conn)
	return &backends{
		users:   store.NewUserStore(dbClient.DB),
		sites:   siteStore,
		events:  analyticsStore,
		metrics: store.NewMetricStore(dbClient.DB),
		checks:  map[string]store.Pinger{"postgres": siteStore, "clickhouse": analyticsStore},
		close: func() {
			chClient.Close()
			dbClient.Close()
		},
	}, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Err(err).Msg("no .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	be, err := openBackends(startCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("datastore", cfg.Datastore).Msg("failed to initialize datastore")
	}
	defer be.close()

	var cache *store.ReportCache
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(startCtx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Redis")
		}
		defer rdb.Close()
		cache = store.NewReportCache(rdb, cfg.ReportCacheTTL)
		be.checks["redis"] = cache
	}

	jwt, err := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize JWT manager")
	}

	clock := utils.SystemClock{}
	limiter := middleware.NewIPRateLimiter(cfg.TrackRatePerMinute, cfg.TrackBurst)

	rt := &handlers.Router{
		Auth:      handlers.NewAuthHandlers(be.users, jwt, cfg.GinMode == gin.ReleaseMode),
		Track:     handlers.NewTrackHandlers(ingest.NewService(be.sites, be.events, clock)),
		Analytics: handlers.NewAnalyticsHandlers(be.sites, analytics.NewEngine(be.events), analytics.NewSampleGenerator(nil, clock), cache, clock),
		Sites:     handlers.NewSiteHandlers(be.sites, be.events, cache),
		Metrics:   handlers.NewMetricHandlers(be.metrics, cfg.MetricLimit),
		Health:    handlers.NewHealthHandlers(be.checks),

		JWT:            jwt,
		FrontendOrigin: cfg.FrontendOrigin,
		TrackLimiter:   limiter,
		TrustedProxies: cfg.TrustedProxies,
	}
	r, err := rt.Engine()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopSweep := make(chan struct{})
	if limiter != nil {
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					limiter.Cleanup(10 * time.Minute)
				case <-stopSweep:
					return
				}
			}
		}()
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("datastore", cfg.Datastore).Msg("pulse API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")
	close(stopSweep)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}
