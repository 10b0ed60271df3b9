package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/therapistdirectory/internal/api/handlers"
	"github.com/zatekoja/therapistdirectory/internal/api/middleware"
	"github.com/zatekoja/therapistdirectory/internal/api/routes"
	"github.com/zatekoja/therapistdirectory/internal/application/services"
	"github.com/zatekoja/therapistdirectory/internal/bootstrap"
	"github.com/zatekoja/therapistdirectory/internal/domain/repositories"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/clients/openai"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/observability"
	"github.com/zatekoja/therapistdirectory/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	store, err := bootstrap.OpenStore(ctx, cfg, metrics)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open therapist store")
	}
	defer store.Close()

	var searchRepo repositories.TherapistSearchRepository
	if _, adapter := bootstrap.OpenSearchIndex(ctx, cfg); adapter != nil {
		searchRepo = adapter
	}

	var ranker services.Ranker
	if cfg.RankingEnabled() {
		client, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize OpenAI client, relevance ranking disabled")
		} else {
			generator := openai.NewBreakerGenerator(client, openai.BreakerSettings{
				Name:         "openai-ranking",
				MaxFailures:  cfg.Ranking.BreakerMaxFailures,
				OpenDuration: cfg.Ranking.BreakerOpenDuration,
			})
			ranker = services.NewRelevanceRanker(generator, cfg.Ranking.Timeout)
			log.Info().Str("model", client.Model()).Dur("timeout", cfg.Ranking.Timeout).Msg("relevance ranking enabled")
		}
	} else {
		log.Warn().Msg("OPENAI_API_KEY is not set; relevance ranking disabled")
	}

	searchService := services.NewTherapistSearchService(store.Repository, ranker)
	therapistService := services.NewTherapistService(store.Repository, searchRepo)
	therapistHandler := handlers.NewTherapistHandler(searchService, therapistService)

	opts := routes.Options{
		Metrics:        metrics,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		HealthChecks:   map[string]routes.HealthCheck{},
	}
	if store.Cache != nil {
		opts.CacheMiddleware = middleware.NewCacheMiddleware(store.Cache)
	}
	if cfg.Server.RateLimitPerMinute > 0 {
		opts.RateLimiter = middleware.NewRateLimiter(cfg.Server.RateLimitPerMinute, cfg.Server.RateLimitBurst, cfg.Server.TrustedProxies...)
	}
	if store.Postgres != nil {
		opts.HealthChecks["database"] = func(r *http.Request) error { return store.Postgres.Ping(r.Context()) }
	}
	if store.Redis != nil {
		opts.HealthChecks["redis"] = func(r *http.Request) error { return store.Redis.Ping(r.Context()) }
	}

	router := routes.NewRouter(therapistHandler, opts)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// ranking may take up to RANKING_TIMEOUT on top of the store queries
		WriteTimeout: cfg.Ranking.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Str("store", cfg.Store.Driver).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	log.Info().Msg("server stopped")
}
