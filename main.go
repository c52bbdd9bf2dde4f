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

	"ratings-aggregator/domain/policy"
	"ratings-aggregator/domain/repository"
	"ratings-aggregator/infrastructure/cache"
	"ratings-aggregator/infrastructure/clients/httpx"
	"ratings-aggregator/infrastructure/clients/providers"
	"ratings-aggregator/infrastructure/clients/tmdb"
	"ratings-aggregator/infrastructure/configuration"
	"ratings-aggregator/infrastructure/logger"
	"ratings-aggregator/infrastructure/metrics"
	httpHandler "ratings-aggregator/interfaces/http"
	"ratings-aggregator/server"
	"ratings-aggregator/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	if loaded := configuration.LoadEnvFromFile("config.env", ".env"); len(loaded) > 0 {
		logger.GetLogger().WithField("files", loaded).Info("Loaded environment files")
		configuration.ApplyEnv(&configuration.C)
		logger.SetLevel(configuration.C.Logger.Level)
	}
	cfg := configuration.C

	if err := configuration.Validate(cfg); err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Invalid configuration")
	}

	recorder, metricsHandler, shutdownMetrics, err := metrics.NewPrometheus()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Metrics exporter unavailable - continuing without /metrics")
		recorder, metricsHandler, shutdownMetrics = metrics.NewNoop(), nil, nil
	}

	redisOpts, err := cache.NewOptions(cfg.RedisClient)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Invalid Redis configuration")
	}
	ratingCache := cache.NewRatingCache(redisOpts)
	if err := ratingCache.Init(ctx); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - running without caching")
	} else {
		logger.GetLogger().Info("Redis client initialized successfully.")
	}

	timeout := cfg.HTTP.RequestTimeout()
	pages := httpx.NewClient(timeout, cfg.HTTP.UserAgent)
	tmdbClient := tmdb.NewClient(pages.HTTPClient(), cfg.TMDb, timeout)

	registry, err := InitiateProviders(pages, tmdbClient, cfg.Sources)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Provider registry initialization failed")
	}
	logger.GetLogger().WithField("providers", registry.Names()).Info("Providers registered")

	ttlPolicy := policy.NewTTLPolicy().
		WithDefaultTTL(cfg.Cache.TTL()).
		WithNegativeTTL(cfg.Cache.NegativeTTL()).
		WithLowConfidenceTTL(cfg.Cache.LowConfidenceTTL())

	orchestrator := usecase.NewRatingOrchestrator(registry.Providers(), timeout, recorder)
	ratingUsecase := usecase.NewRatingUsecase(ratingCache, tmdbClient, orchestrator, ttlPolicy, recorder)

	streamHandler := httpHandler.NewStreamHandler(ratingUsecase, cfg.Addon, cfg.App.Version, cfg.Sources.IMDbBaseURL)
	ratingHandler := httpHandler.NewRatingHandler(ratingUsecase)
	healthHandler := httpHandler.NewHealthHandler(ratingUsecase)

	router := server.InitiateRouter(streamHandler, ratingHandler, healthHandler, metricsHandler)

	port := cfg.App.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "version": cfg.App.Version}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	if err := ratingCache.Close(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Error closing Redis connection")
	}
	if shutdownMetrics != nil {
		_ = shutdownMetrics(shutdownCtx)
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
	logger.GetLogger().Info("Application stopped")
}

// InitiateProviders registers providers in merge priority order.
func InitiateProviders(pages *httpx.Client, tmdbClient *tmdb.Client, sources configuration.Sources) (*providers.Registry, error) {
	return providers.NewRegistry(
		[]repository.IRatingProvider{
			providers.NewIMDb(pages, sources.IMDbBaseURL),
			providers.NewTMDb(tmdbClient),
			providers.NewMetacritic(pages, sources.MetacriticBaseURL),
			providers.NewCommonSense(pages, sources.CommonSenseBaseURL),
			providers.NewCringeMDB(pages, sources.CringeMDBBaseURL),
			providers.NewRottenTomatoes(pages, sources.RottenTomatoesBaseURL),
		}...,
	)
}
