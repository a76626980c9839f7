package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lumiself/ai-influencer-studio/internal/adapter/repo"
	"github.com/lumiself/ai-influencer-studio/internal/choreography"
	"github.com/lumiself/ai-influencer-studio/internal/http/handlers"
	"github.com/lumiself/ai-influencer-studio/internal/http/httpapi"
	"github.com/lumiself/ai-influencer-studio/internal/infra"
	"github.com/lumiself/ai-influencer-studio/internal/infra/geoip"
	"github.com/lumiself/ai-influencer-studio/internal/media"
	"github.com/lumiself/ai-influencer-studio/internal/middleware"
	"github.com/lumiself/ai-influencer-studio/internal/providers/replicate"
	"github.com/lumiself/ai-influencer-studio/internal/reconcile"
	"github.com/lumiself/ai-influencer-studio/internal/storage"
	"github.com/lumiself/ai-influencer-studio/internal/synthesis"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	records := repo.NewPredictionRepository(dbpool)
	if err := records.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	client := replicate.NewClient(replicate.Options{
		APIKey:      cfg.ReplicateAPIKey,
		BaseURL:     cfg.ReplicateBaseURL,
		Logger:      &logger,
		SyncTimeout: cfg.SyncWaitTimeout,
		FastTimeout: cfg.FastWaitTimeout,
	})

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize media storage")
	}
	library := media.NewLibrary(store, cfg.StorageBaseURL, nil, logger)

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip resolver unavailable, locale falls back to headers")
	}
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := handlers.NewApp(
		cfg,
		logger,
		choreography.NewService(client, cfg.ChoreographyModel, logger),
		synthesis.NewService(client, records, cfg.SynthesisModel, cfg.WebhookURL(), logger),
		reconcile.NewService(records, client, logger),
		library,
	)

	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimitPerMin,
		CountryLookup:  lookup,
		StaticDir:      store.BasePath(),
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
