package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Forecaster/internal/api/yahoo"
	"github.com/Alias1177/Forecaster/internal/cache"
	"github.com/Alias1177/Forecaster/internal/config"
	"github.com/Alias1177/Forecaster/internal/forecast"
	"github.com/Alias1177/Forecaster/internal/metrics"
	"github.com/Alias1177/Forecaster/internal/server"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	store := buildCache(cfg)
	defer store.Close()

	dataClient := yahoo.NewClient(yahoo.ClientOptions{
		BaseURL:         cfg.YahooBaseURL,
		RequestTimeout:  time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec:  cfg.RequestsPerSec,
		MaxRetryTimeout: time.Duration(cfg.MaxRetryTimeout) * time.Second,
		Cache:           store,
		CacheTTL:        time.Duration(cfg.CacheTTL) * time.Second,
	})

	recorder := metrics.New()
	handler := server.NewHandler(dataClient, forecast.NewService(), recorder)

	srv := server.New(handler, server.Options{
		Port:        cfg.HTTPPort,
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     recorder,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func buildCache(cfg *config.Config) cache.Cache {
	if cfg.CacheBackend == "redis" {
		store, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err == nil {
			log.Info().Str("addr", cfg.RedisAddr).Msg("using redis cache")
			return store
		}
		log.Warn().Err(err).Msg("redis unavailable, falling back to in-memory cache")
	}
	return cache.NewMemoryCache()
}
