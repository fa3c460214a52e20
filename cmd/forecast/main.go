package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Forecaster/internal/api/yahoo"
	"github.com/Alias1177/Forecaster/internal/cache"
	"github.com/Alias1177/Forecaster/internal/config"
	"github.com/Alias1177/Forecaster/internal/forecast"
	"github.com/Alias1177/Forecaster/models"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

// One-shot forecast: fetch a year of history for SYMBOL and print the
// prediction for TARGET_DATE (default 30 days out).
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

	targetDate := time.Now().AddDate(0, 0, 30)
	if cfg.TargetDate != "" {
		targetDate, err = time.Parse("2006-01-02", cfg.TargetDate)
		if err != nil {
			log.Fatal().Str("target_date", cfg.TargetDate).Msg("TARGET_DATE must be YYYY-MM-DD")
		}
	}

	dataClient := yahoo.NewClient(yahoo.ClientOptions{
		BaseURL:        cfg.YahooBaseURL,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec: cfg.RequestsPerSec,
		Cache:          cache.NewMemoryCache(),
	})

	ctx := context.Background()
	series, err := dataClient.GetHistory(ctx, cfg.Symbol, "1y")
	if err != nil {
		log.Fatal().Err(err).Str("symbol", cfg.Symbol).Msg("fetch history failed")
	}
	currentPrice := series[len(series)-1].Close

	result, err := forecast.NewService().Forecast(series, targetDate, currentPrice)
	if err != nil {
		log.Fatal().Err(err).Msg("forecast failed")
	}

	printResult(cfg.Symbol, result)
}

func printResult(symbol string, r *models.PredictionResult) {
	fmt.Printf("\n===== FORECAST: %s =====\n", symbol)
	fmt.Printf("Current price:     %.2f\n", r.CurrentPrice)
	fmt.Printf("Target date:       %s\n", r.TargetDate)
	fmt.Printf("Median prediction: %.2f\n", r.MedianPrediction)

	ci80 := r.ConfidenceIntervals["80"]
	ci95 := r.ConfidenceIntervals["95"]
	fmt.Printf("80%% interval:      [%.2f, %.2f]\n", ci80[0], ci80[1])
	fmt.Printf("95%% interval:      [%.2f, %.2f]\n", ci95[0], ci95[1])
	fmt.Printf("P(within 5%%):      %.1f%%\n", r.ProbabilityWithin5Pct)

	acc := r.HistoricalAccuracy
	if acc == nil || acc.Degenerate() {
		fmt.Println("\nHistorical accuracy: not enough data to backtest")
		return
	}
	fmt.Printf("\nBacktest over %s (%d predictions):\n", acc.DateRange, acc.NPredictions)
	fmt.Printf("MAPE:                 %.2f%%\n", acc.MAPE)
	fmt.Printf("RMSE:                 %.2f\n", acc.RMSE)
	fmt.Printf("Directional accuracy: %.2f%%\n", acc.DirectionalAccuracy)
}
