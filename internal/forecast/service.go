// Package forecast drives indicator derivation, point prediction,
// walk-forward backtesting and confidence estimation into a single forecast
// result.
package forecast

import (
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Forecaster/internal/backtest"
	"github.com/Alias1177/Forecaster/internal/indicators"
	"github.com/Alias1177/Forecaster/internal/predict"
	"github.com/Alias1177/Forecaster/models"
)

const (
	// evalWindow is the number of scored evaluation days; the backtest span
	// is evalWindow plus the horizon.
	evalWindow = 60
	// predictionWindowSize caps the indicator window fed to the predictor
	// and the confidence estimator.
	predictionWindowSize = 50
)

// Service orchestrates a forecast request. It keeps no per-request state and
// is safe for concurrent use.
type Service struct {
	backtester *backtest.Engine
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService creates a forecast service.
func NewService() *Service {
	return &Service{
		backtester: backtest.NewEngine(),
		logger:     log.With().Str("component", "forecast").Logger(),
		now:        time.Now,
	}
}

// Forecast produces a price prediction for targetDate from the supplied
// historical series. Indicator derivation and point prediction fail fast;
// the backtest degrades to a degenerate report instead of aborting, since
// historical accuracy is supplementary to the point forecast.
func (s *Service) Forecast(series models.PriceSeries, targetDate time.Time, currentPrice float64) (*models.PredictionResult, error) {
	now := s.now()
	horizonDays := int(targetDate.Sub(now).Hours() / 24)
	if horizonDays <= 0 {
		return nil, &models.InvalidTargetDateError{Target: targetDate.Format("2006-01-02")}
	}

	table, err := indicators.Derive(series)
	if err != nil {
		return nil, err
	}

	minRows := evalWindow + horizonDays
	if len(table) < minRows {
		return nil, &models.InsufficientDataError{Got: len(table), Need: minRows}
	}

	windowSize := predictionWindowSize
	if n := len(table) - 10; n < windowSize {
		windowSize = n
	}
	predictionWindow := table[len(table)-windowSize:]

	predictedPrice, err := predict.Price(predictionWindow, horizonDays)
	if err != nil {
		return nil, err
	}

	span := table[len(table)-minRows:]
	report := s.backtester.Run(table, span[0].Date, table.Last().Date, horizonDays)

	confidence := predict.Confidence(predictionWindow, horizonDays, predictedPrice)

	s.logger.Debug().
		Time("target_date", targetDate).
		Int("horizon_days", horizonDays).
		Float64("current_price", currentPrice).
		Float64("predicted_price", predictedPrice).
		Int("backtest_predictions", report.NPredictions).
		Msg("forecast assembled")

	report.MAPE = round2(report.MAPE)
	report.RMSE = round2(report.RMSE)
	report.DirectionalAccuracy = round2(report.DirectionalAccuracy)

	return &models.PredictionResult{
		CurrentPrice:     round2(currentPrice),
		TargetDate:       targetDate.Format("2006-01-02"),
		MedianPrediction: round2(predictedPrice),
		ConfidenceIntervals: map[string][2]float64{
			"80": {round2(confidence.CI80[0]), round2(confidence.CI80[1])},
			"95": {round2(confidence.CI95[0]), round2(confidence.CI95[1])},
		},
		ProbabilityWithin5Pct: round1(confidence.ProbabilityWithin5Pct),
		HistoricalAccuracy:    report,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
