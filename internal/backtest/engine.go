// Package backtest scores the point-prediction formula against realized
// prices with a walk-forward evaluation.
package backtest

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Forecaster/internal/predict"
	"github.com/Alias1177/Forecaster/models"
)

// Engine runs walk-forward backtests. It holds no state between runs; two
// runs over identical inputs produce identical reports.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates a backtesting engine.
func NewEngine() *Engine {
	return &Engine{
		logger: log.With().Str("component", "backtest").Logger(),
	}
}

// Run evaluates the predictor over every table row whose date falls in
// [startDate, endDate], scoring each prediction against the close
// horizonDays rows later. Each as-of prediction sees the full table up to
// its own date (expanding window anchored at the series start); the
// evaluation range restricts which predictions are scored, not which
// history they may use.
//
// A window too short to score a single prediction yields a degenerate report
// with NaN metrics rather than an error.
func (e *Engine) Run(table models.IndicatorTable, startDate, endDate time.Time, horizonDays int) *models.BacktestReport {
	testSlice := sliceByDate(table, startDate, endDate)

	report := &models.BacktestReport{
		MAPE:                math.NaN(),
		RMSE:                math.NaN(),
		DirectionalAccuracy: math.NaN(),
	}
	if len(testSlice) > 0 {
		report.DateRange = testSlice[0].Date.Format("2006-01-02") + " to " +
			testSlice[len(testSlice)-1].Date.Format("2006-01-02")
	}
	if len(testSlice) <= horizonDays {
		e.logger.Debug().
			Int("rows", len(testSlice)).
			Int("horizon", horizonDays).
			Msg("evaluation window too short, returning degenerate report")
		return report
	}

	var (
		predictions []float64
		actuals     []float64
		anchors     []float64 // close on the prediction day
		nextCloses  []float64 // close one row after the prediction day
	)

	for i := 0; i < len(testSlice)-horizonDays; i++ {
		asOf := tableUpTo(table, testSlice[i].Date)

		prediction, err := predict.Price(asOf, horizonDays)
		if err != nil {
			// Data-quality faults on a single as-of day degrade the
			// report instead of failing the whole forecast.
			e.logger.Warn().Err(err).
				Time("as_of", testSlice[i].Date).
				Msg("skipping unpredictable evaluation day")
			continue
		}

		predictions = append(predictions, prediction)
		actuals = append(actuals, testSlice[i+horizonDays].Close)
		anchors = append(anchors, testSlice[i].Close)
		nextCloses = append(nextCloses, testSlice[i+1].Close)
	}

	report.NPredictions = len(predictions)
	if len(predictions) == 0 {
		return report
	}

	var sumAbsErr, sumSqErr float64
	directionalHits := 0
	for i := range predictions {
		relErr := (predictions[i] - actuals[i]) / actuals[i]
		sumAbsErr += math.Abs(relErr)

		diff := predictions[i] - actuals[i]
		sumSqErr += diff * diff

		// One-step realized direction against the horizon-step predicted
		// move; the mismatched lookaheads are part of the metric contract.
		if sign(nextCloses[i]-anchors[i]) == sign(predictions[i]-anchors[i]) {
			directionalHits++
		}
	}

	n := float64(len(predictions))
	report.MAPE = sumAbsErr / n * 100
	report.RMSE = math.Sqrt(sumSqErr / n)
	report.DirectionalAccuracy = float64(directionalHits) / n * 100

	e.logger.Debug().
		Int("predictions", report.NPredictions).
		Float64("mape", report.MAPE).
		Float64("rmse", report.RMSE).
		Float64("directional_accuracy", report.DirectionalAccuracy).
		Str("range", report.DateRange).
		Msg("backtest complete")

	return report
}

// sliceByDate returns the rows with dates in [start, end]. The table is
// sorted, so both bounds are found by binary search.
func sliceByDate(table models.IndicatorTable, start, end time.Time) models.IndicatorTable {
	lo := sort.Search(len(table), func(i int) bool {
		return !table[i].Date.Before(start)
	})
	hi := sort.Search(len(table), func(i int) bool {
		return table[i].Date.After(end)
	})
	if lo >= hi {
		return nil
	}
	return table[lo:hi]
}

// tableUpTo returns the prefix of rows with dates <= asOf.
func tableUpTo(table models.IndicatorTable, asOf time.Time) models.IndicatorTable {
	hi := sort.Search(len(table), func(i int) bool {
		return table[i].Date.After(asOf)
	})
	return table[:hi]
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
