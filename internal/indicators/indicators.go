// Package indicators derives the technical indicator table the forecasting
// core runs on: daily returns, 50-day moving average, 20-day momentum and
// 20-day return volatility.
package indicators

import (
	"math"

	"github.com/Alias1177/Forecaster/models"
)

const (
	// MAWindow is the simple moving average window in trading days.
	MAWindow = 50
	// MomentumWindow is the momentum lookback in trading days.
	MomentumWindow = 20
	// VolatilityWindow is the return volatility window in trading days.
	VolatilityWindow = 20

	// warmup is the number of leading price rows that never produce an
	// indicator row. MinSeriesLen is warmup plus one output row.
	warmup       = MAWindow
	MinSeriesLen = warmup + 1
)

// Derive computes the indicator table for a chronologically sorted price
// series. The first 50 input rows are consumed as history and dropped; the
// result has exactly len(series)-50 rows. The caller's series is never
// mutated.
func Derive(series models.PriceSeries) (models.IndicatorTable, error) {
	if len(series) < MinSeriesLen {
		return nil, &models.InsufficientDataError{Got: len(series), Need: MinSeriesLen}
	}

	// Daily returns, defined from index 1 onward.
	returns := make([]float64, len(series))
	for t := 1; t < len(series); t++ {
		prev := series[t-1].Close
		if prev == 0 {
			return nil, &models.DataQualityError{
				Field:  "close",
				Detail: "zero closing price at " + series[t-1].Date.Format("2006-01-02"),
			}
		}
		returns[t] = series[t].Close/prev - 1
	}

	table := make(models.IndicatorTable, 0, len(series)-warmup)
	for t := warmup; t < len(series); t++ {
		row := models.IndicatorRow{
			Date:         series[t].Date,
			Close:        series[t].Close,
			Return:       returns[t],
			MA50:         mean(closes(series[t-MAWindow+1 : t+1])),
			Momentum20:   series[t].Close/series[t-MomentumWindow].Close - 1,
			Volatility20: sampleStdDev(returns[t-VolatilityWindow+1 : t+1]),
		}
		if math.IsNaN(row.MA50) || math.IsNaN(row.Momentum20) || math.IsNaN(row.Volatility20) {
			return nil, &models.DataQualityError{
				Field:  "indicators",
				Detail: "NaN indicator value at " + row.Date.Format("2006-01-02"),
			}
		}
		table = append(table, row)
	}

	return table, nil
}

func closes(points []models.PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Close
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev computes the n-1 denominator standard deviation.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - m
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)-1))
}
