package models

import (
	"encoding/json"
	"math"
	"time"
)

// PricePoint represents a single day (or intraday bar) of normalized OHLCV data.
// Close is always present; open/high/low/volume may be zero when the provider
// omits them.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open,omitempty"`
	High   float64   `json:"high,omitempty"`
	Low    float64   `json:"low,omitempty"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume,omitempty"`
}

// PriceSeries is a chronologically sorted sequence of price points with
// strictly increasing dates. The data layer owns construction; the forecasting
// core treats it as immutable input.
type PriceSeries []PricePoint

// IndicatorRow is one observation of the derived indicator table. A row exists
// only where every field is computable from real history.
type IndicatorRow struct {
	Date         time.Time `json:"date"`
	Close        float64   `json:"close"`
	Return       float64   `json:"return"`
	MA50         float64   `json:"ma50"`
	Momentum20   float64   `json:"momentum20"`
	Volatility20 float64   `json:"volatility20"`
}

// IndicatorTable is the derived indicator series, aligned 1:1 with a suffix of
// the source PriceSeries and preserving its chronological order.
type IndicatorTable []IndicatorRow

// Last returns the most recent row. Callers must check Len first.
func (t IndicatorTable) Last() IndicatorRow {
	return t[len(t)-1]
}

// BacktestReport aggregates walk-forward error statistics. When NPredictions
// is zero the report is degenerate and the metric fields are NaN, not zero.
type BacktestReport struct {
	MAPE                float64 `json:"mape"`
	RMSE                float64 `json:"rmse"`
	DirectionalAccuracy float64 `json:"directional_accuracy"`
	NPredictions        int     `json:"n_predictions"`
	DateRange           string  `json:"date_range"`
}

// Degenerate reports whether the backtest scored zero predictions.
func (r *BacktestReport) Degenerate() bool {
	return r.NPredictions == 0
}

// MarshalJSON serializes NaN metrics of a degenerate report as null, since
// JSON has no NaN representation.
func (r *BacktestReport) MarshalJSON() ([]byte, error) {
	type alias struct {
		MAPE                *float64 `json:"mape"`
		RMSE                *float64 `json:"rmse"`
		DirectionalAccuracy *float64 `json:"directional_accuracy"`
		NPredictions        int      `json:"n_predictions"`
		DateRange           string   `json:"date_range"`
	}
	a := alias{
		NPredictions: r.NPredictions,
		DateRange:    r.DateRange,
	}
	if !math.IsNaN(r.MAPE) {
		a.MAPE = &r.MAPE
	}
	if !math.IsNaN(r.RMSE) {
		a.RMSE = &r.RMSE
	}
	if !math.IsNaN(r.DirectionalAccuracy) {
		a.DirectionalAccuracy = &r.DirectionalAccuracy
	}
	return json.Marshal(a)
}

// Confidence holds the interval and probability estimates around a point
// forecast. Both intervals are symmetric scalings of the same prediction, so
// CI95 always contains CI80.
type Confidence struct {
	CI80                  [2]float64 `json:"80"`
	CI95                  [2]float64 `json:"95"`
	ProbabilityWithin5Pct float64    `json:"probability_within_5_percent"`
}

// PredictionResult is the assembled forecast returned to the service layer.
type PredictionResult struct {
	CurrentPrice          float64               `json:"current_price"`
	TargetDate            string                `json:"target_date"`
	MedianPrediction      float64               `json:"median_prediction"`
	ConfidenceIntervals   map[string][2]float64 `json:"confidence_intervals"`
	ProbabilityWithin5Pct float64               `json:"probability_within_5_percent"`
	HistoricalAccuracy    *BacktestReport       `json:"historical_accuracy"`
}
