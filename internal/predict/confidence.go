package predict

import (
	"math"

	"github.com/Alias1177/Forecaster/models"
)

// z-scores for the symmetric interval widths.
const (
	z80 = 1.28
	z95 = 1.96
)

// maxProbability caps the within-5% probability so the estimate never claims
// near-certainty.
const maxProbability = 95.0

// Confidence derives interval and probability estimates around predictedPrice
// from the return volatility of the prediction window, scaled with the square
// root of the horizon. Both intervals are centered on the prediction, so the
// 95% band always contains the 80% band.
func Confidence(window models.IndicatorTable, horizonDays int, predictedPrice float64) models.Confidence {
	returns := make([]float64, len(window))
	for i, row := range window {
		returns[i] = row.Return
	}
	volatility := sampleStdDev(returns) * math.Sqrt(float64(horizonDays))

	probability := 100 * (1 - volatility)
	if probability > maxProbability {
		probability = maxProbability
	}
	if probability < 0 {
		probability = 0
	}

	return models.Confidence{
		CI80: [2]float64{
			predictedPrice * (1 - z80*volatility),
			predictedPrice * (1 + z80*volatility),
		},
		CI95: [2]float64{
			predictedPrice * (1 - z95*volatility),
			predictedPrice * (1 + z95*volatility),
		},
		ProbabilityWithin5Pct: probability,
	}
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))

	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - m
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)-1))
}
