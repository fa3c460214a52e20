// Package predict implements the momentum + mean-reversion point forecast
// and the volatility-based confidence estimate around it.
package predict

import (
	"math"

	"github.com/Alias1177/Forecaster/internal/indicators"
	"github.com/Alias1177/Forecaster/models"
)

// meanReversionRate is the fraction of the MA50 deviation pulled back per
// horizon day.
const meanReversionRate = 0.1

// Price produces a point forecast horizonDays ahead from the last row of the
// supplied indicator table. The caller controls which row is "last" by
// slicing the table, which is how the backtester simulates an as-of date.
// The function is deterministic and applies no bounds of its own.
func Price(table models.IndicatorTable, horizonDays int) (float64, error) {
	if horizonDays <= 0 {
		return 0, &models.InvalidHorizonError{Horizon: horizonDays}
	}
	if len(table) == 0 {
		return 0, &models.InsufficientDataError{Got: 0, Need: 1}
	}

	row := table.Last()
	if row.MA50 == 0 {
		return 0, &models.DataQualityError{
			Field:  "ma50",
			Detail: "zero moving average at " + row.Date.Format("2006-01-02"),
		}
	}

	// Momentum scales with the square root of elapsed time; mean reversion
	// pulls toward the 50-day average proportionally to horizon and
	// deviation; volatility amplifies the combined effect.
	momentumEffect := row.Momentum20 * math.Sqrt(float64(horizonDays)/float64(indicators.MomentumWindow))
	maDiff := (row.Close - row.MA50) / row.MA50
	meanReversion := -maDiff * meanReversionRate * float64(horizonDays)
	totalEffect := (momentumEffect + meanReversion) * (1 + row.Volatility20)

	return row.Close * (1 + totalEffect), nil
}
