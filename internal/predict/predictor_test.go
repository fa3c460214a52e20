package predict

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Alias1177/Forecaster/models"
)

func tableWithLastRow(row models.IndicatorRow) models.IndicatorTable {
	row.Date = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return models.IndicatorTable{row}
}

func TestPriceDeterministic(t *testing.T) {
	table := tableWithLastRow(models.IndicatorRow{
		Close:        102.5,
		MA50:         99.1,
		Momentum20:   0.04,
		Volatility20: 0.012,
	})

	first, err := Price(table, 7)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Price(table, 7)
		if err != nil {
			t.Fatalf("Price() error = %v", err)
		}
		if again != first {
			t.Fatalf("Price() = %v on repeat, want %v", again, first)
		}
	}
}

func TestPriceFlatMarket(t *testing.T) {
	// Zero momentum and price sitting on its moving average leave the
	// forecast exactly at the current close.
	table := tableWithLastRow(models.IndicatorRow{
		Close:        100,
		MA50:         100,
		Momentum20:   0,
		Volatility20: 0,
	})

	got, err := Price(table, 30)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if got != 100 {
		t.Errorf("Price() = %v, want exactly 100", got)
	}
}

func TestPriceMomentumSqrtScaling(t *testing.T) {
	// With the mean-reversion term switched off (close == ma50), doubling
	// the horizon scales the momentum effect by sqrt(2).
	table := tableWithLastRow(models.IndicatorRow{
		Close:        100,
		MA50:         100,
		Momentum20:   0.05,
		Volatility20: 0,
	})

	p10, err := Price(table, 10)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	p20, err := Price(table, 20)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}

	effect10 := p10/100 - 1
	effect20 := p20/100 - 1
	if math.Abs(effect20/effect10-math.Sqrt2) > 1e-9 {
		t.Errorf("effect ratio = %v, want sqrt(2)", effect20/effect10)
	}
}

func TestPriceMeanReversionPullsTowardMA(t *testing.T) {
	above := tableWithLastRow(models.IndicatorRow{
		Close:        110,
		MA50:         100,
		Momentum20:   0,
		Volatility20: 0,
	})
	below := tableWithLastRow(models.IndicatorRow{
		Close:        90,
		MA50:         100,
		Momentum20:   0,
		Volatility20: 0,
	})

	pAbove, err := Price(above, 5)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	pBelow, err := Price(below, 5)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}

	if pAbove >= 110 {
		t.Errorf("price above MA should be pulled down, got %v", pAbove)
	}
	if pBelow <= 90 {
		t.Errorf("price below MA should be pulled up, got %v", pBelow)
	}
}

func TestPriceVolatilityAmplifiesEffect(t *testing.T) {
	calm := tableWithLastRow(models.IndicatorRow{
		Close:        100,
		MA50:         100,
		Momentum20:   0.05,
		Volatility20: 0,
	})
	turbulent := tableWithLastRow(models.IndicatorRow{
		Close:        100,
		MA50:         100,
		Momentum20:   0.05,
		Volatility20: 0.5,
	})

	pCalm, err := Price(calm, 10)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	pTurbulent, err := Price(turbulent, 10)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}

	calmEffect := pCalm/100 - 1
	turbulentEffect := pTurbulent/100 - 1
	if math.Abs(turbulentEffect/calmEffect-1.5) > 1e-9 {
		t.Errorf("volatility multiplier = %v, want 1.5", turbulentEffect/calmEffect)
	}
}

func TestPriceInvalidHorizon(t *testing.T) {
	table := tableWithLastRow(models.IndicatorRow{Close: 100, MA50: 100})

	for _, horizon := range []int{0, -1, -30} {
		_, err := Price(table, horizon)
		var horizonErr *models.InvalidHorizonError
		if !errors.As(err, &horizonErr) {
			t.Errorf("Price(horizon=%d) error = %v, want InvalidHorizonError", horizon, err)
		}
	}
}

func TestPriceZeroMovingAverage(t *testing.T) {
	table := tableWithLastRow(models.IndicatorRow{Close: 100, MA50: 0})

	_, err := Price(table, 5)

	var qualityErr *models.DataQualityError
	if !errors.As(err, &qualityErr) {
		t.Fatalf("Price() error = %v, want DataQualityError", err)
	}
}

func TestPriceEmptyTable(t *testing.T) {
	_, err := Price(models.IndicatorTable{}, 5)

	var insufficientErr *models.InsufficientDataError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("Price() error = %v, want InsufficientDataError", err)
	}
}
