package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Forecaster/internal/api/yahoo"
	"github.com/Alias1177/Forecaster/internal/forecast"
	"github.com/Alias1177/Forecaster/internal/metrics"
	"github.com/Alias1177/Forecaster/models"
)

// predictHistoryPeriod is the chart period fetched for forecasts. It has to
// cover the 50-day indicator warmup plus the 60-day evaluation window plus
// the horizon, which a 6-month range cannot.
const predictHistoryPeriod = "1y"

var validate = validator.New()

// Handler serves the REST endpoints.
type Handler struct {
	data       *yahoo.Client
	forecaster *forecast.Service
	metrics    *metrics.Recorder
	logger     zerolog.Logger
}

// NewHandler creates the REST handler.
func NewHandler(data *yahoo.Client, forecaster *forecast.Service, recorder *metrics.Recorder) *Handler {
	return &Handler{
		data:       data,
		forecaster: forecaster,
		metrics:    recorder,
		logger:     log.With().Str("component", "handler").Logger(),
	}
}

// RegisterRoutes attaches all endpoints to the Echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/history", h.History)
	e.GET("/intraday", h.Intraday)
	e.GET("/predict", h.Predict)
}

type errorResponse struct {
	Error string `json:"error"`
}

type pricePointJSON struct {
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
	Open   float64 `json:"open,omitempty"`
	High   float64 `json:"high,omitempty"`
	Low    float64 `json:"low,omitempty"`
	Volume int64   `json:"volume,omitempty"`
}

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type historyRequest struct {
	Ticker string `query:"ticker" validate:"required,min=1,max=10"`
	Period string `query:"period" validate:"omitempty,oneof=1d 1w 1mo 1y 2y 5y 10y max"`
}

type historyResponse struct {
	Ticker   string           `json:"ticker"`
	Period   string           `json:"period"`
	Points   []pricePointJSON `json:"points"`
	Interval string           `json:"interval"`
}

// History returns normalized OHLCV points for a ticker and chart period.
func (h *Handler) History(c echo.Context) error {
	req := &historyRequest{}
	if err := bindAndValidate(c, req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if req.Period == "" {
		req.Period = "2y"
	}
	ticker := strings.ToUpper(req.Ticker)

	series, err := h.data.GetHistory(c.Request().Context(), ticker, req.Period)
	if err != nil {
		h.metrics.RecordProviderError("history")
		h.logger.Error().Err(err).Str("ticker", ticker).Msg("history fetch failed")
		return c.JSON(providerStatus(err), errorResponse{Error: "failed to load data: " + err.Error()})
	}

	layout := "2006-01-02"
	if req.Period == "1d" {
		layout = time.RFC3339
	}

	return c.JSON(http.StatusOK, historyResponse{
		Ticker:   ticker,
		Period:   req.Period,
		Points:   toPointJSON(series, layout),
		Interval: yahoo.IntervalLabel(req.Period),
	})
}

type intradayRequest struct {
	Ticker   string `query:"ticker" validate:"required,min=1,max=10"`
	Interval string `query:"interval" validate:"omitempty,oneof=1m 2m 5m 15m 30m 60m 90m 1h 1d 5d 1wk 1mo 3mo"`
}

type intradayResponse struct {
	Ticker   string           `json:"ticker"`
	Interval string           `json:"interval"`
	Points   []pricePointJSON `json:"points"`
}

// Intraday returns higher-frequency bars for a ticker.
func (h *Handler) Intraday(c echo.Context) error {
	req := &intradayRequest{}
	if err := bindAndValidate(c, req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if req.Interval == "" {
		req.Interval = "1m"
	}
	ticker := strings.ToUpper(req.Ticker)

	series, err := h.data.GetIntraday(c.Request().Context(), ticker, req.Interval)
	if err != nil {
		h.metrics.RecordProviderError("intraday")
		h.logger.Error().Err(err).Str("ticker", ticker).Msg("intraday fetch failed")
		return c.JSON(providerStatus(err), errorResponse{Error: "failed to load intraday data: " + err.Error()})
	}

	return c.JSON(http.StatusOK, intradayResponse{
		Ticker:   ticker,
		Interval: req.Interval,
		Points:   toPointJSON(series, time.RFC3339),
	})
}

type predictRequest struct {
	Ticker     string `query:"ticker" validate:"required,min=1,max=10"`
	TargetDate string `query:"target_date" validate:"required,datetime=2006-01-02"`
}

type predictResponse struct {
	Ticker     string                   `json:"ticker"`
	Prediction *models.PredictionResult `json:"prediction"`
}

// Predict returns a price forecast with confidence intervals and historical
// accuracy for a future target date.
func (h *Handler) Predict(c echo.Context) error {
	req := &predictRequest{}
	if err := bindAndValidate(c, req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	ticker := strings.ToUpper(req.Ticker)

	targetDate, err := time.Parse("2006-01-02", req.TargetDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "target_date must be YYYY-MM-DD"})
	}

	h.logger.Info().Str("ticker", ticker).Str("target_date", req.TargetDate).Msg("prediction requested")

	series, err := h.data.GetHistory(c.Request().Context(), ticker, predictHistoryPeriod)
	if err != nil {
		h.metrics.RecordProviderError("predict")
		h.logger.Error().Err(err).Str("ticker", ticker).Msg("predict data fetch failed")
		return c.JSON(providerStatus(err), errorResponse{Error: "failed to load data: " + err.Error()})
	}
	currentPrice := series[len(series)-1].Close

	start := time.Now()
	result, err := h.forecaster.Forecast(series, targetDate, currentPrice)
	h.metrics.ObserveForecastDuration(time.Since(start).Seconds())
	if err != nil {
		return c.JSON(coreStatus(err), errorResponse{Error: err.Error()})
	}

	h.metrics.RecordForecast(ticker)
	return c.JSON(http.StatusOK, predictResponse{Ticker: ticker, Prediction: result})
}

func toPointJSON(series models.PriceSeries, layout string) []pricePointJSON {
	points := make([]pricePointJSON, len(series))
	for i, p := range series {
		points[i] = pricePointJSON{
			Date:   p.Date.Format(layout),
			Close:  p.Close,
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Volume: p.Volume,
		}
	}
	return points
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.New("malformed query parameters")
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			return errors.New(validationMessage(validationErrors[0]))
		}
		return err
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "max":
		return field + " must be between 1 and 10 characters"
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return field + " must be formatted as " + fe.Param()
	default:
		return field + " failed validation: " + fe.Tag()
	}
}

// coreStatus maps forecasting-core failures onto HTTP statuses: value-level
// input faults are client errors, anything else is internal.
func coreStatus(err error) int {
	var (
		insufficient *models.InsufficientDataError
		horizon      *models.InvalidHorizonError
		target       *models.InvalidTargetDateError
		quality      *models.DataQualityError
	)
	switch {
	case errors.As(err, &insufficient),
		errors.As(err, &horizon),
		errors.As(err, &target),
		errors.As(err, &quality):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// providerStatus maps market-data retrieval failures: provider-reported
// errors (bad ticker, no data) are client errors, transport failures are a
// bad gateway.
func providerStatus(err error) int {
	var providerErr *yahoo.ProviderError
	if errors.As(err, &providerErr) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
