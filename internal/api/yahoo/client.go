// Package yahoo retrieves and normalizes OHLCV history from the Yahoo
// Finance chart API.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/Alias1177/Forecaster/internal/cache"
	httpClient "github.com/Alias1177/Forecaster/internal/platform/http"
	"github.com/Alias1177/Forecaster/models"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// rangeSpec maps a chart period to the provider range and bar interval.
type rangeSpec struct {
	Range    string
	Interval string
}

// periodRanges maps chart periods to provider queries. The single-day view
// fetches hourly bars over five days; short views fetch daily bars over
// longer ranges for context.
var periodRanges = map[string]rangeSpec{
	"1d":  {"5d", "1h"},
	"1w":  {"3mo", "1d"},
	"1mo": {"6mo", "1d"},
	"1y":  {"1y", "1d"},
	"2y":  {"2y", "1d"},
	"5y":  {"5y", "1d"},
	"10y": {"10y", "1d"},
	"max": {"max", "1d"},
}

var intervalLabels = map[string]string{
	"1d":  "1 hour (5 days view)",
	"1w":  "1 day (3 months view)",
	"1mo": "1 day (6 months view)",
	"1y":  "1 day",
	"2y":  "1 day",
	"5y":  "1 day",
	"10y": "1 day",
	"max": "1 day",
}

// IntervalLabel returns a human-readable description of the bar interval
// used for a chart period.
func IntervalLabel(period string) string {
	if label, ok := intervalLabels[period]; ok {
		return label
	}
	return "1 day"
}

// ProviderError represents an error reported by the market-data provider.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %s: %s", e.Code, e.Description)
}

// Client is the Yahoo Finance chart API client.
type Client struct {
	baseURL    string
	httpClient *httpClient.Client
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Client.
type ClientOptions struct {
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
	Cache           cache.Cache
	CacheTTL        time.Duration
}

// NewClient creates a Yahoo chart API client.
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = defaultBaseURL
	}
	if options.CacheTTL == 0 {
		options.CacheTTL = 5 * time.Minute
	}

	return &Client{
		baseURL: options.BaseURL,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		cache:    options.Cache,
		cacheTTL: options.CacheTTL,
		logger:   log.With().Str("component", "yahoo_client").Logger(),
	}
}

// GetHistory fetches the normalized price series for a chart period
// (1d, 1w, 1mo, 1y, 2y, 5y, 10y, max). Daily bars are deduplicated per
// calendar day and sorted ascending.
func (c *Client) GetHistory(ctx context.Context, ticker, period string) (models.PriceSeries, error) {
	spec, ok := periodRanges[period]
	if !ok {
		return nil, fmt.Errorf("unsupported period %q", period)
	}
	return c.fetchChart(ctx, ticker, spec.Range, spec.Interval, spec.Interval == "1d")
}

// GetIntraday fetches higher-frequency bars for one of the provider's raw
// intervals (1m..3mo).
func (c *Client) GetIntraday(ctx context.Context, ticker, interval string) (models.PriceSeries, error) {
	// Minute-level bars are only available for recent days.
	rng := "1mo"
	switch interval {
	case "1m", "2m", "5m", "15m", "30m":
		rng = "5d"
	}
	return c.fetchChart(ctx, ticker, rng, interval, false)
}

func (c *Client) fetchChart(ctx context.Context, ticker, rng, interval string, daily bool) (models.PriceSeries, error) {
	cacheKey := fmt.Sprintf("chart:%s:%s:%s", ticker, rng, interval)
	if c.cache != nil {
		var cached models.PriceSeries
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil {
			c.logger.Debug().Str("key", cacheKey).Msg("chart served from cache")
			return cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", cacheKey).Msg("cache read failed")
		}
	}

	reqURL := fmt.Sprintf(
		"%s/v8/finance/chart/%s?range=%s&interval=%s&includePrePost=false",
		c.baseURL, url.PathEscape(ticker), rng, interval,
	)

	c.logger.Debug().Str("url", reqURL).Msg("fetching chart")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Forecaster/1.0)")

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chart request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	series, err := c.parseChart(body, daily)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, &ProviderError{Code: "empty", Description: "no data returned, check the ticker"}
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, series, c.cacheTTL); err != nil {
			c.logger.Warn().Err(err).Str("key", cacheKey).Msg("cache write failed")
		}
	}

	c.logger.Debug().Int("points", len(series)).Str("ticker", ticker).Msg("fetched chart")
	return series, nil
}

// parseChart extracts the timestamp and quote arrays from a chart API
// response. Bars without a close are dropped; for daily series, bars that
// collapse onto the same calendar day keep only the latest.
func (c *Client) parseChart(body []byte, daily bool) (models.PriceSeries, error) {
	if apiErr := gjson.GetBytes(body, "chart.error"); apiErr.Exists() && apiErr.Type != gjson.Null {
		c.logger.Error().Str("response", apiErr.Raw).Msg("chart API error")
		return nil, &ProviderError{
			Code:        apiErr.Get("code").String(),
			Description: apiErr.Get("description").String(),
		}
	}

	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return nil, &ProviderError{Code: "malformed", Description: "missing chart result"}
	}

	timestamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	series := make(models.PriceSeries, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(closes) || closes[i].Type == gjson.Null {
			continue
		}

		point := models.PricePoint{
			Date:  time.Unix(ts.Int(), 0).UTC(),
			Close: closes[i].Float(),
		}
		if i < len(opens) && opens[i].Type != gjson.Null {
			point.Open = opens[i].Float()
		}
		if i < len(highs) && highs[i].Type != gjson.Null {
			point.High = highs[i].Float()
		}
		if i < len(lows) && lows[i].Type != gjson.Null {
			point.Low = lows[i].Float()
		}
		if i < len(volumes) && volumes[i].Type != gjson.Null {
			point.Volume = volumes[i].Int()
		}

		series = append(series, point)
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	if daily {
		// Sorted by full timestamp first, so the latest bar of a repeated
		// calendar day wins regardless of provider ordering.
		deduped := series[:0]
		for _, point := range series {
			point.Date = point.Date.Truncate(24 * time.Hour)
			if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(point.Date) {
				deduped[n-1] = point
				continue
			}
			deduped = append(deduped, point)
		}
		series = deduped
	}

	return series, nil
}
