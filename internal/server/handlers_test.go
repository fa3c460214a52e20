package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Alias1177/Forecaster/internal/api/yahoo"
	"github.com/Alias1177/Forecaster/internal/forecast"
)

func chartPayload(days int, closeAt func(i int) float64) string {
	start := time.Now().UTC().AddDate(0, 0, -days)
	timestamps := make([]string, days)
	closes := make([]string, days)
	for i := 0; i < days; i++ {
		timestamps[i] = fmt.Sprintf("%d", start.AddDate(0, 0, i).Unix())
		closes[i] = fmt.Sprintf("%g", closeAt(i))
	}
	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"timestamp": [%s],
				"indicators": {"quote": [{
					"open":   [%s],
					"high":   [%s],
					"low":    [%s],
					"close":  [%s],
					"volume": [%s]
				}]}
			}],
			"error": null
		}
	}`,
		strings.Join(timestamps, ","),
		strings.Join(closes, ","),
		strings.Join(closes, ","),
		strings.Join(closes, ","),
		strings.Join(closes, ","),
		strings.Join(timestamps, ","),
	)
}

// newTestRouter wires the handler against a stub market-data upstream.
func newTestRouter(t *testing.T, upstream http.HandlerFunc) *echo.Echo {
	t.Helper()
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	data := yahoo.NewClient(yahoo.ClientOptions{
		BaseURL:        server.URL,
		RequestTimeout: 5 * time.Second,
	})
	handler := NewHandler(data, forecast.NewService(), nil)

	e := echo.New()
	handler.RegisterRoutes(e)
	return e
}

func doRequest(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v: %s", err, rec.Body.String())
	}
	return body.Error
}

func TestHealth(t *testing.T) {
	e := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := doRequest(e, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if !body["ok"] {
		t.Errorf("body = %v, want ok=true", body)
	}
}

func TestHistoryValidation(t *testing.T) {
	e := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream should not be reached for invalid requests")
	})

	tests := []struct {
		name     string
		path     string
		wantText string
	}{
		{name: "missing ticker", path: "/history", wantText: "ticker is required"},
		{name: "ticker too long", path: "/history?ticker=TOOLONGTICKER", wantText: "between 1 and 10"},
		{name: "bad period", path: "/history?ticker=AAPL&period=3w", wantText: "period must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, tt.path)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if msg := decodeError(t, rec); !strings.Contains(msg, tt.wantText) {
				t.Errorf("error = %q, want it to contain %q", msg, tt.wantText)
			}
		})
	}
}

func TestHistorySuccess(t *testing.T) {
	e := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartPayload(5, func(i int) float64 { return 100 + float64(i) }))
	})

	rec := doRequest(e, "/history?ticker=aapl&period=1y")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body historyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Ticker != "AAPL" {
		t.Errorf("Ticker = %q, want uppercased AAPL", body.Ticker)
	}
	if body.Period != "1y" {
		t.Errorf("Period = %q, want 1y", body.Period)
	}
	if body.Interval != "1 day" {
		t.Errorf("Interval = %q, want %q", body.Interval, "1 day")
	}
	if len(body.Points) != 5 {
		t.Fatalf("len(Points) = %d, want 5", len(body.Points))
	}
	// Daily points carry date-only stamps.
	if _, err := time.Parse("2006-01-02", body.Points[0].Date); err != nil {
		t.Errorf("Points[0].Date = %q, want YYYY-MM-DD", body.Points[0].Date)
	}
}

func TestHistoryProviderError(t *testing.T) {
	e := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found"}}}`)
	})

	rec := doRequest(e, "/history?ticker=NOPE&period=1y")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := decodeError(t, rec); !strings.Contains(msg, "failed to load data") {
		t.Errorf("error = %q, want load failure message", msg)
	}
}

func TestIntradayDefaultsInterval(t *testing.T) {
	var gotQuery string
	e := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, chartPayload(3, func(i int) float64 { return 50 }))
	})

	rec := doRequest(e, "/intraday?ticker=TSLA")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(gotQuery, "interval=1m") || !strings.Contains(gotQuery, "range=5d") {
		t.Errorf("upstream query = %q, want interval=1m and range=5d", gotQuery)
	}

	var body intradayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Interval != "1m" {
		t.Errorf("Interval = %q, want 1m", body.Interval)
	}
	if _, err := time.Parse(time.RFC3339, body.Points[0].Date); err != nil {
		t.Errorf("Points[0].Date = %q, want RFC3339", body.Points[0].Date)
	}
}

func TestPredictValidation(t *testing.T) {
	e := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream should not be reached for invalid requests")
	})

	tests := []struct {
		name string
		path string
	}{
		{name: "missing target date", path: "/predict?ticker=AAPL"},
		{name: "bad target date format", path: "/predict?ticker=AAPL&target_date=06/15/2026"},
		{name: "missing ticker", path: "/predict?target_date=2026-09-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, tt.path)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPredictSuccess(t *testing.T) {
	e := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartPayload(200, func(i int) float64 { return 100 }))
	})

	target := time.Now().UTC().AddDate(0, 0, 10).Format("2006-01-02")
	rec := doRequest(e, "/predict?ticker=aapl&target_date="+target)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body predictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Ticker != "AAPL" {
		t.Errorf("Ticker = %q, want AAPL", body.Ticker)
	}
	if body.Prediction == nil {
		t.Fatal("Prediction missing")
	}
	if body.Prediction.MedianPrediction != 100 {
		t.Errorf("MedianPrediction = %v, want 100 for a flat series", body.Prediction.MedianPrediction)
	}
	if body.Prediction.TargetDate != target {
		t.Errorf("TargetDate = %q, want %q", body.Prediction.TargetDate, target)
	}
	if body.Prediction.HistoricalAccuracy == nil {
		t.Error("HistoricalAccuracy missing")
	}
}

func TestPredictInsufficientHistory(t *testing.T) {
	e := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartPayload(60, func(i int) float64 { return 100 }))
	})

	target := time.Now().UTC().AddDate(0, 0, 10).Format("2006-01-02")
	rec := doRequest(e, "/predict?ticker=AAPL&target_date="+target)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	if msg := decodeError(t, rec); !strings.Contains(msg, "insufficient historical data") {
		t.Errorf("error = %q, want insufficient historical data message", msg)
	}
}

func TestPredictPastTargetDate(t *testing.T) {
	e := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartPayload(200, func(i int) float64 { return 100 }))
	})

	rec := doRequest(e, "/predict?ticker=AAPL&target_date=2020-01-01")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}

	if msg := decodeError(t, rec); !strings.Contains(msg, "2020-01-01") {
		t.Errorf("error = %q, want it to name the rejected date", msg)
	}
}
