package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockpulse/pkg/config"
	"stockpulse/pkg/feed"
)

func alphaConfig() config.Config {
	return config.Config{
		AlphaVantageKey: "test-key",
		APITimeout:      5 * time.Second,
	}
}

func newAlphaServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		require.NotEmpty(t, r.URL.Query().Get("symbol"))
		require.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(body))
	}))
}

func TestAlphaVantageDownload(t *testing.T) {
	body := `{
		"Meta Data": {"2. Symbol": "GOOGL"},
		"Time Series (Daily)": {
			"2024-01-03": {"1. open": "101.0", "2. high": "102.5", "3. low": "100.0", "4. close": "102.0", "5. volume": "2000000"},
			"2024-01-02": {"1. open": "100.0", "2. high": "101.0", "3. low": "99.0", "4. close": "100.5", "5. volume": "1000000"}
		}
	}`
	srv := newAlphaServer(t, body)
	defer srv.Close()

	consumer := feed.NewAlphaVantageFeed(alphaConfig(), zap.NewNop(), feed.WithAlphaVantageURL(srv.URL))
	records, err := consumer.DownloadDailySeries(context.Background(), "GOOGL")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Ascending date order, fully parsed values.
	require.Equal(t, "2024-01-02", records[0].Date)
	require.Equal(t, "GOOGL", records[0].Symbol)
	require.Equal(t, 100.0, records[0].Open)
	require.Equal(t, 101.0, records[0].High)
	require.Equal(t, 99.0, records[0].Low)
	require.Equal(t, 100.5, records[0].Close)
	require.Equal(t, int64(1000000), records[0].Volume)
	require.Equal(t, "2024-01-03", records[1].Date)
}

func TestAlphaVantageDownloadNoData(t *testing.T) {
	cases := map[string]string{
		"error message":        `{"Error Message": "Invalid API call"}`,
		"rate limit note":      `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 25 requests per day"}`,
		"missing series field": `{"Meta Data": {"2. Symbol": "GOOGL"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newAlphaServer(t, body)
			defer srv.Close()

			consumer := feed.NewAlphaVantageFeed(alphaConfig(), zap.NewNop(), feed.WithAlphaVantageURL(srv.URL))
			records, err := consumer.DownloadDailySeries(context.Background(), "GOOGL")
			require.NoError(t, err)
			require.Empty(t, records)
		})
	}
}

func TestAlphaVantageDownloadMalformedJSON(t *testing.T) {
	srv := newAlphaServer(t, `{"Time Series (Daily)": `)
	defer srv.Close()

	consumer := feed.NewAlphaVantageFeed(alphaConfig(), zap.NewNop(), feed.WithAlphaVantageURL(srv.URL))
	records, err := consumer.DownloadDailySeries(context.Background(), "GOOGL")
	require.Error(t, err)
	require.Empty(t, records)
}

func TestAlphaVantageDownloadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	consumer := feed.NewAlphaVantageFeed(alphaConfig(), zap.NewNop(), feed.WithAlphaVantageURL(srv.URL))
	records, err := consumer.DownloadDailySeries(context.Background(), "GOOGL")
	require.Error(t, err)
	require.Empty(t, records)
}

func TestNormalizeDailySeriesVolumeWithDecimal(t *testing.T) {
	series := map[string]feed.DailyQuote{
		"2024-01-02": {Open: "100.0", High: "101.0", Low: "99.0", Close: "100.5", Volume: "123.0"},
	}
	records := feed.NormalizeDailySeries(series, "GOOGL", zap.NewNop())
	require.Len(t, records, 1)
	require.Equal(t, int64(123), records[0].Volume)
}

func TestNormalizeDailySeriesSkipsInvalidRecord(t *testing.T) {
	series := map[string]feed.DailyQuote{
		"2024-01-02": {Open: "100.0", High: "101.0", Low: "99.0", Close: "100.5", Volume: "1000"},
		"2024-01-03": {Open: "101.0", High: "102.0", Low: "100.0", Volume: "2000"}, // no close
		"2024-01-04": {Open: "102.0", High: "103.0", Low: "101.0", Close: "102.5", Volume: "3000"},
	}
	records := feed.NormalizeDailySeries(series, "GOOGL", zap.NewNop())
	require.Len(t, records, 2)
	require.Equal(t, "2024-01-02", records[0].Date)
	require.Equal(t, "2024-01-04", records[1].Date)
}

func TestNormalizeDailySeriesRejectsNegativePrice(t *testing.T) {
	series := map[string]feed.DailyQuote{
		"2024-01-02": {Open: "-1.0", High: "101.0", Low: "99.0", Close: "100.5", Volume: "1000"},
	}
	records := feed.NormalizeDailySeries(series, "GOOGL", zap.NewNop())
	require.Empty(t, records)
}

func TestNormalizeDailySeriesIsIdempotent(t *testing.T) {
	series := map[string]feed.DailyQuote{
		"2024-01-03": {Open: "101.0", High: "102.5", Low: "100.0", Close: "102.0", Volume: "2000000"},
		"2024-01-02": {Open: "100.0", High: "101.0", Low: "99.0", Close: "100.5", Volume: "1000000"},
		"2024-01-05": {Open: "103.0", High: "104.0", Low: "102.0", Close: "103.5", Volume: "1500000"},
	}
	first := feed.NormalizeDailySeries(series, "GOOGL", zap.NewNop())
	second := feed.NormalizeDailySeries(series, "GOOGL", zap.NewNop())
	require.Equal(t, first, second)
}
