package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"stockpulse/pkg/config"
	"stockpulse/pkg/httpx"
	"stockpulse/pkg/model"
)

const (
	AlphaVantageURL = "https://www.alphavantage.co/query"
	alphaFunction   = "TIME_SERIES_DAILY"
)

// DailySeriesResponse is the shape of an Alpha Vantage TIME_SERIES_DAILY
// reply. ErrorMessage and Note are mutually exclusive with TimeSeries:
// the API reports bad symbols through the former and rate limiting
// through the latter, both with HTTP 200.
type DailySeriesResponse struct {
	ErrorMessage string                `json:"Error Message"`
	Note         string                `json:"Note"`
	TimeSeries   map[string]DailyQuote `json:"Time Series (Daily)"`
}

// DailyQuote carries one trading day's values. Alpha Vantage emits every
// number as a string under a numbered field label.
type DailyQuote struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type alphaVantageFeed struct {
	apiKey  string
	baseURL string
	client  *httpx.Client
	logger  *zap.Logger
}

// AlphaVantageOption customizes the Alpha Vantage adapter.
type AlphaVantageOption func(*alphaVantageFeed)

// WithAlphaVantageURL overrides the query endpoint.
func WithAlphaVantageURL(u string) AlphaVantageOption {
	return func(f *alphaVantageFeed) { f.baseURL = u }
}

func NewAlphaVantageFeed(cfg config.Config, logger *zap.Logger, opts ...AlphaVantageOption) FeedConsumer {
	f := &alphaVantageFeed{
		apiKey:  cfg.AlphaVantageKey,
		baseURL: AlphaVantageURL,
		client:  httpx.New(cfg.APITimeout),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *alphaVantageFeed) Source() config.Source {
	return config.SourceAlphaVantage
}

func (f *alphaVantageFeed) DownloadDailySeries(ctx context.Context, symbol string) ([]model.PriceRecord, error) {
	queryURL := fmt.Sprintf("%s?function=%s&symbol=%s&apikey=%s",
		f.baseURL, alphaFunction, url.QueryEscape(symbol), url.QueryEscape(f.apiKey))

	f.logger.Info("Fetching data from Alpha Vantage", zap.String("symbol", symbol))
	resp, err := f.client.Get(ctx, queryURL)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage request for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage non-200 response for %s: %s", symbol, resp.Status)
	}

	var payload DailySeriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("alpha vantage response for %s: %w", symbol, err)
	}

	switch {
	case payload.ErrorMessage != "":
		f.logger.Error("Alpha Vantage API error", zap.String("symbol", symbol), zap.String("message", payload.ErrorMessage))
		return nil, nil
	case payload.Note != "":
		f.logger.Warn("Alpha Vantage rate limit exceeded", zap.String("symbol", symbol), zap.String("note", payload.Note))
		return nil, nil
	case len(payload.TimeSeries) == 0:
		f.logger.Warn("No time series data", zap.String("symbol", symbol))
		return nil, nil
	}

	return NormalizeDailySeries(payload.TimeSeries, symbol, f.logger), nil
}

// NormalizeDailySeries converts a raw time series into canonical
// records. A record that fails numeric parsing or validation is skipped
// with a warning; its siblings are unaffected. Dates are processed in
// ascending order so repeated runs over the same input produce the same
// sequence.
func NormalizeDailySeries(series map[string]DailyQuote, symbol string, logger *zap.Logger) []model.PriceRecord {
	dates := make([]string, 0, len(series))
	for date := range series {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	records := make([]model.PriceRecord, 0, len(dates))
	for _, date := range dates {
		record, err := normalizeDailyQuote(series[date], symbol, date)
		if err != nil {
			logger.Warn("Skipping invalid record",
				zap.String("symbol", symbol),
				zap.String("date", date),
				zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	logger.Info("Parsed records", zap.String("symbol", symbol), zap.Int("count", len(records)))
	return records
}

func normalizeDailyQuote(quote DailyQuote, symbol, date string) (model.PriceRecord, error) {
	record := model.PriceRecord{Symbol: symbol, Date: date}

	var err error
	if record.Open, err = strconv.ParseFloat(quote.Open, 64); err != nil {
		return model.PriceRecord{}, fmt.Errorf("open %q: %w", quote.Open, err)
	}
	if record.High, err = strconv.ParseFloat(quote.High, 64); err != nil {
		return model.PriceRecord{}, fmt.Errorf("high %q: %w", quote.High, err)
	}
	if record.Low, err = strconv.ParseFloat(quote.Low, 64); err != nil {
		return model.PriceRecord{}, fmt.Errorf("low %q: %w", quote.Low, err)
	}
	if record.Close, err = strconv.ParseFloat(quote.Close, 64); err != nil {
		return model.PriceRecord{}, fmt.Errorf("close %q: %w", quote.Close, err)
	}

	// Some feeds render volume with a decimal point; parse as float and
	// truncate.
	volume, err := strconv.ParseFloat(quote.Volume, 64)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("volume %q: %w", quote.Volume, err)
	}
	record.Volume = int64(volume)

	if !record.Valid() {
		return model.PriceRecord{}, fmt.Errorf("record fails validation: %+v", record)
	}
	return record, nil
}
