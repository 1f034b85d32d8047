package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"stockpulse/pkg/config"
	"stockpulse/pkg/httpx"
	"stockpulse/pkg/model"
)

const (
	YahooFinanceURL = "https://query2.finance.yahoo.com"
	yahooUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/91.0.4472.124"

	// Trailing window requested per symbol, in calendar days.
	yahooWindowDays = 5
)

// ChartResponse is the shape of Yahoo's v8 chart API reply. The quote
// arrays use pointers because Yahoo fills holes (halted days, missing
// prints) with JSON nulls.
type ChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

type yahooFeed struct {
	baseURL string
	client  *httpx.Client
	logger  *zap.Logger
	now     func() time.Time
}

// YahooOption customizes the Yahoo Finance adapter.
type YahooOption func(*yahooFeed)

// WithYahooURL overrides the chart API host.
func WithYahooURL(u string) YahooOption {
	return func(f *yahooFeed) { f.baseURL = u }
}

// WithYahooClock overrides the window anchor, for tests.
func WithYahooClock(now func() time.Time) YahooOption {
	return func(f *yahooFeed) { f.now = now }
}

func NewYahooFeed(cfg config.Config, logger *zap.Logger, opts ...YahooOption) FeedConsumer {
	client := httpx.New(cfg.APITimeout)
	client.UserAgent = yahooUserAgent
	f := &yahooFeed{
		baseURL: YahooFinanceURL,
		client:  client,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *yahooFeed) Source() config.Source {
	return config.SourceYahoo
}

// DownloadDailySeries fetches the trailing five-day daily window for
// symbol from the Yahoo chart API.
func (f *yahooFeed) DownloadDailySeries(ctx context.Context, symbol string) ([]model.PriceRecord, error) {
	endTime := f.now().UTC()
	startTime := endTime.AddDate(0, 0, -yahooWindowDays)
	queryURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		f.baseURL, symbol, startTime.Unix(), endTime.Unix())

	f.logger.Info("Fetching data from Yahoo Finance", zap.String("symbol", symbol))
	resp, err := f.client.Get(ctx, queryURL)
	if err != nil {
		return nil, fmt.Errorf("yahoo request for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo non-200 response for %s: %s", symbol, resp.Status)
	}

	var chart ChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("yahoo response for %s: %w", symbol, err)
	}

	if chart.Chart.Error != nil {
		f.logger.Error("Yahoo API error", zap.String("symbol", symbol), zap.Any("error", chart.Chart.Error))
		return nil, nil
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		f.logger.Warn("No Yahoo data", zap.String("symbol", symbol))
		return nil, nil
	}

	return f.extractDaily(&chart, symbol), nil
}

// extractDaily renders chart rows as canonical records. Rows with any
// null component are dropped; when two timestamps land on the same
// calendar date the first row wins.
func (f *yahooFeed) extractDaily(chart *ChartResponse, symbol string) []model.PriceRecord {
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		f.logger.Warn("No quote data", zap.String("symbol", symbol))
		return nil
	}
	quote := result.Indicators.Quote[0]

	seen := make(map[string]bool, len(result.Timestamp))
	records := make([]model.PriceRecord, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			break
		}
		date := time.Unix(ts, 0).UTC().Format(model.DateLayout)
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil ||
			quote.Close[i] == nil || quote.Volume[i] == nil {
			f.logger.Warn("Skipping incomplete row", zap.String("symbol", symbol), zap.String("date", date))
			continue
		}
		if seen[date] {
			continue
		}

		record := model.PriceRecord{
			Symbol: symbol,
			Date:   date,
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: *quote.Volume[i],
		}
		if !record.Valid() {
			f.logger.Warn("Skipping invalid record", zap.String("symbol", symbol), zap.String("date", date))
			continue
		}
		seen[date] = true
		records = append(records, record)
	}
	f.logger.Info("Parsed records", zap.String("symbol", symbol), zap.Int("count", len(records)))
	return records
}
