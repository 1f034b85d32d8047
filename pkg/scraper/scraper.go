package scraper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stockpulse/pkg/config"
	"stockpulse/pkg/feed"
	"stockpulse/pkg/model"
)

// Scraper walks the configured symbol list, fetching each symbol from
// the primary source and substituting a single fallback attempt when
// the primary comes up empty. Symbols are processed strictly in order,
// one at a time.
type Scraper struct {
	cfg    config.Config
	logger *zap.Logger
	feeds  map[config.Source]feed.FeedConsumer
	delay  time.Duration
}

// Option customizes a Scraper.
type Option func(*Scraper)

// WithFeed installs a specific adapter for its source, replacing the
// default one. Used by tests to substitute fakes.
func WithFeed(c feed.FeedConsumer) Option {
	return func(s *Scraper) { s.feeds[c.Source()] = c }
}

// WithDelay overrides the inter-symbol pacing delay.
func WithDelay(d time.Duration) Option {
	return func(s *Scraper) { s.delay = d }
}

func NewScraper(cfg config.Config, logger *zap.Logger, opts ...Option) *Scraper {
	s := &Scraper{
		cfg:    cfg,
		logger: logger,
		feeds:  make(map[config.Source]feed.FeedConsumer, 2),
		delay:  cfg.InterSymbolDelay,
	}
	for _, src := range []config.Source{cfg.DataSource, cfg.FallbackSource} {
		if _, ok := s.feeds[src]; ok {
			continue
		}
		if consumer := feed.New(src, cfg, logger); consumer != nil {
			s.feeds[src] = consumer
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchSymbol fetches one symbol. The fallback source is attempted only
// when the primary yields nothing, is configured, and differs from the
// primary; whatever the fallback yields is final.
func (s *Scraper) FetchSymbol(ctx context.Context, symbol string) []model.PriceRecord {
	s.logger.Info("Fetching symbol",
		zap.String("symbol", symbol),
		zap.String("source", string(s.cfg.DataSource)))

	records := s.attempt(ctx, s.cfg.DataSource, symbol)
	if len(records) == 0 &&
		s.cfg.FallbackSource != "" &&
		s.cfg.FallbackSource != s.cfg.DataSource {
		s.logger.Warn("Primary source failed, falling back",
			zap.String("symbol", symbol),
			zap.String("primary", string(s.cfg.DataSource)),
			zap.String("fallback", string(s.cfg.FallbackSource)))
		records = s.attempt(ctx, s.cfg.FallbackSource, symbol)
	}
	return records
}

// attempt runs a single provider attempt. Errors are terminal for that
// provider on that symbol for this run: they are logged and mapped to
// no-data, never propagated.
func (s *Scraper) attempt(ctx context.Context, src config.Source, symbol string) []model.PriceRecord {
	consumer := s.feeds[src]
	if consumer == nil {
		s.logger.Error("Unknown data source", zap.String("source", string(src)))
		return nil
	}
	records, err := consumer.DownloadDailySeries(ctx, symbol)
	if err != nil {
		s.logger.Error("Provider attempt failed",
			zap.String("source", string(src)),
			zap.String("symbol", symbol),
			zap.Error(err))
		return nil
	}
	return records
}

// FetchAll fetches every configured symbol in order. Symbols that
// yielded nothing are omitted from the result. When the primary source
// is the rate-limited Alpha Vantage API, a fixed pause separates
// consecutive symbols.
func (s *Scraper) FetchAll(ctx context.Context) model.FetchResult {
	result := make(model.FetchResult, len(s.cfg.Symbols))
	for i, symbol := range s.cfg.Symbols {
		if records := s.FetchSymbol(ctx, symbol); len(records) > 0 {
			result[symbol] = records
		}

		if s.cfg.DataSource == config.SourceAlphaVantage && i < len(s.cfg.Symbols)-1 {
			s.logger.Info("Waiting to respect API rate limits", zap.Duration("delay", s.delay))
			if !s.pause(ctx) {
				s.logger.Warn("Pacing wait cancelled", zap.Error(ctx.Err()))
				break
			}
		}
	}
	return result
}

func (s *Scraper) pause(ctx context.Context) bool {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
