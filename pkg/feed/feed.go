package feed

import (
	"context"

	"go.uber.org/zap"

	"stockpulse/pkg/config"
	"stockpulse/pkg/model"
)

// FeedConsumer is implemented once per market data source. An adapter
// returns zero or more canonical records for a symbol; (nil, nil) means
// the provider answered but had nothing usable (an explicit API error
// message, a rate-limit notice, or an empty series). Transport and
// decoding failures come back as errors and are absorbed by the caller.
type FeedConsumer interface {
	Source() config.Source
	DownloadDailySeries(ctx context.Context, symbol string) ([]model.PriceRecord, error)
}

// New returns the adapter for the given source, or nil when the source
// identifier is not one of the known providers. Callers treat a nil
// adapter as a no-data condition rather than a startup error.
func New(src config.Source, cfg config.Config, logger *zap.Logger) FeedConsumer {
	switch src {
	case config.SourceAlphaVantage:
		return NewAlphaVantageFeed(cfg, logger)
	case config.SourceYahoo:
		return NewYahooFeed(cfg, logger)
	default:
		return nil
	}
}
