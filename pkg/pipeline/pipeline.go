package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockpulse/pkg/model"
	"stockpulse/pkg/storage"
)

// Fetcher produces one run's worth of records for all configured
// symbols. Implemented by scraper.Scraper.
type Fetcher interface {
	FetchAll(ctx context.Context) model.FetchResult
}

// Pipeline ties one fetch pass to one persistence call.
type Pipeline struct {
	fetcher Fetcher
	store   storage.PriceStore
	logger  *zap.Logger
}

func New(fetcher Fetcher, store storage.PriceStore, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
	}
}

// Run executes one collection pass: fetch all symbols, then hand the
// full batch to the store. It reports true only when at least one
// symbol produced data and the store succeeded. Any panic escaping the
// fetch/store path is logged and converted to false; Run never lets a
// fault take the process down.
func (p *Pipeline) Run(ctx context.Context) (ok bool) {
	logger := p.logger.With(zap.String("run_id", uuid.NewString()))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Pipeline failed with unexpected error", zap.Any("panic", r))
			ok = false
		}
	}()

	logger.Info("Starting collection run")

	data := p.fetcher.FetchAll(ctx)
	if len(data) == 0 {
		logger.Error("No data fetched, exiting")
		return false
	}
	logger.Info("Fetch complete",
		zap.Int("symbols", len(data)),
		zap.Int("records", data.Size()))

	if err := p.store.StorePrices(ctx, data); err != nil {
		logger.Error("Pipeline failed", zap.Error(err))
		return false
	}

	logger.Info("Pipeline completed successfully")
	return true
}
