package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"stockpulse/pkg/database"
	"stockpulse/pkg/model"
)

// PriceStore persists one pipeline run's fetch result.
type PriceStore interface {
	StorePrices(ctx context.Context, data model.FetchResult) error
}

type priceRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewPriceRepository creates a Postgres-backed price store.
func NewPriceRepository(db *database.DB, logger *zap.Logger) PriceStore {
	return &priceRepository{
		db:     db,
		logger: logger,
	}
}

const upsertPriceQuery = `
	INSERT INTO stock_data (
		symbol, date, open_price, high_price, low_price, close_price, volume
	) VALUES (
		:symbol, :date, :open_price, :high_price, :low_price, :close_price, :volume
	)
	ON CONFLICT (symbol, date)
	DO UPDATE SET
		open_price  = EXCLUDED.open_price,
		high_price  = EXCLUDED.high_price,
		low_price   = EXCLUDED.low_price,
		close_price = EXCLUDED.close_price,
		volume      = EXCLUDED.volume,
		updated_at  = CURRENT_TIMESTAMP`

// StorePrices upserts every record in a single transaction keyed by
// (symbol, date). A failure rolls the whole batch back; the table never
// holds a partial run.
func (r *priceRepository) StorePrices(ctx context.Context, data model.FetchResult) error {
	if len(data) == 0 {
		return fmt.Errorf("no data to store")
	}

	total := 0
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		for symbol, records := range data {
			for _, record := range records {
				if _, err := tx.NamedExecContext(ctx, upsertPriceQuery, record); err != nil {
					return fmt.Errorf("failed to upsert %s %s: %w", symbol, record.Date, err)
				}
				total++
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to store stock data", zap.Error(err))
		return err
	}

	r.logger.Info("Successfully stored records", zap.Int("count", total))
	return nil
}
