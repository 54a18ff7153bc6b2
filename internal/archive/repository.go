package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/idxscreen/internal/contracts"
)

// schema is applied by EnsureSchema. Bars are keyed by exchange-local date.
const schema = `
	CREATE TABLE IF NOT EXISTS price_bars (
		symbol      TEXT             NOT NULL,
		trade_date  DATE             NOT NULL,
		ts          BIGINT           NOT NULL,
		open_price  DOUBLE PRECISION NOT NULL,
		high_price  DOUBLE PRECISION NOT NULL,
		low_price   DOUBLE PRECISION NOT NULL,
		close_price DOUBLE PRECISION NOT NULL,
		volume      BIGINT           NOT NULL,
		interval    TEXT             NOT NULL DEFAULT '1d',
		updated_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		PRIMARY KEY (symbol, trade_date, interval)
	)`

const upsertBar = `
	INSERT INTO price_bars (symbol, trade_date, ts, open_price, high_price, low_price, close_price, volume, interval)
	VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (symbol, trade_date, interval) DO UPDATE SET
		ts = EXCLUDED.ts,
		open_price = EXCLUDED.open_price,
		high_price = EXCLUDED.high_price,
		low_price = EXCLUDED.low_price,
		close_price = EXCLUDED.close_price,
		volume = EXCLUDED.volume,
		updated_at = NOW()`

// Repository persists fetched bars to PostgreSQL
// ⭐ SSOT: 가격 아카이브 저장소는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new price archive
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the price_bars table when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create price_bars: %w", err)
	}
	return nil
}

// SaveSeries upserts every bar of the series in one batch
func (r *Repository) SaveSeries(ctx context.Context, series *contracts.PriceSeries) error {
	batch := buildUpsertBatch(series)
	if batch.Len() == 0 {
		return nil
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to save %s bar %d: %w", series.Symbol, i, err)
		}
	}
	return nil
}

// LoadBars returns archived bars between from and to (inclusive, YYYY-MM-DD), oldest first
func (r *Repository) LoadBars(ctx context.Context, symbol, interval, from, to string) ([]contracts.PriceBar, error) {
	query := `
		SELECT to_char(trade_date, 'YYYY-MM-DD'), ts, open_price, high_price, low_price, close_price, volume
		FROM price_bars
		WHERE symbol = $1 AND interval = $2 AND trade_date BETWEEN $3::date AND $4::date
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, interval, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []contracts.PriceBar
	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(&b.Date, &b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// CountBars returns the number of archived bars for a symbol
func (r *Repository) CountBars(ctx context.Context, symbol string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM price_bars WHERE symbol = $1`, symbol).Scan(&n)
	return n, err
}

func buildUpsertBatch(series *contracts.PriceSeries) *pgx.Batch {
	batch := &pgx.Batch{}
	if series == nil {
		return batch
	}

	interval := series.Interval
	if interval == "" {
		interval = "1d"
	}

	for _, b := range series.Bars {
		batch.Queue(upsertBar, series.Symbol, b.Date, b.Timestamp,
			b.Open, b.High, b.Low, b.Close, b.Volume, interval)
	}
	return batch
}
