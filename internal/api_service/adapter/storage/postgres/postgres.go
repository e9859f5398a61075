package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/langowen/currency-rates/internal/entities"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS currency_rate_snapshots (
		id            BIGSERIAL PRIMARY KEY,
		currency_code TEXT        NOT NULL,
		purchase_rate NUMERIC     NOT NULL,
		sale_rate     NUMERIC     NOT NULL,
		source        TEXT        NOT NULL,
		upstream_date TEXT        NOT NULL DEFAULT '',
		fetched_at    TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS currency_rate_snapshots_code_fetched_idx
		ON currency_rate_snapshots (currency_code, fetched_at DESC);
`

type Storage struct {
	db *pgxpool.Pool
}

func NewStorage(pool *pgxpool.Pool) *Storage {
	return &Storage{
		db: pool,
	}
}

func InitStorage(ctx context.Context, dsn string, timeout time.Duration) (*Storage, error) {
	const op = "storage.postgres.InitStorage"

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 10 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, op)
	}

	storage := NewStorage(pool)

	if err = storage.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, op)
	}

	return storage, nil
}

func (s *Storage) EnsureSchema(ctx context.Context) error {
	const op = "storage.postgres.EnsureSchema"

	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

func (s *Storage) SaveSnapshots(ctx context.Context, snapshots []entities.Snapshot) (err error) {
	const op = "storage.postgres.SaveSnapshots"

	if len(snapshots) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, op)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(`
			INSERT INTO currency_rate_snapshots
				(currency_code, purchase_rate, sale_rate, source, upstream_date, fetched_at)
			VALUES ($1, $2::text::numeric, $3::text::numeric, $4, $5, $6)
		`, string(snap.CurrencyCode), snap.PurchaseRate, snap.SaleRate, snap.Source, snap.UpstreamDate, snap.FetchedAt)
	}

	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, op)
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

func (s *Storage) History(ctx context.Context, code entities.CurrencyCode, limit int) ([]entities.Snapshot, error) {
	const op = "storage.postgres.History"

	rows, err := s.db.Query(ctx, `
		SELECT currency_code, purchase_rate::text, sale_rate::text, source, upstream_date, fetched_at
		FROM currency_rate_snapshots
		WHERE currency_code = $1
		ORDER BY fetched_at DESC
		LIMIT $2
	`, string(code), limit)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	defer rows.Close()

	snapshots := make([]entities.Snapshot, 0, limit)
	for rows.Next() {
		var snap entities.Snapshot
		var currency string

		if err := rows.Scan(&currency, &snap.PurchaseRate, &snap.SaleRate, &snap.Source, &snap.UpstreamDate, &snap.FetchedAt); err != nil {
			return nil, errors.Wrap(err, op)
		}

		snap.CurrencyCode = entities.CurrencyCode(currency)
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return snapshots, nil
}

func (s *Storage) Close() {
	s.db.Close()
}
