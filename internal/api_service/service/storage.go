package service

import (
	"context"
	"time"

	"github.com/langowen/currency-rates/internal/entities"
)

type Fetcher interface {
	Fetch(ctx context.Context) (*entities.RatesPayload, string, error)
}

type Cache interface {
	Get(ctx context.Context) (*entities.RatesPayload, bool, error)
	Set(ctx context.Context, payload *entities.RatesPayload, ttl time.Duration) error
}

type Archive interface {
	SaveSnapshots(ctx context.Context, snapshots []entities.Snapshot) error
	History(ctx context.Context, code entities.CurrencyCode, limit int) ([]entities.Snapshot, error)
}

type Notifier interface {
	PublishRefresh(ctx context.Context, payload *entities.RatesPayload) error
}
