package public

import (
	"context"
	"time"

	"github.com/langowen/currency-rates/internal/entities"
)

type Service interface {
	CurrencyRates(ctx context.Context) (*entities.RatesPayload, error)
	History(ctx context.Context, code entities.CurrencyCode, limit int) ([]entities.Snapshot, error)
	HistoryEnabled() bool
	CacheTTL() time.Duration
}
