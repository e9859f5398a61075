package fetcher

import (
	"context"

	"github.com/langowen/currency-rates/internal/entities"
)

type HTTPClient interface {
	Name() string
	FetchRates(ctx context.Context) (*entities.UpstreamRates, error)
}
