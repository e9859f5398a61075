package fetcher

import (
	"github.com/pkg/errors"

	"github.com/langowen/currency-rates/deploy/config"
	"github.com/langowen/currency-rates/internal/currency_fetcher/adapter/api_client/fxsource"
	"github.com/langowen/currency-rates/internal/entities"
	"github.com/langowen/currency-rates/internal/metrics"
)

const (
	PrimarySourceName  = "primary"
	FallbackSourceName = "fallback"
)

// ParseCodes validates the configured currency codes, keeping their order and
// dropping duplicates. An empty list means every supported code.
func ParseCodes(raw []string) ([]entities.CurrencyCode, error) {
	const op = "fetcher.ParseCodes"

	if len(raw) == 0 {
		return entities.SupportedCodes, nil
	}

	codes := make([]entities.CurrencyCode, 0, len(raw))
	seen := make(map[entities.CurrencyCode]bool, len(raw))
	for _, r := range raw {
		code, err := entities.ParseCode(r)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %q", op, r)
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}

	return codes, nil
}

// NewFromConfig builds the primary and fallback sources and the Fetcher over
// them. An empty fallback URL disables the fallback.
func NewFromConfig(cfg *config.Config, m *metrics.Metrics) (*Fetcher, error) {
	const op = "fetcher.NewFromConfig"

	codes, err := ParseCodes(cfg.Split("Codes"))
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	direction, err := fxsource.ParseDirection(cfg.Fetcher.FallbackDirection)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	primary := fxsource.NewHTTPClient(nil, fxsource.Source{
		Name:      PrimarySourceName,
		URL:       cfg.Fetcher.PrimaryURL,
		Direction: fxsource.PerLocal,
	}, codes)

	var fallback HTTPClient
	if cfg.Fetcher.FallbackURL != "" {
		fallback = fxsource.NewHTTPClient(nil, fxsource.Source{
			Name:      FallbackSourceName,
			URL:       cfg.Fetcher.FallbackURL,
			Direction: direction,
		}, codes)
	}

	policy := DefaultPolicy()
	policy.Codes = codes

	return NewFetcher(primary, fallback,
		WithPolicy(policy),
		WithTimeout(cfg.Fetcher.Timeout),
		WithMetrics(m),
	), nil
}
