package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/langowen/currency-rates/internal/entities"
	"github.com/langowen/currency-rates/internal/metrics"
)

const (
	DefaultCacheTTL = 300 * time.Second

	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100

	refreshKey = "currency_rates"
)

type Service struct {
	fetcher  Fetcher
	cache    Cache
	archive  Archive
	notifier Notifier
	metrics  *metrics.Metrics
	ttl      time.Duration
	now      func() time.Time
	group    singleflight.Group
}

type Option func(s *Service)

func WithArchive(a Archive) Option {
	return func(s *Service) {
		s.archive = a
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(fetcher Fetcher, cache Cache, opts ...Option) (*Service, error) {
	const op = "service.NewService"

	if fetcher == nil {
		return nil, errors.Errorf("%s: fetcher is required", op)
	}
	if cache == nil {
		return nil, errors.Errorf("%s: cache is required", op)
	}

	s := &Service{
		fetcher: fetcher,
		cache:   cache,
		ttl:     DefaultCacheTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Service) CacheTTL() time.Duration {
	return s.ttl
}

func (s *Service) HistoryEnabled() bool {
	return s.archive != nil
}

// CurrencyRates serves the cached payload while it is fresh and refreshes it
// from upstream otherwise. Concurrent misses share one upstream round trip.
func (s *Service) CurrencyRates(ctx context.Context) (*entities.RatesPayload, error) {
	const op = "service.CurrencyRates"

	if payload, ok := s.cached(ctx); ok {
		return payload, nil
	}

	v, err, shared := s.group.Do(refreshKey, func() (interface{}, error) {
		return s.Refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	if shared {
		slog.Debug("currency rates refresh shared", "op", op)
	}

	return v.(*entities.RatesPayload), nil
}

// Refresh fetches from upstream, bypassing the cache, and stores the result.
func (s *Service) Refresh(ctx context.Context) (*entities.RatesPayload, error) {
	const op = "service.Refresh"

	payload, source, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	s.Store(ctx, payload, source)

	return payload, nil
}

// Store writes a freshly fetched payload to the cache, the archive and the
// refresh channel. Failures are logged and never reach the caller.
func (s *Service) Store(ctx context.Context, payload *entities.RatesPayload, source string) {
	const op = "service.Store"

	if err := s.cache.Set(ctx, payload, s.ttl); err != nil {
		slog.Error("Failed to cache currency rates", "op", op, "error", err)
	}

	if s.archive != nil {
		snapshots := entities.NewSnapshots(payload, source, s.now())
		if err := s.archive.SaveSnapshots(ctx, snapshots); err != nil {
			slog.Error("Failed to archive currency rates", "op", op, "error", err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.PublishRefresh(ctx, payload); err != nil {
			slog.Error("Failed to publish currency rates refresh", "op", op, "error", err)
		}
	}
}

func (s *Service) cached(ctx context.Context) (*entities.RatesPayload, bool) {
	const op = "service.cached"

	payload, ok, err := s.cache.Get(ctx)
	if err != nil {
		slog.Warn("Cache lookup failed, treating as miss", "op", op, "error", err)
		ok = false
	}

	s.metrics.CacheLookup(ok)

	return payload, ok
}

// History returns the latest archived snapshots for code, newest first.
func (s *Service) History(ctx context.Context, code entities.CurrencyCode, limit int) ([]entities.Snapshot, error) {
	const op = "service.History"

	if s.archive == nil {
		return nil, errors.Wrap(entities.ErrNotFound, op)
	}

	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	snapshots, err := s.archive.History(ctx, code, limit)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	return snapshots, nil
}
