package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/langowen/currency-rates/internal/entities"
	"github.com/langowen/currency-rates/internal/metrics"
)

const defaultTimeout = 10 * time.Second

// Fetcher queries the primary source and, when it answers with a non-OK
// status or without a usable rate map, the fallback source. The two calls are
// sequential.
type Fetcher struct {
	primary  HTTPClient
	fallback HTTPClient
	policy   Policy
	timeout  time.Duration
	metrics  *metrics.Metrics
}

type Option func(f *Fetcher)

func WithPolicy(p Policy) Option {
	return func(f *Fetcher) {
		f.policy = p
	}
}

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// NewFetcher builds a Fetcher. fallback may be nil.
func NewFetcher(primary, fallback HTTPClient, opts ...Option) *Fetcher {
	f := &Fetcher{
		primary:  primary,
		fallback: fallback,
		policy:   DefaultPolicy(),
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the normalized payload and the name of the source that
// produced it. entities.ErrUpstreamUnavailable means no source had usable
// data; any other error is unexpected (network failure, malformed body).
func (f *Fetcher) Fetch(ctx context.Context) (*entities.RatesPayload, string, error) {
	const op = "fetcher.Fetch"

	sources := []HTTPClient{f.primary}
	if f.fallback != nil {
		sources = append(sources, f.fallback)
	}

	for i, source := range sources {
		if i > 0 {
			f.metrics.Fallback()
			slog.Warn("primary rate source unusable, querying fallback", "op", op, "source", source.Name())
		}

		payload, err := f.fetchFrom(ctx, source)
		if err != nil {
			if errors.Is(err, entities.ErrUpstreamStatus) {
				slog.Warn("rate source returned non-OK status", "op", op, "source", source.Name(), "error", err)
				continue
			}
			return nil, "", errors.Wrap(err, op)
		}

		if payload != nil {
			return payload, source.Name(), nil
		}
	}

	return nil, "", entities.ErrUpstreamUnavailable
}

func (f *Fetcher) fetchFrom(ctx context.Context, source HTTPClient) (*entities.RatesPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	upstream, err := source.FetchRates(ctx)

	switch {
	case errors.Is(err, entities.ErrUpstreamStatus):
		f.metrics.ObserveUpstream(source.Name(), metrics.OutcomeBadStatus, time.Since(start))
		return nil, err
	case err != nil:
		f.metrics.ObserveUpstream(source.Name(), metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	payload, ok := f.policy.Build(upstream)
	if !ok {
		f.metrics.ObserveUpstream(source.Name(), metrics.OutcomeNoRates, time.Since(start))
		slog.Warn("rate source returned no usable rates", "source", source.Name())
		return nil, nil
	}

	f.metrics.ObserveUpstream(source.Name(), metrics.OutcomeOK, time.Since(start))
	return payload, nil
}

// RefreshFunc receives every payload fetched by StartFetcher.
type RefreshFunc func(ctx context.Context, payload *entities.RatesPayload, source string) error

// StartFetcher fetches immediately and then on every tick until ctx is done.
// Failures are logged and do not stop the loop.
func (f *Fetcher) StartFetcher(ctx context.Context, interval time.Duration, onRefresh RefreshFunc) error {
	const op = "fetcher.StartFetcher"

	if interval <= 0 {
		return errors.Errorf("%s: interval must be positive, got %s", op, interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	f.refresh(ctx, onRefresh)

	for {
		select {
		case <-ticker.C:
			f.refresh(ctx, onRefresh)

		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), op)
		}
	}
}

func (f *Fetcher) refresh(ctx context.Context, onRefresh RefreshFunc) {
	const op = "fetcher.refresh"

	payload, source, err := f.Fetch(ctx)
	if err != nil {
		slog.Error("Failed to refresh currency rates", "op", op, "error", err)
		return
	}

	if err := onRefresh(ctx, payload, source); err != nil {
		slog.Error("Failed to store refreshed currency rates", "op", op, "source", source, "error", err)
	}
}
