package fetcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langowen/currency-rates/internal/entities"
	"github.com/langowen/currency-rates/internal/metrics"
)

// fakeSource implements HTTPClient and counts FetchRates calls.
type fakeSource struct {
	name  string
	rates *entities.UpstreamRates
	err   error
	calls atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchRates(ctx context.Context) (*entities.UpstreamRates, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.rates, nil
}

func upstream(source string, rates map[entities.CurrencyCode]float64) *entities.UpstreamRates {
	return &entities.UpstreamRates{Source: source, Base: "TRY", Date: "2026-10-18", Rates: rates}
}

var badStatus = pkgerrors.Wrap(entities.ErrUpstreamStatus, "503 Service Unavailable")

func TestFetchPrimarySuccessSkipsFallback(t *testing.T) {
	primary := &fakeSource{name: "primary", rates: upstream("primary", map[entities.CurrencyCode]float64{
		entities.USD: 0.025, entities.EUR: 0.02, entities.GBP: 0.0125,
	})}
	fallback := &fakeSource{name: "fallback"}

	payload, source, err := NewFetcher(primary, fallback).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "primary", source)
	assert.Equal(t, int32(0), fallback.calls.Load())
	assert.Equal(t, "2026-10-18", payload.Date)
	assert.Equal(t, []entities.CurrencyRate{
		{CurrencyCode: entities.USD, PurchaseRate: "39.9200", SaleRate: "40.0800"},
		{CurrencyCode: entities.EUR, PurchaseRate: "49.9000", SaleRate: "50.1000"},
		{CurrencyCode: entities.GBP, PurchaseRate: "79.8400", SaleRate: "80.1600"},
	}, payload.Data.Currency)
}

func TestFetchFallsBackOnBadStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	primary := &fakeSource{name: "primary", err: badStatus}
	fallback := &fakeSource{name: "fallback", rates: upstream("fallback", map[entities.CurrencyCode]float64{entities.USD: 0.025})}

	payload, source, err := NewFetcher(primary, fallback, WithMetrics(m)).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "fallback", source)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(1), fallback.calls.Load())
	assert.Len(t, payload.Data.Currency, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("primary", metrics.OutcomeBadStatus)))
}

func TestFetchFallsBackOnMissingRates(t *testing.T) {
	primary := &fakeSource{name: "primary", rates: upstream("primary", map[entities.CurrencyCode]float64{})}
	fallback := &fakeSource{name: "fallback", rates: upstream("fallback", map[entities.CurrencyCode]float64{entities.GBP: 0.02})}

	payload, source, err := NewFetcher(primary, fallback).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "fallback", source)
	assert.Equal(t, entities.GBP, payload.Data.Currency[0].CurrencyCode)
}

func TestFetchFallsBackWhenNothingQuotable(t *testing.T) {
	primary := &fakeSource{name: "primary", rates: upstream("primary", map[entities.CurrencyCode]float64{entities.USD: 0})}
	fallback := &fakeSource{name: "fallback", rates: upstream("fallback", map[entities.CurrencyCode]float64{entities.USD: 0.025})}

	_, source, err := NewFetcher(primary, fallback).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fallback", source)
}

func TestFetchBothUnavailable(t *testing.T) {
	primary := &fakeSource{name: "primary", err: badStatus}
	fallback := &fakeSource{name: "fallback", err: badStatus}

	_, _, err := NewFetcher(primary, fallback).Fetch(context.Background())
	assert.ErrorIs(t, err, entities.ErrUpstreamUnavailable)
	assert.Equal(t, int32(1), fallback.calls.Load())
}

func TestFetchWithoutFallback(t *testing.T) {
	primary := &fakeSource{name: "primary", err: badStatus}

	_, _, err := NewFetcher(primary, nil).Fetch(context.Background())
	assert.ErrorIs(t, err, entities.ErrUpstreamUnavailable)
}

func TestFetchUnexpectedErrorIsNotUnavailable(t *testing.T) {
	primary := &fakeSource{name: "primary", err: errors.New("connection reset by peer")}
	fallback := &fakeSource{name: "fallback"}

	_, _, err := NewFetcher(primary, fallback).Fetch(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, entities.ErrUpstreamUnavailable)
	assert.Equal(t, int32(0), fallback.calls.Load())
}

func TestStartFetcherRejectsNonPositiveInterval(t *testing.T) {
	f := NewFetcher(&fakeSource{name: "primary"}, nil)

	err := f.StartFetcher(context.Background(), 0, nil)
	assert.Error(t, err)
}

func TestStartFetcherRefreshesUntilCancelled(t *testing.T) {
	primary := &fakeSource{name: "primary", rates: upstream("primary", map[entities.CurrencyCode]float64{entities.USD: 0.025})}
	f := NewFetcher(primary, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refreshed := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- f.StartFetcher(ctx, 10*time.Millisecond, func(ctx context.Context, payload *entities.RatesPayload, source string) error {
			refreshed <- source
			return nil
		})
	}()

	for i := 0; i < 2; i++ {
		select {
		case source := <-refreshed:
			assert.Equal(t, "primary", source)
		case <-time.After(2 * time.Second):
			t.Fatal("fetcher did not refresh")
		}
	}

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("fetcher did not stop")
	}
}
