package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/langowen/currency-rates/internal/api_service/adapter/storage/memory"
	"github.com/langowen/currency-rates/internal/api_service/service"
	"github.com/langowen/currency-rates/internal/entities"
	"github.com/langowen/currency-rates/internal/metrics"
)

// --- Mocks ---

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context) (*entities.RatesPayload, string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*entities.RatesPayload), args.String(1), args.Error(2)
}

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) SaveSnapshots(ctx context.Context, snapshots []entities.Snapshot) error {
	args := m.Called(ctx, snapshots)
	return args.Error(0)
}

func (m *MockArchive) History(ctx context.Context, code entities.CurrencyCode, limit int) ([]entities.Snapshot, error) {
	args := m.Called(ctx, code, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Snapshot), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PublishRefresh(ctx context.Context, payload *entities.RatesPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

type failingCache struct{}

func (failingCache) Get(context.Context) (*entities.RatesPayload, bool, error) {
	return nil, false, errors.New("cache down")
}

func (failingCache) Set(context.Context, *entities.RatesPayload, time.Duration) error {
	return errors.New("cache down")
}

// --- Test Suite ---

type ServiceTestSuite struct {
	suite.Suite
	fetcher *MockFetcher
	archive *MockArchive
	metrics *metrics.Metrics
	now     time.Time
	cache   *memory.Cache
	service *service.Service
}

func (suite *ServiceTestSuite) SetupTest() {
	suite.fetcher = new(MockFetcher)
	suite.archive = new(MockArchive)
	suite.metrics = metrics.New(prometheus.NewRegistry())
	suite.now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return suite.now }
	suite.cache = memory.NewWithClock(clock)

	svc, err := service.NewService(suite.fetcher, suite.cache,
		service.WithArchive(suite.archive),
		service.WithMetrics(suite.metrics),
		service.WithClock(clock),
	)
	suite.Require().NoError(err)
	suite.service = svc
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func samplePayload() *entities.RatesPayload {
	return &entities.RatesPayload{
		Data: entities.RatesData{Currency: []entities.CurrencyRate{
			{CurrencyCode: entities.USD, PurchaseRate: "39.9200", SaleRate: "40.0800"},
			{CurrencyCode: entities.EUR, PurchaseRate: "49.9000", SaleRate: "50.1000"},
		}},
		Date: "2026-10-18",
	}
}

// --- Test Cases ---

func (suite *ServiceTestSuite) TestCurrencyRates_CachesWithinWindow() {
	payload := samplePayload()
	suite.fetcher.On("Fetch", mock.Anything).Return(payload, "primary", nil).Once()
	suite.archive.On("SaveSnapshots", mock.Anything, mock.MatchedBy(func(s []entities.Snapshot) bool {
		return len(s) == 2 && s[0].Source == "primary" && s[0].FetchedAt.Equal(suite.now)
	})).Return(nil).Once()

	first, err := suite.service.CurrencyRates(context.Background())
	suite.Require().NoError(err)
	suite.Equal(payload, first)

	suite.now = suite.now.Add(299 * time.Second)

	second, err := suite.service.CurrencyRates(context.Background())
	suite.Require().NoError(err)
	suite.Same(first, second)

	suite.fetcher.AssertNumberOfCalls(suite.T(), "Fetch", 1)
	suite.archive.AssertExpectations(suite.T())
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.CacheHits))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.CacheMisses))
}

func (suite *ServiceTestSuite) TestCurrencyRates_RefetchesAfterWindow() {
	suite.fetcher.On("Fetch", mock.Anything).Return(samplePayload(), "primary", nil).Twice()
	suite.archive.On("SaveSnapshots", mock.Anything, mock.Anything).Return(nil).Twice()

	_, err := suite.service.CurrencyRates(context.Background())
	suite.Require().NoError(err)

	suite.now = suite.now.Add(service.DefaultCacheTTL)

	_, err = suite.service.CurrencyRates(context.Background())
	suite.Require().NoError(err)

	suite.fetcher.AssertNumberOfCalls(suite.T(), "Fetch", 2)
}

func (suite *ServiceTestSuite) TestCurrencyRates_FailureIsNotCached() {
	suite.fetcher.On("Fetch", mock.Anything).Return(nil, "", entities.ErrUpstreamUnavailable).Once()
	suite.fetcher.On("Fetch", mock.Anything).Return(samplePayload(), "fallback", nil).Once()
	suite.archive.On("SaveSnapshots", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := suite.service.CurrencyRates(context.Background())
	suite.Require().Error(err)
	suite.ErrorIs(err, entities.ErrUpstreamUnavailable)

	payload, err := suite.service.CurrencyRates(context.Background())
	suite.Require().NoError(err)
	suite.Equal("2026-10-18", payload.Date)
}

func (suite *ServiceTestSuite) TestCurrencyRates_ArchiveFailureDoesNotFailRequest() {
	suite.fetcher.On("Fetch", mock.Anything).Return(samplePayload(), "primary", nil).Once()
	suite.archive.On("SaveSnapshots", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	payload, err := suite.service.CurrencyRates(context.Background())
	suite.Require().NoError(err)
	suite.Len(payload.Data.Currency, 2)
}

func (suite *ServiceTestSuite) TestCurrencyRates_ConcurrentMissesShareFetch() {
	release := make(chan struct{})
	suite.fetcher.On("Fetch", mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(samplePayload(), "primary", nil).Once()
	suite.archive.On("SaveSnapshots", mock.Anything, mock.Anything).Return(nil).Once()

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.service.CurrencyRates(context.Background())
			errs <- err
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		suite.NoError(err)
	}
	suite.fetcher.AssertNumberOfCalls(suite.T(), "Fetch", 1)
}

func (suite *ServiceTestSuite) TestHistory_ClampsLimit() {
	snaps := []entities.Snapshot{{CurrencyCode: entities.USD, PurchaseRate: "39.9200", SaleRate: "40.0800"}}
	suite.archive.On("History", mock.Anything, entities.USD, service.DefaultHistoryLimit).Return(snaps, nil).Once()
	suite.archive.On("History", mock.Anything, entities.USD, service.MaxHistoryLimit).Return(snaps, nil).Once()

	got, err := suite.service.History(context.Background(), entities.USD, 0)
	suite.Require().NoError(err)
	suite.Equal(snaps, got)

	_, err = suite.service.History(context.Background(), entities.USD, 1000)
	suite.Require().NoError(err)

	suite.archive.AssertExpectations(suite.T())
}

func TestHistoryWithoutArchive(t *testing.T) {
	svc, err := service.NewService(new(MockFetcher), memory.New())
	if err != nil {
		t.Fatal(err)
	}

	if svc.HistoryEnabled() {
		t.Fatal("history must be disabled without an archive")
	}
	if _, err := svc.History(context.Background(), entities.USD, 5); !errors.Is(err, entities.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCacheErrorsAreMisses(t *testing.T) {
	fetcher := new(MockFetcher)
	notifier := new(MockNotifier)
	fetcher.On("Fetch", mock.Anything).Return(samplePayload(), "primary", nil).Twice()
	notifier.On("PublishRefresh", mock.Anything, mock.Anything).Return(nil).Twice()

	svc, err := service.NewService(fetcher, failingCache{}, service.WithNotifier(notifier), service.WithTTL(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if svc.CacheTTL() != time.Minute {
		t.Fatalf("unexpected ttl %s", svc.CacheTTL())
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.CurrencyRates(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	fetcher.AssertNumberOfCalls(t, "Fetch", 2)
	notifier.AssertExpectations(t)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := service.NewService(nil, memory.New()); err == nil {
		t.Fatal("expected error without fetcher")
	}
	if _, err := service.NewService(new(MockFetcher), nil); err == nil {
		t.Fatal("expected error without cache")
	}
}
