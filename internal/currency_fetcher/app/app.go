package fetcherApp

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	redisPack "github.com/redis/go-redis/v9"

	"github.com/langowen/currency-rates/deploy/config"
	memcache "github.com/langowen/currency-rates/internal/api_service/adapter/storage/memory"
	"github.com/langowen/currency-rates/internal/api_service/adapter/storage/postgres"
	"github.com/langowen/currency-rates/internal/api_service/adapter/storage/redis"
	"github.com/langowen/currency-rates/internal/api_service/service"
	"github.com/langowen/currency-rates/internal/currency_fetcher/fetcher"
	"github.com/langowen/currency-rates/internal/entities"
)

// FetcherApp refreshes the shared rate cache on a schedule, independently of
// the api_service replicas. With no interval configured it fetches once and
// prints the payload.
type FetcherApp struct {
	cfg *config.Config
	out io.Writer

	pgStorage *postgres.Storage
	rdStorage *redis.Storage
}

func NewFetcherApp(cfg *config.Config) *FetcherApp {
	return &FetcherApp{cfg: cfg, out: os.Stdout}
}

func (f *FetcherApp) Start(ctx context.Context) error {
	const op = "fetcherApp.Start"

	f.initLogger()
	slog.Info("Logger initialized")

	slog.With("fetcher", f.cfg.Fetcher).Info("starting application")

	fetch, err := fetcher.NewFromConfig(f.cfg, nil)
	if err != nil {
		return errors.Wrap(err, op)
	}
	slog.Info("Fetcher initialized")

	store, err := f.initStore(ctx, fetch)
	if err != nil {
		return errors.Wrap(err, op)
	}
	defer f.close()

	if f.cfg.Fetcher.WarmupInterval <= 0 {
		return f.runOnce(ctx, store)
	}

	slog.Info("starting fetcher", "interval", f.cfg.Fetcher.WarmupInterval)

	err = fetch.StartFetcher(ctx, f.cfg.Fetcher.WarmupInterval, func(ctx context.Context, payload *entities.RatesPayload, source string) error {
		store.Store(ctx, payload, source)
		slog.Info("currency rates refreshed", "source", source, "date", payload.Date)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func (f *FetcherApp) runOnce(ctx context.Context, store *service.Service) error {
	const op = "fetcherApp.runOnce"

	payload, err := store.Refresh(ctx)
	if err != nil {
		return errors.Wrap(err, op)
	}

	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

func (f *FetcherApp) initLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: false,
	}))
	slog.SetDefault(logger)
}

// initStore builds the service used only for its Store and Refresh paths: the
// Redis cache and refresh channel when configured, plus the Postgres archive.
func (f *FetcherApp) initStore(ctx context.Context, fetch service.Fetcher) (*service.Service, error) {
	const op = "fetcherApp.initStore"

	var cache service.Cache = memcache.New()
	opts := []service.Option{service.WithTTL(f.cfg.Cache.TTL)}

	if f.cfg.Cache.Backend == "redis" {
		rdStorage, err := redis.InitStorage(ctx, &redisPack.Options{
			Addr:     f.cfg.Redis.Host,
			Password: f.cfg.Redis.Password,
			DB:       f.cfg.Redis.DB,
		}, f.cfg.Redis.Channel)
		if err != nil {
			return nil, errors.Wrap(err, op)
		}
		f.rdStorage = rdStorage
		cache = rdStorage
		opts = append(opts, service.WithNotifier(rdStorage))
		slog.Info("Redis client initialized")
	}

	if f.cfg.Storage.Enabled {
		pgStorage, err := postgres.InitStorage(ctx, f.cfg.DSN(), f.cfg.Storage.Timeout)
		if err != nil {
			f.close()
			return nil, errors.Wrap(err, op)
		}
		f.pgStorage = pgStorage
		opts = append(opts, service.WithArchive(pgStorage))
		slog.Info("Storage initialized")
	}

	store, err := service.NewService(fetch, cache, opts...)
	if err != nil {
		f.close()
		return nil, errors.Wrap(err, op)
	}

	return store, nil
}

func (f *FetcherApp) close() {
	if f.rdStorage != nil {
		if err := f.rdStorage.Close(); err != nil {
			slog.Error("Failed to close Redis storage", "error", err)
		}
		f.rdStorage = nil
	}
	if f.pgStorage != nil {
		f.pgStorage.Close()
		f.pgStorage = nil
	}
}

// Run is the process entry point used by cmd/currency_fetcher.
func Run(ctx context.Context, cfg *config.Config) {
	if err := NewFetcherApp(cfg).Start(ctx); err != nil {
		log.Fatalln("Failed to run fetcher", "error", err)
	}
}
