package apiApp

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redisPack "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/langowen/currency-rates/deploy/config"
	memcache "github.com/langowen/currency-rates/internal/api_service/adapter/storage/memory"
	"github.com/langowen/currency-rates/internal/api_service/adapter/storage/postgres"
	"github.com/langowen/currency-rates/internal/api_service/adapter/storage/redis"
	"github.com/langowen/currency-rates/internal/api_service/ports/http/public"
	"github.com/langowen/currency-rates/internal/api_service/service"
	"github.com/langowen/currency-rates/internal/currency_fetcher/fetcher"
	"github.com/langowen/currency-rates/internal/entities"
	"github.com/langowen/currency-rates/internal/metrics"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type ApiApp struct {
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	pgStorage *postgres.Storage
	rdStorage *redis.Storage
}

func NewApiApp(cfg *config.Config) *ApiApp {
	return &ApiApp{cfg: cfg}
}

// Start wires the service and serves it until ctx is done. The returned
// channel is closed once the server has stopped and storages are closed.
func (a *ApiApp) Start(ctx context.Context) <-chan struct{} {
	a.initLogger()
	slog.Info("Logger initialized")

	slog.With("http", a.cfg.HTTPServer, "fetcher", a.cfg.Fetcher, "cache", a.cfg.Cache).Info("starting server")

	a.initMetrics()
	slog.Info("Metrics initialized")

	fetch := a.initFetcher()
	slog.Info("Fetcher initialized")

	cache := a.initCache(ctx)
	slog.Info("Cache initialized", "backend", a.cfg.Cache.Backend)

	apiService := a.initService(ctx, fetch, cache)
	slog.Info("Service initialized", "history", apiService.HistoryEnabled())

	a.startWarmer(ctx, fetch, apiService)
	a.startRefreshListener(ctx)

	serverDone := a.StartServer(ctx, apiService)
	slog.Info("server started")

	done := make(chan struct{})
	go func() {
		<-serverDone
		a.close()
		close(done)
	}()

	return done
}

func (a *ApiApp) initLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: false,
	}))
	slog.SetDefault(logger)
}

func (a *ApiApp) initMetrics() {
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)
}

func (a *ApiApp) initFetcher() *fetcher.Fetcher {
	fetch, err := fetcher.NewFromConfig(a.cfg, a.metrics)
	if err != nil {
		log.Fatalln("Failed to initialize fetcher", "error", err)
	}

	return fetch
}

func (a *ApiApp) initCache(ctx context.Context) service.Cache {
	switch a.cfg.Cache.Backend {
	case CacheBackendRedis:
		a.rdStorage = a.initRedis(ctx)
		return a.rdStorage
	case CacheBackendMemory, "":
		return memcache.New()
	default:
		log.Fatalln("Unknown cache backend", "backend", a.cfg.Cache.Backend)
		return nil
	}
}

func (a *ApiApp) initRedis(ctx context.Context) *redis.Storage {
	options := &redisPack.Options{
		Addr:     a.cfg.Redis.Host,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	}

	rdStorage, err := redis.InitStorage(ctx, options, a.cfg.Redis.Channel)
	if err != nil {
		log.Fatalln("Failed to initialize Redis storage", "error", err)
	}

	return rdStorage
}

func (a *ApiApp) initDatabase(ctx context.Context) *postgres.Storage {
	pgStorage, err := postgres.InitStorage(ctx, a.cfg.DSN(), a.cfg.Storage.Timeout)
	if err != nil {
		log.Fatalln("Failed to initialize PostgresSQL storage", "error", err)
	}

	return pgStorage
}

func (a *ApiApp) initService(ctx context.Context, fetch service.Fetcher, cache service.Cache) *service.Service {
	opts := []service.Option{
		service.WithTTL(a.cfg.Cache.TTL),
		service.WithMetrics(a.metrics),
	}

	if a.cfg.Storage.Enabled {
		a.pgStorage = a.initDatabase(ctx)
		opts = append(opts, service.WithArchive(a.pgStorage))
		slog.Info("Storage initialized")
	}

	if a.rdStorage != nil {
		opts = append(opts, service.WithNotifier(a.rdStorage))
	}

	apiService, err := service.NewService(fetch, cache, opts...)
	if err != nil {
		log.Fatalln("Failed to initialize service rate", "error", err)
	}

	return apiService
}

// startWarmer keeps the cache fresh in the background so clients rarely wait
// on upstream.
func (a *ApiApp) startWarmer(ctx context.Context, fetch *fetcher.Fetcher, apiService *service.Service) {
	interval := a.cfg.Fetcher.WarmupInterval
	if interval <= 0 {
		return
	}

	go func() {
		err := fetch.StartFetcher(ctx, interval, func(ctx context.Context, payload *entities.RatesPayload, source string) error {
			apiService.Store(ctx, payload, source)
			return nil
		})
		slog.Info("cache warmer stopped", "reason", err)
	}()

	slog.Info("cache warmer started", "interval", interval)
}

// startRefreshListener logs refreshes announced by other replicas and the
// standalone fetcher.
func (a *ApiApp) startRefreshListener(ctx context.Context) {
	if a.rdStorage == nil {
		return
	}

	go func() {
		for {
			err := a.rdStorage.ListenRefresh(ctx, func(date string) {
				slog.Info("currency rates refreshed", "date", date)
			})
			if ctx.Err() != nil {
				return
			}
			slog.Warn("refresh listener failed", "error", err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}()
}

func (a *ApiApp) newLimiter() *limiter.Limiter {
	if a.cfg.RateLimit.Rate == "" {
		return nil
	}

	rate, err := limiter.NewRateFromFormatted(a.cfg.RateLimit.Rate)
	if err != nil {
		log.Fatalln("Invalid rate limit", "rate", a.cfg.RateLimit.Rate, "error", err)
	}

	return limiter.New(memory.NewStore(), rate)
}

func (a *ApiApp) StartServer(ctx context.Context, apiService *service.Service) <-chan struct{} {
	opts := []public.RouterOption{public.WithMetrics(a.metrics, a.registry)}
	if l := a.newLimiter(); l != nil {
		opts = append(opts, public.WithRateLimit(l))
	}

	serverDone := public.StartServer(ctx, public.NewRouter(apiService, opts...), a.cfg.HTTPServer)

	return serverDone
}

func (a *ApiApp) close() {
	if a.rdStorage != nil {
		if err := a.rdStorage.Close(); err != nil {
			slog.Error("Failed to close Redis storage", "error", err)
		}
	}
	if a.pgStorage != nil {
		a.pgStorage.Close()
	}
}
