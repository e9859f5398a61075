package public

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/langowen/currency-rates/deploy/config"
	mwLogger "github.com/langowen/currency-rates/internal/api_service/ports/http/public/middleware/logger"
	"github.com/langowen/currency-rates/internal/entities"
	"github.com/langowen/currency-rates/internal/metrics"
)

const (
	RatesPath   = "/api/currency-rates"
	HistoryPath = "/api/currency-rates/history"

	MsgUnavailable = "Unable to retrieve currency rates"
	MsgFailure     = "Error fetching currency rates"
)

type Server struct {
	service Service
}

type routerOptions struct {
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	limiter  *limiter.Limiter
}

type RouterOption func(o *routerOptions)

func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) RouterOption {
	return func(o *routerOptions) {
		o.metrics = m
		o.gatherer = gatherer
	}
}

// WithRateLimit throttles the /api routes per client IP.
func WithRateLimit(l *limiter.Limiter) RouterOption {
	return func(o *routerOptions) {
		o.limiter = l
	}
}

func NewRouter(service Service, opts ...RouterOption) http.Handler {
	o := &routerOptions{}
	for _, opt := range opts {
		opt(o)
	}

	s := &Server{service: service}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mwLogger.New())
	r.Use(middleware.Recoverer)
	r.Use(o.metrics.Middleware)

	if o.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/healthz", s.Healthz)

	r.Group(func(r chi.Router) {
		if o.limiter != nil {
			r.Use(stdlib.NewMiddleware(o.limiter).Handler)
		}

		r.Get(RatesPath, s.GetCurrencyRates)
		if service.HistoryEnabled() {
			r.Get(HistoryPath, s.GetHistory)
		}
	})

	return r
}

func StartServer(ctx context.Context, handler http.Handler, cfg config.HTTPServer) <-chan struct{} {
	serverConfig := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	doneChan := make(chan struct{})

	go func() {
		slog.Info("http server listening", "addr", serverConfig.Addr)
		if err := serverConfig.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := serverConfig.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to stop server", "error", err)
		}

		close(doneChan)
	}()

	return doneChan
}

func (s *Server) GetCurrencyRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := s.service.CurrencyRates(ctx)
	if err != nil {
		w.Header().Set("Cache-Control", "no-store")

		if errors.Is(err, entities.ErrUpstreamUnavailable) {
			slog.Warn("no usable currency rates upstream", "error", err)
			RespondWithError(w, http.StatusBadGateway, MsgUnavailable)
			return
		}

		slog.Error("currency rates request failed", "error", err)
		RespondWithError(w, http.StatusInternalServerError, MsgFailure)
		return
	}

	w.Header().Set("Cache-Control", fmt.Sprintf("s-maxage=%d, stale-while-revalidate", int(s.service.CacheTTL().Seconds())))
	RespondWithJSON(w, http.StatusOK, payload)
}

func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code, err := entities.ParseCode(r.URL.Query().Get("code"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "unknown currency code")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			RespondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	snapshots, err := s.service.History(ctx, code, limit)
	if err != nil {
		slog.Error("currency rates history request failed", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "Error fetching currency rates history")
		return
	}

	RespondWithJSON(w, http.StatusOK, snapshots)
}

func (s *Server) Healthz(w http.ResponseWriter, _ *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func RespondWithJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"message": message})
}
