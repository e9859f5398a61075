// Package rates_client consumes GET /api/currency-rates: it tracks the lookup
// for the selected currency and keeps a user-editable copy of the result.
package rates_client

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/langowen/currency-rates/internal/entities"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	return [...]string{"idle", "loading", "success", "error"}[s]
}

// State is one point of the lookup lifecycle. Data is set only for
// StatusSuccess and Err only for StatusError.
type State struct {
	Status Status
	Data   entities.ExchangeRate
	Err    error
}

type Fetcher interface {
	CurrencyRates(ctx context.Context) (*entities.RatesPayload, error)
}

// Tracker resolves the rate of the selected currency. Every Select starts a
// new generation; a response that arrives after a newer Select is dropped.
type Tracker struct {
	fetcher Fetcher

	mu         sync.Mutex
	state      State
	generation uint64

	publishMu sync.Mutex
	observers []func(State)
}

type Option func(t *Tracker)

// WithObserver registers fn to receive every state the tracker publishes.
func WithObserver(fn func(State)) Option {
	return func(t *Tracker) {
		t.observers = append(t.observers, fn)
	}
}

func NewTracker(fetcher Fetcher, opts ...Option) *Tracker {
	t := &Tracker{fetcher: fetcher}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// Select looks up code and returns the current state once it has resolved.
// When a newer Select started meanwhile, its state is returned instead of the
// dropped one. A nil code means the local currency and succeeds with
// entities.LocalRate without a request.
func (t *Tracker) Select(ctx context.Context, code *entities.CurrencyCode) State {
	gen := t.begin()

	if code == nil {
		t.publish(gen, State{Status: StatusSuccess, Data: entities.LocalRate})
		return t.State()
	}

	t.publish(gen, State{Status: StatusLoading})
	t.publish(gen, t.resolve(ctx, *code))

	return t.State()
}

func (t *Tracker) resolve(ctx context.Context, code entities.CurrencyCode) State {
	const op = "rates_client.resolve"

	payload, err := t.fetcher.CurrencyRates(ctx)
	if err != nil {
		return State{Status: StatusError, Err: errors.Wrap(err, op)}
	}

	rate, ok := payload.Find(code)
	if !ok {
		return State{Status: StatusError, Err: errors.Wrapf(entities.ErrRateNotFound, "%s: %s", op, code)}
	}

	purchase, err := strconv.ParseFloat(rate.PurchaseRate, 64)
	if err != nil {
		return State{Status: StatusError, Err: errors.Wrap(err, op)}
	}
	sale, err := strconv.ParseFloat(rate.SaleRate, 64)
	if err != nil {
		return State{Status: StatusError, Err: errors.Wrap(err, op)}
	}

	return State{Status: StatusSuccess, Data: entities.ExchangeRate{Purchase: purchase, Sale: sale}}
}

func (t *Tracker) begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.generation++
	return t.generation
}

// publish stores state and notifies observers unless a newer Select has
// started since gen. Observers run in publish order.
func (t *Tracker) publish(gen uint64, state State) {
	t.publishMu.Lock()
	defer t.publishMu.Unlock()

	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		return
	}
	t.state = state
	t.mu.Unlock()

	for _, fn := range t.observers {
		fn(state)
	}
}
