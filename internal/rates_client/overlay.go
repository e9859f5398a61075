package rates_client

import (
	"sync"

	"github.com/langowen/currency-rates/internal/entities"
)

// Mode selects which side of the rate edits apply to.
type Mode int

const (
	ModeSale Mode = iota
	ModePurchase
)

func (m Mode) String() string {
	if m == ModePurchase {
		return "purchase"
	}
	return "sale"
}

// Overlay is the user-editable copy of the last fetched rate. Further fetches
// reseed it; otherwise it only changes through Set, Reset and SwitchCurrency.
type Overlay struct {
	mu      sync.Mutex
	current entities.ExchangeRate
	fetched *entities.ExchangeRate
	ready   bool
	mode    Mode
}

func NewOverlay() *Overlay {
	return &Overlay{current: entities.LocalRate, mode: ModeSale}
}

// Observe follows the tracker. Success seeds both the editable and the
// fetched copy.
func (o *Overlay) Observe(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if s.Status != StatusSuccess {
		o.ready = false
		return
	}

	fetched := s.Data
	o.current = s.Data
	o.fetched = &fetched
	o.ready = true
}

// Rate is the effective rate: the edited copy once a lookup has succeeded,
// the local sentinel otherwise.
func (o *Overlay) Rate() entities.ExchangeRate {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.ready {
		return entities.LocalRate
	}
	return o.current
}

// Value is the side of the effective rate selected by the mode.
func (o *Overlay) Value() float64 {
	rate := o.Rate()
	if o.Mode() == ModePurchase {
		return rate.Purchase
	}
	return rate.Sale
}

func (o *Overlay) Set(v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.mode == ModePurchase {
		o.current.Purchase = v
		return
	}
	o.current.Sale = v
}

func (o *Overlay) Mode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.mode
}

func (o *Overlay) ToggleMode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.mode == ModeSale {
		o.mode = ModePurchase
	} else {
		o.mode = ModeSale
	}
	return o.mode
}

// ShowReset reports whether the edited copy differs from the last fetched one.
func (o *Overlay) ShowReset() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.fetched != nil && *o.fetched != o.current
}

// Reset restores the last fetched rate.
func (o *Overlay) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.fetched != nil {
		o.current = *o.fetched
	}
}

// SwitchCurrency discards any edit and returns to the local sentinel.
func (o *Overlay) SwitchCurrency() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.current = entities.LocalRate
	o.fetched = nil
	o.ready = false
}
