package memory

import (
	"context"
	"sync"
	"time"

	"github.com/langowen/currency-rates/internal/entities"
)

// Cache keeps the latest payload in process. Writes replace the entry whole.
type Cache struct {
	mu      sync.RWMutex
	payload *entities.RatesPayload
	expires time.Time
	now     func() time.Time
}

func New() *Cache {
	return NewWithClock(time.Now)
}

func NewWithClock(now func() time.Time) *Cache {
	return &Cache{now: now}
}

func (c *Cache) Get(_ context.Context) (*entities.RatesPayload, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.payload == nil || !c.now().Before(c.expires) {
		return nil, false, nil
	}

	return c.payload, true, nil
}

func (c *Cache) Set(_ context.Context, payload *entities.RatesPayload, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.payload = payload
	c.expires = c.now().Add(ttl)

	return nil
}
