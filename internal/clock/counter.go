package clock

import (
	"context"
	"sync"

	"github.com/iudanet/notex/internal/models"
)

// Counter is an in-process stamp source: a mutex-guarded monotonically
// increasing counter.
type Counter struct {
	counter int64      // последний выданный штамп
	mu      sync.Mutex // мьютекс для потокобезопасности
}

// NewCounter creates a counter that starts issuing stamps after start.
func NewCounter(start models.SyncVersion) *Counter {
	return &Counter{counter: int64(start)}
}

// Next increments the counter and returns the new value.
func (c *Counter) Next(ctx context.Context) (models.SyncVersion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counter++
	return models.SyncVersion(c.counter), nil
}
