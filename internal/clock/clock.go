package clock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iudanet/notex/internal/models"
)

// ErrUnavailable is returned when no stamp can be issued.
// No state has been written when it is returned, so the whole operation
// can be retried later.
var ErrUnavailable = errors.New("version clock unavailable")

// Source issues raw stamps. Values must strictly increase across calls.
type Source interface {
	Next(ctx context.Context) (models.SyncVersion, error)
}

// Clock issues sync versions with a reserve-then-commit discipline.
//
// Every stamp is handed out as a Reservation that stays pending until the
// writer commits or releases it. Horizon reports the highest stamp below
// which nothing is pending; readers never look past it, so no stamp is
// observed before its payload is durable.
type Clock struct {
	source  Source
	pending map[models.SyncVersion]struct{}
	issued  models.SyncVersion
	mu      sync.Mutex
	closed  bool
}

// New creates a clock over source. start is the highest stamp that is
// already durable (0 for an empty store).
func New(source Source, start models.SyncVersion) *Clock {
	return &Clock{
		source:  source,
		pending: make(map[models.SyncVersion]struct{}),
		issued:  start,
	}
}

// Reservation is an issued stamp whose payload is not yet resolved.
type Reservation struct {
	clock   *Clock
	version models.SyncVersion
	once    sync.Once
}

// Reserve issues the next stamp. Issuance is serialized across all callers.
func (c *Clock) Reserve(ctx context.Context) (*Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("%w: clock is closed", ErrUnavailable)
	}

	v, err := c.source.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	// Источник обязан выдавать строго возрастающие значения
	if v <= c.issued {
		return nil, fmt.Errorf("%w: source returned %d after %d", ErrUnavailable, v, c.issued)
	}

	c.issued = v
	c.pending[v] = struct{}{}

	return &Reservation{clock: c, version: v}, nil
}

// Horizon returns the highest stamp H such that every stamp <= H is resolved.
func (c *Clock) Horizon() models.SyncVersion {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.issued
	for v := range c.pending {
		if v-1 < h {
			h = v - 1
		}
	}
	return h
}

// Pending returns the number of unresolved reservations.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

// Close stops issuance. Outstanding reservations can still be resolved.
func (c *Clock) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
}

func (c *Clock) resolve(v models.SyncVersion) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pending, v)
}

// Version returns the reserved stamp.
func (r *Reservation) Version() models.SyncVersion {
	return r.version
}

// Commit marks the payload written under this stamp as durable.
func (r *Reservation) Commit() {
	r.once.Do(func() { r.clock.resolve(r.version) })
}

// Release gives the stamp up after a failed write. The stamp is never
// reused and leaves a gap in the feed.
func (r *Reservation) Release() {
	r.once.Do(func() { r.clock.resolve(r.version) })
}
