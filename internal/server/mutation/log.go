// Package mutation implements the write side of the change feed: every create,
// update and delete is stamped by the version clock and persisted together with
// its change log entry.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/notex/internal/clock"
	"github.com/iudanet/notex/internal/models"
	"github.com/iudanet/notex/internal/server/storage"
)

// Errors returned by Log operations
var (
	// ErrValidation indicates a malformed create or update payload.
	// The underlying *validation.FieldError is available through errors.As.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates that the target resource is unknown or deleted
	ErrNotFound = errors.New("resource not found")

	// ErrForeignKeyUnresolved indicates that a referenced parent is not live
	// (only when the storage enforces references)
	ErrForeignKeyUnresolved = errors.New("referenced resource not found")

	// ErrClockUnavailable indicates that no stamp could be issued; nothing was written
	ErrClockUnavailable = clock.ErrUnavailable
)

// Clock issues stamps with reserve-then-commit semantics.
// *clock.Clock satisfies it.
type Clock interface {
	Reserve(ctx context.Context) (*clock.Reservation, error)
	Horizon() models.SyncVersion
}

// Notifier is told the new visibility horizon after each committed mutation.
type Notifier interface {
	Publish(watermark models.SyncVersion)
}

// Log applies mutations to the store.
type Log struct {
	store    storage.Store
	clock    Clock
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	policy   DeletePolicy
}

// Option configures a Log
type Option func(*Log)

// WithDeletePolicy sets how deleting a parent treats its children.
func WithDeletePolicy(policy DeletePolicy) Option {
	return func(l *Log) {
		l.policy = policy
	}
}

// WithNotifier sets the receiver of change notifications.
func WithNotifier(n Notifier) Option {
	return func(l *Log) {
		l.notifier = n
	}
}

// WithNow replaces the source of server time used for absent createdAt values.
func WithNow(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// NewLog creates a mutation log
func NewLog(store storage.Store, clk Clock, logger *slog.Logger, opts ...Option) *Log {
	l := &Log{
		store:  store,
		clock:  clk,
		logger: logger,
		now:    time.Now,
		policy: DeleteOrphan,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Policy returns the delete policy in effect.
func (l *Log) Policy() DeletePolicy {
	return l.policy
}

// stampFunc reserves the next stamp for a write inside the current transaction
type stampFunc func() (models.SyncVersion, error)

// write runs fn in one storage transaction. Stamps reserved through the
// stampFunc are committed only after the transaction commits and released
// otherwise, so a stamp and its payload become visible together.
func (l *Log) write(ctx context.Context, fn func(tx storage.Tx, stamp stampFunc) error) error {
	var reservations []*clock.Reservation

	stamp := func() (models.SyncVersion, error) {
		r, err := l.clock.Reserve(ctx)
		if err != nil {
			return 0, err
		}
		reservations = append(reservations, r)
		return r.Version(), nil
	}

	err := l.store.InTx(ctx, func(tx storage.Tx) error {
		return fn(tx, stamp)
	})
	if err != nil {
		for _, r := range reservations {
			r.Release()
		}
		if len(reservations) > 0 {
			l.logger.Warn("Mutation rolled back, stamps released",
				"released", len(reservations),
				"error", err)
		}
		return classify(err)
	}

	for _, r := range reservations {
		r.Commit()
	}

	if l.notifier != nil && len(reservations) > 0 {
		l.notifier.Publish(l.clock.Horizon())
	}

	return nil
}

// classify translates storage errors into Log errors
func classify(err error) error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForeignKeyUnresolved), errors.Is(err, ErrClockUnavailable):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, storage.ErrForeignKeyUnresolved):
		return fmt.Errorf("%w: %w", ErrForeignKeyUnresolved, err)
	default:
		return err
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// createdAt returns the payload time or the server time when absent
func (l *Log) createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return l.now().UTC()
	}
	return t
}
