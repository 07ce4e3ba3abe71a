// Package feed answers changesSince queries over the change log.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/notex/internal/models"
)

// ErrInvalidWatermark is returned for a negative watermark
var ErrInvalidWatermark = errors.New("invalid watermark")

// ChangeReader reads the persisted change log.
type ChangeReader interface {
	ReadChanges(ctx context.Context, after, upTo models.SyncVersion, limit int) ([]models.FeedEntry, error)
}

// Horizon reports the highest stamp whose payload and all predecessors are resolved.
type Horizon interface {
	Horizon() models.SyncVersion
}

// Page is one answer of ChangesSince.
type Page struct {
	Entries       []models.FeedEntry
	NextWatermark models.SyncVersion
	HasMore       bool // есть ещё записи до горизонта видимости
}

// Engine serves the change feed.
type Engine struct {
	reader  ChangeReader
	horizon Horizon
	logger  *slog.Logger
}

// NewEngine creates a feed engine
func NewEngine(reader ChangeReader, horizon Horizon, logger *slog.Logger) *Engine {
	return &Engine{
		reader:  reader,
		horizon: horizon,
		logger:  logger,
	}
}

// ChangesSince returns every upsert and tombstone with stamp > watermark in
// ascending stamp order, at most limit entries (limit <= 0 means no limit).
//
// Entries are capped at the clock horizon, so a stamp whose write is still in
// flight is never returned and no later stamp is returned ahead of it.
// NextWatermark is the stamp of the last returned entry, or the input
// watermark when nothing is newer.
func (e *Engine) ChangesSince(ctx context.Context, watermark models.SyncVersion, limit int) (*Page, error) {
	if watermark < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWatermark, watermark)
	}

	page := &Page{
		Entries:       []models.FeedEntry{},
		NextWatermark: watermark,
	}

	upTo := e.horizon.Horizon()
	if upTo <= watermark {
		return page, nil
	}

	fetch := limit
	if limit > 0 {
		fetch = limit + 1 // лишняя запись нужна только для HasMore
	}

	entries, err := e.reader.ReadChanges(ctx, watermark, upTo, fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to read changes: %w", err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
		page.HasMore = true
	}

	page.Entries = entries
	if len(entries) > 0 {
		page.NextWatermark = entries[len(entries)-1].Version()
	}

	e.logger.Debug("Changes served",
		"since", watermark,
		"horizon", upTo,
		"entries_count", len(entries),
		"next_watermark", page.NextWatermark,
		"has_more", page.HasMore)

	return page, nil
}
