// Package sync pulls the server change feed into the local replica.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	httpClient "github.com/iudanet/notex/internal/client/api"
	"github.com/iudanet/notex/internal/client/storage"
	"github.com/iudanet/notex/internal/models"
	"github.com/iudanet/notex/pkg/api"
)

// ErrStreamClosed is returned by Watch when the server closes the notification stream
var ErrStreamClosed = errors.New("notification stream closed")

// Service определяет интерфейс для sync.Service
type Service interface {
	// Sync pulls feed pages until the replica has caught up with the server
	Sync(ctx context.Context) (*SyncResult, error)

	// Watch syncs once, then again after every change notification.
	// onSync, if not nil, is called after each successful sync.
	Watch(ctx context.Context, onSync func(*SyncResult)) error
}

// SyncResult contains sync operation results
type SyncResult struct {
	Pages      int                // количество запрошенных страниц
	Received   int                // количество полученных записей
	Upserted   int                // записано новых версий ресурсов
	Tombstoned int                // записано удалений
	Skipped    int                // уже применённые записи
	Watermark  models.SyncVersion // watermark после синхронизации
}

type service struct {
	apiClient httpClient.ClientAPI
	replica   storage.ReplicaStorage
	logger    *slog.Logger
	pageSize  int
	applied   atomic.Int64 // последний применённый watermark
}

// NewService creates a new sync service.
// A non-positive pageSize leaves the page size to the server.
func NewService(apiClient httpClient.ClientAPI, replica storage.ReplicaStorage, pageSize int, logger *slog.Logger) Service {
	return &service{
		apiClient: apiClient,
		replica:   replica,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// Sync performs pull synchronization with the server:
// 1. Reads the local watermark
// 2. Requests the changes after it page by page
// 3. Applies every page together with its watermark
func (s *service) Sync(ctx context.Context) (*SyncResult, error) {
	watermark, err := s.replica.GetWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get watermark: %w", err)
	}

	s.logger.Debug("Starting synchronization", slog.Int64("watermark", int64(watermark)))

	result := &SyncResult{Watermark: watermark}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := s.apiClient.Changes(ctx, watermark, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("sync request failed: %w", err)
		}
		result.Pages++

		// Страница с hasMore обязана продвигать watermark, иначе цикл не завершится
		if resp.NextWatermark < watermark || (resp.HasMore && resp.NextWatermark == watermark) {
			return nil, fmt.Errorf("server returned watermark %d after %d", resp.NextWatermark, watermark)
		}

		entries, err := decodeEntries(resp.Entries)
		if err != nil {
			return nil, err
		}

		applied, err := s.replica.ApplyPage(ctx, entries, resp.NextWatermark)
		if err != nil {
			return nil, err
		}

		result.Received += len(entries)
		result.Upserted += applied.Upserted
		result.Tombstoned += applied.Tombstoned
		result.Skipped += applied.Skipped

		watermark = resp.NextWatermark
		result.Watermark = watermark
		s.applied.Store(int64(watermark))

		if !resp.HasMore {
			break
		}
	}

	s.logger.Info("Synchronization completed",
		slog.Int("pages", result.Pages),
		slog.Int("received", result.Received),
		slog.Int("upserted", result.Upserted),
		slog.Int("tombstoned", result.Tombstoned),
		slog.Int("skipped", result.Skipped),
		slog.Int64("watermark", int64(result.Watermark)))

	return result, nil
}

// Watch keeps the replica up to date until ctx is cancelled.
// Notifications that arrive during a sync are coalesced into one more sync.
func (s *service) Watch(ctx context.Context, onSync func(*SyncResult)) error {
	if err := s.syncAndReport(ctx, onSync); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wake := make(chan struct{}, 1)
	done := make(chan error, 1)

	go func() {
		done <- s.apiClient.Watch(ctx, func(n api.ChangeNotification) {
			// Уже применённые изменения не требуют запроса
			if int64(n.Watermark) <= s.applied.Load() {
				return
			}
			select {
			case wake <- struct{}{}:
			default:
			}
		})
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			if err == nil {
				return ErrStreamClosed
			}
			return err
		case <-wake:
			if err := s.syncAndReport(ctx, onSync); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn("Synchronization failed, waiting for next notification", slog.Any("error", err))
			}
		}
	}
}

func (s *service) syncAndReport(ctx context.Context, onSync func(*SyncResult)) error {
	result, err := s.Sync(ctx)
	if err != nil {
		return err
	}
	if onSync != nil {
		onSync(result)
	}
	return nil
}

// decodeEntries конвертирует записи API в модели, отклоняя некорректные
func decodeEntries(wire []api.FeedEntry) ([]models.FeedEntry, error) {
	entries := make([]models.FeedEntry, 0, len(wire))
	for i, e := range wire {
		entry, err := e.ToModel()
		if err != nil {
			return nil, fmt.Errorf("invalid feed entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
