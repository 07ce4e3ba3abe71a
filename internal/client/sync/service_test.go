package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notex/internal/client/storage/boltdb"
	"github.com/iudanet/notex/internal/models"
	"github.com/iudanet/notex/pkg/api"
)

var testTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupReplica(t *testing.T) *boltdb.Storage {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "replica.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// fakeFeed отдаёт записи в порядке штампов, как сервер
type fakeFeed struct {
	mu      stdsync.Mutex
	entries []models.FeedEntry
	calls   []models.SyncVersion
	err     error
	notify  chan api.ChangeNotification
	watch   func(ctx context.Context, fn func(api.ChangeNotification)) error
}

func newFakeFeed(entries ...models.FeedEntry) *fakeFeed {
	return &fakeFeed{entries: entries, notify: make(chan api.ChangeNotification, 8)}
}

func (f *fakeFeed) add(entries ...models.FeedEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
}

func (f *fakeFeed) sinceCalls() []models.SyncVersion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SyncVersion(nil), f.calls...)
}

func (f *fakeFeed) Changes(ctx context.Context, since models.SyncVersion, limit int) (*api.SyncResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, since)
	if f.err != nil {
		return nil, f.err
	}

	resp := &api.SyncResponse{Entries: []api.FeedEntry{}, NextWatermark: since}
	for _, e := range f.entries {
		if e.Version() <= since {
			continue
		}
		if limit > 0 && len(resp.Entries) == limit {
			resp.HasMore = true
			break
		}
		wire, err := api.NewFeedEntry(e)
		if err != nil {
			return nil, err
		}
		resp.Entries = append(resp.Entries, wire)
		resp.NextWatermark = e.Version()
	}

	return resp, nil
}

func (f *fakeFeed) Watch(ctx context.Context, fn func(api.ChangeNotification)) error {
	if f.watch != nil {
		return f.watch(ctx, fn)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-f.notify:
			fn(n)
		}
	}
}

func exampleEntries() []models.FeedEntry {
	return []models.FeedEntry{
		models.Upsert(&models.Notebook{ID: 1, Name: "Work", CreatedAt: testTime, SystemUpdatedAt: 1}),
		models.Upsert(&models.Note{ID: 1, NotebookID: 1, Title: "Todo", Tags: []string{}, CreatedAt: testTime, UpdatedAt: testTime, SystemUpdatedAt: 2}),
		models.Upsert(&models.Notebook{ID: 1, Name: "Work v2", CreatedAt: testTime, SystemUpdatedAt: 3}),
		models.Tombstone(&models.Deletion{Type: models.KindNote, ID: 1, ResourceID: 1, SystemUpdatedAt: 4}),
	}
}

func TestSync_PagesUntilCaughtUp(t *testing.T) {
	ctx := context.Background()
	feed := newFakeFeed(exampleEntries()...)
	replica := setupReplica(t)

	svc := NewService(feed, replica, 2, setupTestLogger())

	result, err := svc.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, &SyncResult{
		Pages:      2,
		Received:   4,
		Upserted:   3,
		Tombstoned: 1,
		Watermark:  4,
	}, result)
	assert.Equal(t, []models.SyncVersion{0, 2}, feed.sinceCalls())

	watermark, err := replica.GetWatermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncVersion(4), watermark)

	res, err := replica.GetResource(ctx, models.KindNotebook, 1)
	require.NoError(t, err)
	assert.Equal(t, "Work v2", res.(*models.Notebook).Name)
}

func TestSync_ResumesFromWatermark(t *testing.T) {
	ctx := context.Background()
	feed := newFakeFeed(exampleEntries()...)
	svc := NewService(feed, setupReplica(t), 0, setupTestLogger())

	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	feed.add(models.Upsert(&models.Notebook{ID: 2, Name: "Home", CreatedAt: testTime, SystemUpdatedAt: 5}))

	result, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 1, result.Received)
	assert.Equal(t, 1, result.Upserted)
	assert.Equal(t, models.SyncVersion(5), result.Watermark)

	// Третья синхронизация ничего не получает
	result, err = svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Received)
	assert.Equal(t, models.SyncVersion(5), result.Watermark)

	assert.Equal(t, []models.SyncVersion{0, 4, 5}, feed.sinceCalls())
}

func TestSync_ReplayIsNoop(t *testing.T) {
	ctx := context.Background()
	replica := setupReplica(t)

	// Сервер, игнорирующий since, отдаёт всю ленту повторно
	wire := make([]api.FeedEntry, 0, 4)
	for _, e := range exampleEntries() {
		w, err := api.NewFeedEntry(e)
		require.NoError(t, err)
		wire = append(wire, w)
	}
	replay := &replayAPI{resp: &api.SyncResponse{Entries: wire, NextWatermark: 4}}

	svc := NewService(replay, replica, 0, setupTestLogger())

	_, err := svc.Sync(ctx)
	require.NoError(t, err)
	before, err := replica.Stats(ctx)
	require.NoError(t, err)

	result, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Skipped)
	assert.Equal(t, 0, result.Upserted+result.Tombstoned)

	after, err := replica.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

type replayAPI struct {
	resp *api.SyncResponse
}

func (r *replayAPI) Changes(ctx context.Context, since models.SyncVersion, limit int) (*api.SyncResponse, error) {
	return r.resp, nil
}

func (r *replayAPI) Watch(ctx context.Context, fn func(api.ChangeNotification)) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestSync_Errors(t *testing.T) {
	tests := []struct {
		name    string
		resp    *api.SyncResponse
		apiErr  error
		wantErr string
	}{
		{
			name:    "api error",
			apiErr:  errors.New("connection refused"),
			wantErr: "sync request failed",
		},
		{
			name: "unknown kind",
			resp: &api.SyncResponse{
				Entries:       []api.FeedEntry{{Kind: "Folder", Upsert: []byte(`{"id":1}`)}},
				NextWatermark: 1,
			},
			wantErr: "invalid feed entry 0",
		},
		{
			name:    "stuck watermark",
			resp:    &api.SyncResponse{Entries: []api.FeedEntry{}, NextWatermark: 0, HasMore: true},
			wantErr: "server returned watermark",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			replica := setupReplica(t)

			var svc Service
			if tt.apiErr != nil {
				feed := newFakeFeed()
				feed.err = tt.apiErr
				svc = NewService(feed, replica, 0, setupTestLogger())
			} else {
				svc = NewService(&replayAPI{resp: tt.resp}, replica, 0, setupTestLogger())
			}

			result, err := svc.Sync(ctx)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Contains(t, err.Error(), tt.wantErr)

			watermark, err := replica.GetWatermark(ctx)
			require.NoError(t, err)
			assert.Equal(t, models.SyncVersion(0), watermark)
		})
	}
}

func TestWatch_SyncsOnNotification(t *testing.T) {
	feed := newFakeFeed(exampleEntries()...)
	svc := NewService(feed, setupReplica(t), 0, setupTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan *SyncResult, 8)
	done := make(chan error, 1)
	go func() {
		done <- svc.Watch(ctx, func(r *SyncResult) { results <- r })
	}()

	// Начальная синхронизация
	select {
	case r := <-results:
		assert.Equal(t, models.SyncVersion(4), r.Watermark)
	case <-time.After(3 * time.Second):
		t.Fatal("initial sync did not happen")
	}

	// Уведомление об уже применённом watermark игнорируется
	feed.notify <- api.ChangeNotification{Type: api.NotificationTypeChanges, Watermark: 4}

	feed.add(models.Upsert(&models.Notebook{ID: 2, Name: "Home", CreatedAt: testTime, SystemUpdatedAt: 5}))
	feed.notify <- api.ChangeNotification{Type: api.NotificationTypeChanges, Watermark: 5}

	select {
	case r := <-results:
		assert.Equal(t, models.SyncVersion(5), r.Watermark)
		assert.Equal(t, 1, r.Upserted)
	case <-time.After(3 * time.Second):
		t.Fatal("notification did not trigger sync")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}

	// Начальная синхронизация и одна по уведомлению
	assert.Equal(t, []models.SyncVersion{0, 4}, feed.sinceCalls())
}

func TestWatch_StreamClosed(t *testing.T) {
	feed := newFakeFeed()
	feed.watch = func(ctx context.Context, fn func(api.ChangeNotification)) error {
		return nil
	}
	svc := NewService(feed, setupReplica(t), 0, setupTestLogger())

	err := svc.Watch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestWatch_InitialSyncError(t *testing.T) {
	feed := newFakeFeed()
	feed.err = errors.New("boom")
	feed.watch = func(ctx context.Context, fn func(api.ChangeNotification)) error {
		t.Error("watch must not start when the initial sync fails")
		return nil
	}
	svc := NewService(feed, setupReplica(t), 0, setupTestLogger())

	err := svc.Watch(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
