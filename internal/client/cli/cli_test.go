package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notex/internal/client/iocli"
	"github.com/iudanet/notex/internal/client/storage/boltdb"
	"github.com/iudanet/notex/internal/client/sync"
	"github.com/iudanet/notex/internal/models"
)

var testTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

type fakeSyncService struct {
	result  *sync.SyncResult
	err     error
	watches []*sync.SyncResult
}

func (f *fakeSyncService) Sync(ctx context.Context) (*sync.SyncResult, error) {
	return f.result, f.err
}

func (f *fakeSyncService) Watch(ctx context.Context, onSync func(*sync.SyncResult)) error {
	for _, r := range f.watches {
		onSync(r)
	}
	return f.err
}

// newTestCli создает Cli с реальной репликой во временном каталоге
func newTestCli(t *testing.T, svc sync.Service) (*Cli, *bytes.Buffer, *boltdb.Storage) {
	t.Helper()

	replica, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = replica.Close() })

	var out bytes.Buffer
	return New(iocli.NewWriter(&out), svc, replica), &out, replica
}

func seedReplica(t *testing.T, replica *boltdb.Storage) {
	t.Helper()

	_, err := replica.ApplyPage(context.Background(), []models.FeedEntry{
		models.Upsert(&models.Notebook{ID: 1, Name: "Work", CreatedAt: testTime, SystemUpdatedAt: 1}),
		models.Upsert(&models.Note{ID: 1, NotebookID: 1, Title: "Plan", Tags: []string{"q1", "draft"}, CreatedAt: testTime, UpdatedAt: testTime, SystemUpdatedAt: 2}),
		models.Upsert(&models.ContentBlock{ID: 1, NoteID: 1, Content: models.NewTextContent("first line\nsecond line"), CreatedAt: testTime, UpdatedAt: testTime, SystemUpdatedAt: 3}),
		models.Upsert(&models.Note{ID: 2, NotebookID: 1, Title: "Gone", Tags: []string{}, CreatedAt: testTime, UpdatedAt: testTime, SystemUpdatedAt: 4}),
		models.Tombstone(&models.Deletion{Type: models.KindNote, ID: 1, ResourceID: 2, SystemUpdatedAt: 5}),
	}, 5)
	require.NoError(t, err)
}

func TestRun_UnknownCommand(t *testing.T) {
	c, out, _ := newTestCli(t, &fakeSyncService{})

	err := c.Run(context.Background(), "register", nil)
	require.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, err.Error(), "register")
	assert.Contains(t, out.String(), "Usage:")
}

func TestRun_Help(t *testing.T) {
	c, out, _ := newTestCli(t, &fakeSyncService{})

	require.NoError(t, c.Run(context.Background(), "help", nil))
	assert.Contains(t, out.String(), "list <kind>")
}

func TestRun_Sync(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeSyncService{result: &sync.SyncResult{Pages: 2, Received: 5, Upserted: 4, Tombstoned: 1, Skipped: 1, Watermark: 5}}
		c, out, _ := newTestCli(t, svc)

		require.NoError(t, c.Run(context.Background(), "sync", nil))

		output := out.String()
		assert.Contains(t, output, "Synchronization completed")
		assert.Contains(t, output, "Entries received:   5")
		assert.Contains(t, output, "Already applied:    1")
		assert.Contains(t, output, "Watermark:          5")
	})

	t.Run("failure", func(t *testing.T) {
		c, _, _ := newTestCli(t, &fakeSyncService{err: errors.New("connection refused")})

		err := c.Run(context.Background(), "sync", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "synchronization failed")
	})
}

func TestRun_Watch(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "stopped by signal", err: context.Canceled},
		{name: "stream closed", err: sync.ErrStreamClosed, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSyncService{
				err: tt.err,
				watches: []*sync.SyncResult{
					{Watermark: 4, Upserted: 4},
					{Watermark: 6, Upserted: 1, Tombstoned: 1},
				},
			}
			c, out, _ := newTestCli(t, svc)

			err := c.Run(context.Background(), "watch", nil)
			if tt.wantErr {
				require.ErrorIs(t, err, tt.err)
			} else {
				require.NoError(t, err)
			}

			output := out.String()
			assert.Contains(t, output, "synced to 4: 4 updated, 0 deleted")
			assert.Contains(t, output, "synced to 6: 1 updated, 1 deleted")
		})
	}
}

func TestRun_Status(t *testing.T) {
	c, out, replica := newTestCli(t, &fakeSyncService{})

	require.NoError(t, c.Run(context.Background(), "status", nil))
	assert.Contains(t, out.String(), "Never synchronized")

	seedReplica(t, replica)
	out.Reset()

	require.NoError(t, c.Run(context.Background(), "status", nil))
	output := out.String()
	assert.Contains(t, output, "Watermark:      5")
	assert.Contains(t, output, "Notebooks:      1")
	assert.Contains(t, output, "Notes:          1")
	assert.Contains(t, output, "Content blocks: 1")
	assert.Contains(t, output, "Tombstones:     1")
}

func TestRun_List(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
		absent   []string
		wantErr  string
	}{
		{
			name:     "notebooks",
			args:     []string{"notebooks"},
			expected: []string{"1. Work", "ID: 1  Version: 1", "Total: 1"},
		},
		{
			name:     "notes skip deleted",
			args:     []string{"Note"},
			expected: []string{"1. Plan", "Notebook: 1", "Tags: q1, draft"},
			absent:   []string{"Gone"},
		},
		{
			name:     "blocks",
			args:     []string{"content-blocks"},
			expected: []string{"[Text] first line …", "Note: 1"},
		},
		{
			name:    "missing kind",
			args:    nil,
			wantErr: "missing resource kind",
		},
		{
			name:    "unknown kind",
			args:    []string{"credentials"},
			wantErr: "unknown resource kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out, replica := newTestCli(t, &fakeSyncService{})
			seedReplica(t, replica)

			err := c.Run(context.Background(), "list", tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			output := out.String()
			for _, s := range tt.expected {
				assert.Contains(t, output, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, output, s)
			}
		})
	}
}

func TestRun_ListEmpty(t *testing.T) {
	c, out, _ := newTestCli(t, &fakeSyncService{})

	require.NoError(t, c.Run(context.Background(), "list", []string{"notes"}))
	assert.Contains(t, out.String(), "Nothing found")
}

func TestRun_Get(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
		wantErr  string
	}{
		{name: "live resource", args: []string{"notebook", "1"}, expected: `"name": "Work"`},
		{name: "deleted resource", args: []string{"note", "2"}, expected: "Note 2 was deleted at stamp 5"},
		{name: "unknown id", args: []string{"note", "42"}, wantErr: "Note not found with ID: 42"},
		{name: "invalid id", args: []string{"note", "abc"}, wantErr: "invalid id"},
		{name: "missing id", args: []string{"note"}, wantErr: "missing arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out, replica := newTestCli(t, &fakeSyncService{})
			seedReplica(t, replica)

			err := c.Run(context.Background(), "get", tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.expected)
		})
	}
}

func TestPreview(t *testing.T) {
	long := ""
	for range 70 {
		long += "я"
	}

	tests := []struct {
		name     string
		content  models.Content
		expected string
	}{
		{name: "text", content: models.NewTextContent("hello"), expected: "hello"},
		{name: "code", content: models.NewCodeContent("go", "fmt.Println()"), expected: "go: fmt.Println()"},
		{name: "multiline", content: models.NewTextContent("a\nb"), expected: "a …"},
		{name: "long", content: models.NewTextContent(long), expected: string([]rune(long)[:previewLen]) + "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, preview(tt.content))
		})
	}
}
