package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/notex/internal/models"
	"github.com/iudanet/notex/internal/server/storage"
)

// tables maps a resource kind to its live-state table
var tables = map[models.Kind]string{
	models.KindNotebook:     "notebooks",
	models.KindNote:         "notes",
	models.KindContentBlock: "content_blocks",
}

// PurgeResource removes the live row of a resource
// Returns ErrNotFound if the resource doesn't exist or was already deleted
func (t *tx) PurgeResource(ctx context.Context, kind models.Kind, id int64) error {
	table, ok := tables[kind]
	if !ok {
		return fmt.Errorf("unknown resource kind %q", kind)
	}

	result, err := t.q.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to purge %s: %w", kind, err)
	}

	return expectOneRow(result)
}

// InsertDeletion stores a tombstone and assigns its ID
func (t *tx) InsertDeletion(ctx context.Context, del *models.Deletion) error {
	query := `
		INSERT INTO deletions (type, resource_id, system_updated_at)
		VALUES (?, ?, ?)
	`

	result, err := t.q.ExecContext(ctx, query, string(del.Type), del.ResourceID, int64(del.SystemUpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert deletion: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get deletion id: %w", err)
	}
	del.ID = id

	return nil
}

// GetDeletion returns the tombstone of a resource
// Returns ErrDeletionNotFound if the resource was never deleted
func (s *Storage) GetDeletion(ctx context.Context, kind models.Kind, resourceID int64) (*models.Deletion, error) {
	query := `
		SELECT id, type, resource_id, system_updated_at
		FROM deletions
		WHERE type = ? AND resource_id = ?
	`

	del := &models.Deletion{}
	var kindName string
	var stamp int64

	err := s.db.QueryRowContext(ctx, query, string(kind), resourceID).Scan(
		&del.ID,
		&kindName,
		&del.ResourceID,
		&stamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDeletionNotFound
		}
		return nil, fmt.Errorf("failed to get deletion: %w", err)
	}

	del.Type = models.Kind(kindName)
	del.SystemUpdatedAt = models.SyncVersion(stamp)

	return del, nil
}
