package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/notex/internal/models"
	"github.com/iudanet/notex/internal/server/storage"
)

// GetNotebook retrieves a live notebook by ID
// Returns ErrNotFound if notebook doesn't exist or is deleted
func (s *Storage) GetNotebook(ctx context.Context, id int64) (*models.Notebook, error) {
	return getNotebook(ctx, s.db, id)
}

func (t *tx) GetNotebook(ctx context.Context, id int64) (*models.Notebook, error) {
	return getNotebook(ctx, t.q, id)
}

// InsertNotebook stores a new notebook and assigns its ID
func (t *tx) InsertNotebook(ctx context.Context, nb *models.Notebook) error {
	query := `
		INSERT INTO notebooks (name, created_at, system_updated_at)
		VALUES (?, ?, ?)
	`

	result, err := t.q.ExecContext(ctx, query,
		nb.Name,
		formatTime(nb.CreatedAt),
		int64(nb.SystemUpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notebook: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get notebook id: %w", err)
	}
	nb.ID = id

	return nil
}

// UpdateNotebook overwrites name and stamp of a live notebook
func (t *tx) UpdateNotebook(ctx context.Context, nb *models.Notebook) error {
	query := `
		UPDATE notebooks
		SET name = ?, system_updated_at = ?
		WHERE id = ?
	`

	result, err := t.q.ExecContext(ctx, query, nb.Name, int64(nb.SystemUpdatedAt), nb.ID)
	if err != nil {
		return fmt.Errorf("failed to update notebook: %w", err)
	}

	return expectOneRow(result)
}

func getNotebook(ctx context.Context, q querier, id int64) (*models.Notebook, error) {
	query := `
		SELECT id, name, created_at, system_updated_at
		FROM notebooks
		WHERE id = ?
	`

	nb := &models.Notebook{}
	var createdAt string
	var stamp int64

	err := q.QueryRowContext(ctx, query, id).Scan(&nb.ID, &nb.Name, &createdAt, &stamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get notebook: %w", err)
	}

	if nb.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	nb.SystemUpdatedAt = models.SyncVersion(stamp)

	return nb, nil
}
