package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/notex/internal/models"
	"github.com/iudanet/notex/internal/server/storage"
)

// GetNote retrieves a live note by ID
// Returns ErrNotFound if note doesn't exist or is deleted
func (s *Storage) GetNote(ctx context.Context, id int64) (*models.Note, error) {
	return getNote(ctx, s.db, id)
}

func (t *tx) GetNote(ctx context.Context, id int64) (*models.Note, error) {
	return getNote(ctx, t.q, id)
}

// InsertNote stores a new note and assigns its ID
func (t *tx) InsertNote(ctx context.Context, note *models.Note) error {
	if t.enforceReferences {
		if err := t.requireLive(ctx, "notebooks", note.NotebookID); err != nil {
			return err
		}
	}

	tags, err := encodeTags(note.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO notes (title, tags, notebook_id, created_at, updated_at, system_updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := t.q.ExecContext(ctx, query,
		note.Title,
		tags,
		note.NotebookID,
		formatTime(note.CreatedAt),
		formatTime(note.UpdatedAt),
		int64(note.SystemUpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get note id: %w", err)
	}
	note.ID = id

	return nil
}

// UpdateNote overwrites title, tags, updatedAt and stamp of a live note
// notebook_id и created_at не меняются
func (t *tx) UpdateNote(ctx context.Context, note *models.Note) error {
	tags, err := encodeTags(note.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE notes
		SET title = ?, tags = ?, updated_at = ?, system_updated_at = ?
		WHERE id = ?
	`

	result, err := t.q.ExecContext(ctx, query,
		note.Title,
		tags,
		formatTime(note.UpdatedAt),
		int64(note.SystemUpdatedAt),
		note.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	return expectOneRow(result)
}

// ListNoteIDs returns ids of live notes in a notebook
func (t *tx) ListNoteIDs(ctx context.Context, notebookID int64) ([]int64, error) {
	return listIDs(ctx, t.q, `SELECT id FROM notes WHERE notebook_id = ? ORDER BY id ASC`, notebookID)
}

func getNote(ctx context.Context, q querier, id int64) (*models.Note, error) {
	query := `
		SELECT id, title, tags, notebook_id, created_at, updated_at, system_updated_at
		FROM notes
		WHERE id = ?
	`

	note := &models.Note{}
	var tags, createdAt, updatedAt string
	var stamp int64

	err := q.QueryRowContext(ctx, query, id).Scan(
		&note.ID,
		&note.Title,
		&tags,
		&note.NotebookID,
		&createdAt,
		&updatedAt,
		&stamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	if err := json.Unmarshal([]byte(tags), &note.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode note tags: %w", err)
	}
	if note.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if note.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	note.SystemUpdatedAt = models.SyncVersion(stamp)

	return note, nil
}

// encodeTags сохраняет теги как JSON массив; nil превращается в []
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode note tags: %w", err)
	}
	return string(data), nil
}
