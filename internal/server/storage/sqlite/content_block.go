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

// GetContentBlock retrieves a live content block by ID
// Returns ErrNotFound if block doesn't exist or is deleted
func (s *Storage) GetContentBlock(ctx context.Context, id int64) (*models.ContentBlock, error) {
	return getContentBlock(ctx, s.db, id)
}

func (t *tx) GetContentBlock(ctx context.Context, id int64) (*models.ContentBlock, error) {
	return getContentBlock(ctx, t.q, id)
}

// InsertContentBlock stores a new content block and assigns its ID
func (t *tx) InsertContentBlock(ctx context.Context, block *models.ContentBlock) error {
	if t.enforceReferences {
		if err := t.requireLive(ctx, "notes", block.NoteID); err != nil {
			return err
		}
	}

	content, err := json.Marshal(block.Content)
	if err != nil {
		return fmt.Errorf("failed to encode content: %w", err)
	}

	query := `
		INSERT INTO content_blocks (content, note_id, created_at, updated_at, system_updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := t.q.ExecContext(ctx, query,
		string(content),
		block.NoteID,
		formatTime(block.CreatedAt),
		formatTime(block.UpdatedAt),
		int64(block.SystemUpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert content block: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get content block id: %w", err)
	}
	block.ID = id

	return nil
}

// UpdateContentBlock overwrites content, updatedAt and stamp of a live block
func (t *tx) UpdateContentBlock(ctx context.Context, block *models.ContentBlock) error {
	content, err := json.Marshal(block.Content)
	if err != nil {
		return fmt.Errorf("failed to encode content: %w", err)
	}

	query := `
		UPDATE content_blocks
		SET content = ?, updated_at = ?, system_updated_at = ?
		WHERE id = ?
	`

	result, err := t.q.ExecContext(ctx, query,
		string(content),
		formatTime(block.UpdatedAt),
		int64(block.SystemUpdatedAt),
		block.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update content block: %w", err)
	}

	return expectOneRow(result)
}

// ListContentBlockIDs returns ids of live blocks of a note
func (t *tx) ListContentBlockIDs(ctx context.Context, noteID int64) ([]int64, error) {
	return listIDs(ctx, t.q, `SELECT id FROM content_blocks WHERE note_id = ? ORDER BY id ASC`, noteID)
}

func getContentBlock(ctx context.Context, q querier, id int64) (*models.ContentBlock, error) {
	query := `
		SELECT id, content, note_id, created_at, updated_at, system_updated_at
		FROM content_blocks
		WHERE id = ?
	`

	block := &models.ContentBlock{}
	var content, createdAt, updatedAt string
	var stamp int64

	err := q.QueryRowContext(ctx, query, id).Scan(
		&block.ID,
		&content,
		&block.NoteID,
		&createdAt,
		&updatedAt,
		&stamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get content block: %w", err)
	}

	if err := json.Unmarshal([]byte(content), &block.Content); err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	if block.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if block.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	block.SystemUpdatedAt = models.SyncVersion(stamp)

	return block, nil
}
