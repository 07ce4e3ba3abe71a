package mutation

import (
	"context"

	"github.com/iudanet/notex/internal/models"
	"github.com/iudanet/notex/internal/server/storage"
	"github.com/iudanet/notex/internal/validation"
)

// CreateContentBlock stores a new content block under a fresh stamp.
func (l *Log) CreateContentBlock(ctx context.Context, p *models.NewContentBlock) (*models.ContentBlock, error) {
	if err := validation.ValidateNewContentBlock(p); err != nil {
		return nil, invalid(err)
	}

	createdAt := l.createdAt(p.CreatedAt)
	block := &models.ContentBlock{
		Content:   p.Content,
		NoteID:    p.NoteID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	err := l.write(ctx, func(tx storage.Tx, stamp stampFunc) error {
		v, err := stamp()
		if err != nil {
			return err
		}
		block.SystemUpdatedAt = v

		if err := tx.InsertContentBlock(ctx, block); err != nil {
			return err
		}
		return tx.AppendChange(ctx, models.Upsert(block))
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Content block created",
		"id", block.ID,
		"note_id", block.NoteID,
		"content_type", block.Content.Type(),
		"sync_version", block.SystemUpdatedAt)
	return block, nil
}

// UpdateContentBlock replaces the content and/or updatedAt of a live block.
func (l *Log) UpdateContentBlock(ctx context.Context, id int64, p *models.ContentBlockUpdate) (*models.ContentBlock, error) {
	if err := validation.ValidateContentBlockUpdate(p); err != nil {
		return nil, invalid(err)
	}

	var block *models.ContentBlock

	err := l.write(ctx, func(tx storage.Tx, stamp stampFunc) error {
		cur, err := tx.GetContentBlock(ctx, id)
		if err != nil {
			return err
		}

		v, err := stamp()
		if err != nil {
			return err
		}

		if p.Content != nil {
			cur.Content = *p.Content
		}
		if p.UpdatedAt != nil {
			cur.UpdatedAt = *p.UpdatedAt
		}
		cur.SystemUpdatedAt = v

		if err := tx.UpdateContentBlock(ctx, cur); err != nil {
			return err
		}
		block = cur
		return tx.AppendChange(ctx, models.Upsert(cur))
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Content block updated", "id", block.ID, "sync_version", block.SystemUpdatedAt)
	return block, nil
}

// DeleteContentBlock deletes a content block and returns its tombstone.
func (l *Log) DeleteContentBlock(ctx context.Context, id int64) (*models.Deletion, error) {
	return l.delete(ctx, models.KindContentBlock, id)
}
