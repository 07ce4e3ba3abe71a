package mutation

import (
	"context"
	"slices"

	"github.com/iudanet/notex/internal/models"
	"github.com/iudanet/notex/internal/server/storage"
	"github.com/iudanet/notex/internal/validation"
)

// CreateNote stores a new note under a fresh stamp.
// updatedAt starts equal to createdAt.
func (l *Log) CreateNote(ctx context.Context, p *models.NewNote) (*models.Note, error) {
	if err := validation.ValidateNewNote(p); err != nil {
		return nil, invalid(err)
	}

	createdAt := l.createdAt(p.CreatedAt)
	tags := slices.Clone(p.Tags)
	if tags == nil {
		tags = []string{}
	}

	note := &models.Note{
		Title:      p.Title,
		Tags:       tags,
		NotebookID: p.NotebookID,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}

	err := l.write(ctx, func(tx storage.Tx, stamp stampFunc) error {
		v, err := stamp()
		if err != nil {
			return err
		}
		note.SystemUpdatedAt = v

		if err := tx.InsertNote(ctx, note); err != nil {
			return err
		}
		return tx.AppendChange(ctx, models.Upsert(note))
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Note created",
		"id", note.ID,
		"notebook_id", note.NotebookID,
		"sync_version", note.SystemUpdatedAt)
	return note, nil
}

// UpdateNote applies a partial update to a live note.
// notebookId never changes.
func (l *Log) UpdateNote(ctx context.Context, id int64, p *models.NoteUpdate) (*models.Note, error) {
	if err := validation.ValidateNoteUpdate(p); err != nil {
		return nil, invalid(err)
	}

	var note *models.Note

	err := l.write(ctx, func(tx storage.Tx, stamp stampFunc) error {
		cur, err := tx.GetNote(ctx, id)
		if err != nil {
			return err
		}

		v, err := stamp()
		if err != nil {
			return err
		}

		if p.Title != nil {
			cur.Title = *p.Title
		}
		if p.Tags != nil {
			cur.Tags = slices.Clone(p.Tags)
		}
		if p.UpdatedAt != nil {
			cur.UpdatedAt = *p.UpdatedAt
		}
		cur.SystemUpdatedAt = v

		if err := tx.UpdateNote(ctx, cur); err != nil {
			return err
		}
		note = cur
		return tx.AppendChange(ctx, models.Upsert(cur))
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Note updated", "id", note.ID, "sync_version", note.SystemUpdatedAt)
	return note, nil
}

// DeleteNote deletes a note and returns its tombstone.
func (l *Log) DeleteNote(ctx context.Context, id int64) (*models.Deletion, error) {
	return l.delete(ctx, models.KindNote, id)
}
