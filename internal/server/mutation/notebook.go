package mutation

import (
	"context"

	"github.com/iudanet/notex/internal/models"
	"github.com/iudanet/notex/internal/server/storage"
	"github.com/iudanet/notex/internal/validation"
)

// CreateNotebook stores a new notebook under a fresh stamp.
func (l *Log) CreateNotebook(ctx context.Context, p *models.NewNotebook) (*models.Notebook, error) {
	if err := validation.ValidateNewNotebook(p); err != nil {
		return nil, invalid(err)
	}

	nb := &models.Notebook{
		Name:      p.Name,
		CreatedAt: l.createdAt(p.CreatedAt),
	}

	err := l.write(ctx, func(tx storage.Tx, stamp stampFunc) error {
		v, err := stamp()
		if err != nil {
			return err
		}
		nb.SystemUpdatedAt = v

		if err := tx.InsertNotebook(ctx, nb); err != nil {
			return err
		}
		return tx.AppendChange(ctx, models.Upsert(nb))
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Notebook created", "id", nb.ID, "sync_version", nb.SystemUpdatedAt)
	return nb, nil
}

// UpdateNotebook renames a live notebook.
func (l *Log) UpdateNotebook(ctx context.Context, id int64, p *models.NotebookUpdate) (*models.Notebook, error) {
	if err := validation.ValidateNotebookUpdate(p); err != nil {
		return nil, invalid(err)
	}

	var nb *models.Notebook

	err := l.write(ctx, func(tx storage.Tx, stamp stampFunc) error {
		cur, err := tx.GetNotebook(ctx, id)
		if err != nil {
			return err
		}

		v, err := stamp()
		if err != nil {
			return err
		}

		cur.Name = *p.Name
		cur.SystemUpdatedAt = v

		if err := tx.UpdateNotebook(ctx, cur); err != nil {
			return err
		}
		nb = cur
		return tx.AppendChange(ctx, models.Upsert(cur))
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Notebook updated", "id", nb.ID, "sync_version", nb.SystemUpdatedAt)
	return nb, nil
}

// DeleteNotebook deletes a notebook and returns its tombstone.
// Notes of the notebook are handled by the delete policy.
func (l *Log) DeleteNotebook(ctx context.Context, id int64) (*models.Deletion, error) {
	return l.delete(ctx, models.KindNotebook, id)
}
