package mutation

import (
	"context"
	"fmt"

	"github.com/iudanet/notex/internal/models"
	"github.com/iudanet/notex/internal/server/storage"
)

// DeletePolicy decides what happens to the children of a deleted parent.
type DeletePolicy string

const (
	// DeleteOrphan deletes only the target; children keep dangling references.
	DeleteOrphan DeletePolicy = "orphan"
	// DeleteCascade also deletes children. Each child gets its own tombstone
	// and stamp, ordered before the parent's.
	DeleteCascade DeletePolicy = "cascade"
)

// ParseDeletePolicy parses a policy name; empty means DeleteOrphan.
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch DeletePolicy(s) {
	case "", DeleteOrphan:
		return DeleteOrphan, nil
	case DeleteCascade:
		return DeleteCascade, nil
	default:
		return "", fmt.Errorf("unknown delete policy %q", s)
	}
}

func (l *Log) delete(ctx context.Context, kind models.Kind, id int64) (*models.Deletion, error) {
	var (
		del      *models.Deletion
		children int
	)

	err := l.write(ctx, func(tx storage.Tx, stamp stampFunc) error {
		if l.policy == DeleteCascade {
			if err := requireLive(ctx, tx, kind, id); err != nil {
				return err
			}
			n, err := l.deleteChildren(ctx, tx, stamp, kind, id)
			if err != nil {
				return err
			}
			children = n
		}

		var err error
		del, err = tombstone(ctx, tx, stamp, kind, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Resource deleted",
		"kind", kind,
		"id", id,
		"sync_version", del.SystemUpdatedAt,
		"cascaded", children)
	return del, nil
}

// deleteChildren tombstones the live children of a parent, deepest first.
// Returns the number of tombstones written.
func (l *Log) deleteChildren(ctx context.Context, tx storage.Tx, stamp stampFunc, kind models.Kind, id int64) (int, error) {
	var (
		childKind models.Kind
		ids       []int64
		err       error
	)

	switch kind {
	case models.KindNotebook:
		childKind = models.KindNote
		ids, err = tx.ListNoteIDs(ctx, id)
	case models.KindNote:
		childKind = models.KindContentBlock
		ids, err = tx.ListContentBlockIDs(ctx, id)
	default:
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	count := 0
	for _, childID := range ids {
		n, err := l.deleteChildren(ctx, tx, stamp, childKind, childID)
		if err != nil {
			return 0, err
		}
		if _, err := tombstone(ctx, tx, stamp, childKind, childID); err != nil {
			return 0, err
		}
		count += n + 1
	}

	return count, nil
}

// tombstone purges the live row and records the deletion under a new stamp
func tombstone(ctx context.Context, tx storage.Tx, stamp stampFunc, kind models.Kind, id int64) (*models.Deletion, error) {
	if err := tx.PurgeResource(ctx, kind, id); err != nil {
		return nil, err
	}

	v, err := stamp()
	if err != nil {
		return nil, err
	}

	del := &models.Deletion{Type: kind, ResourceID: id, SystemUpdatedAt: v}
	if err := tx.InsertDeletion(ctx, del); err != nil {
		return nil, err
	}

	if err := tx.AppendChange(ctx, models.Tombstone(del)); err != nil {
		return nil, err
	}

	return del, nil
}

func requireLive(ctx context.Context, tx storage.Tx, kind models.Kind, id int64) error {
	var err error
	switch kind {
	case models.KindNotebook:
		_, err = tx.GetNotebook(ctx, id)
	case models.KindNote:
		_, err = tx.GetNote(ctx, id)
	case models.KindContentBlock:
		_, err = tx.GetContentBlock(ctx, id)
	default:
		err = fmt.Errorf("unknown resource kind %q", kind)
	}
	return err
}
