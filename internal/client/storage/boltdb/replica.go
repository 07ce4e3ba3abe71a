package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/notex/internal/client/storage"
	"github.com/iudanet/notex/internal/models"
)

// ApplyPage applies a feed page and stores the watermark in one transaction.
//
// An upsert is skipped when the resource is already tombstoned or the stored
// version is not older than the entry. A tombstone removes the resource and is
// recorded once. If any entry fails, nothing from the page is kept.
func (s *Storage) ApplyPage(ctx context.Context, entries []models.FeedEntry, watermark models.SyncVersion) (storage.ApplyResult, error) {
	var result storage.ApplyResult

	if err := ctx.Err(); err != nil {
		return result, err
	}

	err := s.update(func(tx *bbolt.Tx) error {
		deletions, err := bucket(tx, bucketDeletions)
		if err != nil {
			return err
		}

		for i, entry := range entries {
			var applied bool
			if entry.IsTombstone() {
				applied, err = applyTombstone(tx, deletions, entry.Deletion)
			} else {
				applied, err = applyUpsert(tx, deletions, entry.Resource)
			}
			if err != nil {
				return fmt.Errorf("entry %d (%s): %w", i, entry.Kind, err)
			}

			switch {
			case !applied:
				result.Skipped++
			case entry.IsTombstone():
				result.Tombstoned++
			default:
				result.Upserted++
			}
		}

		meta, err := bucket(tx, bucketMetadata)
		if err != nil {
			return err
		}
		return writeWatermark(meta, watermark)
	})
	if err != nil {
		return storage.ApplyResult{}, fmt.Errorf("failed to apply page: %w", err)
	}

	return result, nil
}

func applyUpsert(tx *bbolt.Tx, deletions *bbolt.Bucket, res models.Resource) (bool, error) {
	if res == nil {
		return false, errors.New("entry carries neither resource nor deletion")
	}

	name, err := kindBucket(res.Kind())
	if err != nil {
		return false, err
	}
	b, err := bucket(tx, name)
	if err != nil {
		return false, err
	}

	// Удалённый ресурс не воскрешается
	if deletions.Get(deletionKey(res.Kind(), res.ResourceID())) != nil {
		return false, nil
	}

	key := itob(res.ResourceID())
	if raw := b.Get(key); raw != nil {
		stored, err := models.DecodeResource(res.Kind(), raw)
		if err != nil {
			return false, err
		}
		if stored.Version() >= res.Version() {
			return false, nil
		}
	}

	data, err := json.Marshal(res)
	if err != nil {
		return false, fmt.Errorf("failed to marshal resource: %w", err)
	}
	if err := b.Put(key, data); err != nil {
		return false, fmt.Errorf("failed to save resource: %w", err)
	}

	return true, nil
}

func applyTombstone(tx *bbolt.Tx, deletions *bbolt.Bucket, del *models.Deletion) (bool, error) {
	name, err := kindBucket(del.Type)
	if err != nil {
		return false, err
	}
	b, err := bucket(tx, name)
	if err != nil {
		return false, err
	}

	dkey := deletionKey(del.Type, del.ResourceID)
	if deletions.Get(dkey) != nil {
		return false, nil
	}

	if err := b.Delete(itob(del.ResourceID)); err != nil {
		return false, fmt.Errorf("failed to remove resource: %w", err)
	}

	data, err := json.Marshal(del)
	if err != nil {
		return false, fmt.Errorf("failed to marshal deletion: %w", err)
	}
	if err := deletions.Put(dkey, data); err != nil {
		return false, fmt.Errorf("failed to save deletion: %w", err)
	}

	return true, nil
}

// GetResource returns a live resource of the given kind
func (s *Storage) GetResource(ctx context.Context, kind models.Kind, id int64) (models.Resource, error) {
	name, err := kindBucket(kind)
	if err != nil {
		return nil, err
	}

	var res models.Resource
	err = s.view(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}

		raw := b.Get(itob(id))
		if raw == nil {
			return storage.ErrResourceNotFound
		}

		res, err = models.DecodeResource(kind, raw)
		return err
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// ListResources returns the live resources of a kind ordered by id
func (s *Storage) ListResources(ctx context.Context, kind models.Kind) ([]models.Resource, error) {
	name, err := kindBucket(kind)
	if err != nil {
		return nil, err
	}

	resources := []models.Resource{}
	err = s.view(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}

		return b.ForEach(func(_, v []byte) error {
			res, err := models.DecodeResource(kind, v)
			if err != nil {
				return err
			}
			resources = append(resources, res)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}

	return resources, nil
}

// GetDeletion returns the tombstone recorded for a resource
func (s *Storage) GetDeletion(ctx context.Context, kind models.Kind, id int64) (*models.Deletion, error) {
	var del *models.Deletion

	err := s.view(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketDeletions)
		if err != nil {
			return err
		}

		raw := b.Get(deletionKey(kind, id))
		if raw == nil {
			return storage.ErrDeletionNotFound
		}

		del = &models.Deletion{}
		return json.Unmarshal(raw, del)
	})
	if err != nil {
		return nil, err
	}

	return del, nil
}

// Stats returns resource counts per kind, the tombstone count and the watermark
func (s *Storage) Stats(ctx context.Context) (*storage.Stats, error) {
	stats := &storage.Stats{Resources: make(map[models.Kind]int)}

	err := s.view(func(tx *bbolt.Tx) error {
		for _, kind := range models.Kinds() {
			name, err := kindBucket(kind)
			if err != nil {
				return err
			}
			b, err := bucket(tx, name)
			if err != nil {
				return err
			}
			stats.Resources[kind] = b.Stats().KeyN
		}

		deletions, err := bucket(tx, bucketDeletions)
		if err != nil {
			return err
		}
		stats.Tombstones = deletions.Stats().KeyN

		meta, err := bucket(tx, bucketMetadata)
		if err != nil {
			return err
		}
		stats.Watermark = readWatermark(meta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}

	return stats, nil
}

// deletionKey формирует ключ tombstone: "<kind>/<id big-endian>"
func deletionKey(kind models.Kind, id int64) []byte {
	return append([]byte(string(kind)+"/"), itob(id)...)
}
