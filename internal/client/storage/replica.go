package storage

import (
	"context"

	"github.com/iudanet/notex/internal/models"
)

// ApplyResult counts what happened to the entries of one feed page
type ApplyResult struct {
	Upserted   int // записано новых версий ресурсов
	Tombstoned int // записано новых удалений
	Skipped    int // уже применённые или устаревшие записи
}

// Stats summarizes the local replica
type Stats struct {
	Resources  map[models.Kind]int
	Tombstones int
	Watermark  models.SyncVersion
}

// ReplicaStorage is the local copy of the server state built from the change feed
type ReplicaStorage interface {
	MetadataStorage

	// ApplyPage applies entries in order and advances the watermark atomically.
	// Applying the same page twice leaves the replica unchanged.
	ApplyPage(ctx context.Context, entries []models.FeedEntry, watermark models.SyncVersion) (ApplyResult, error)

	// GetResource returns a live resource of the given kind
	GetResource(ctx context.Context, kind models.Kind, id int64) (models.Resource, error)

	// ListResources returns the live resources of a kind ordered by id
	ListResources(ctx context.Context, kind models.Kind) ([]models.Resource, error)

	// GetDeletion returns the tombstone recorded for a resource
	GetDeletion(ctx context.Context, kind models.Kind, id int64) (*models.Deletion, error)

	// Stats returns resource counts per kind, the tombstone count and the watermark
	Stats(ctx context.Context) (*Stats, error)
}
