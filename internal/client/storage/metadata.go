package storage

import (
	"context"

	"github.com/iudanet/notex/internal/models"
)

// MetadataStorage defines interface for storing client metadata
type MetadataStorage interface {
	// GetWatermark returns the stamp of the last applied feed page.
	// Returns 0 if no sync has been performed yet
	GetWatermark(ctx context.Context) (models.SyncVersion, error)
}
