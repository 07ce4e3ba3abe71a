package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/notex/internal/models"
)

const (
	keyWatermark = "watermark"
)

// GetWatermark retrieves the stamp of the last applied feed page
// Returns 0 if no sync has been performed yet
func (s *Storage) GetWatermark(ctx context.Context) (models.SyncVersion, error) {
	var watermark models.SyncVersion

	err := s.view(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketMetadata)
		if err != nil {
			return err
		}
		watermark = readWatermark(b)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get watermark: %w", err)
	}

	return watermark, nil
}

// readWatermark возвращает 0, если watermark ещё не сохранён
func readWatermark(b *bbolt.Bucket) models.SyncVersion {
	raw := b.Get([]byte(keyWatermark))
	if len(raw) != 8 {
		return 0
	}
	return models.SyncVersion(binary.BigEndian.Uint64(raw))
}

// writeWatermark never moves the watermark backwards
func writeWatermark(b *bbolt.Bucket, watermark models.SyncVersion) error {
	if watermark <= readWatermark(b) {
		return nil
	}
	if err := b.Put([]byte(keyWatermark), itob(int64(watermark))); err != nil {
		return fmt.Errorf("failed to save watermark: %w", err)
	}
	return nil
}

// itob кодирует int64 в big-endian, чтобы ключи сортировались по числу
func itob(v int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}
