package boltdb

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/notex/internal/client/storage"
	"github.com/iudanet/notex/internal/models"
)

var (
	// BoltDB bucket names
	bucketMetadata      = []byte("metadata")
	bucketDeletions     = []byte("deletions")
	bucketNotebooks     = []byte("notebooks")
	bucketNotes         = []byte("notes")
	bucketContentBlocks = []byte("content_blocks")
)

var _ storage.ReplicaStorage = (*Storage)(nil)

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db *bbolt.DB
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Таймаут не даёт зависнуть, если файл заблокирован другим процессом
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	if err := s.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets() {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

func allBuckets() [][]byte {
	return [][]byte{bucketMetadata, bucketDeletions, bucketNotebooks, bucketNotes, bucketContentBlocks}
}

// kindBucket возвращает имя bucket для ресурсов данного типа
func kindBucket(kind models.Kind) ([]byte, error) {
	switch kind {
	case models.KindNotebook:
		return bucketNotebooks, nil
	case models.KindNote:
		return bucketNotes, nil
	case models.KindContentBlock:
		return bucketContentBlocks, nil
	default:
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
}

// bucket returns an existing bucket or an error naming it
func bucket(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	b := tx.Bucket(name)
	if b == nil {
		return nil, fmt.Errorf("%s bucket not found", name)
	}
	return b, nil
}

func (s *Storage) view(fn func(tx *bbolt.Tx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.View(fn)
}

func (s *Storage) update(fn func(tx *bbolt.Tx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.Update(fn)
}
