package storage

import (
	"context"

	"github.com/iudanet/notex/internal/models"
)

// Store is the server-side persistence of resources, tombstones and the
// change log.
type Store interface {
	// InTx runs fn inside one write transaction. If fn returns an error,
	// nothing fn wrote becomes visible.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// ReadChanges returns change log entries with after < stamp <= upTo,
	// ordered by stamp ascending. limit <= 0 means no limit.
	ReadChanges(ctx context.Context, after, upTo models.SyncVersion, limit int) ([]models.FeedEntry, error)

	// MaxSyncVersion returns the highest persisted stamp, 0 for an empty store.
	MaxSyncVersion(ctx context.Context) (models.SyncVersion, error)

	// GetNotebook, GetNote and GetContentBlock read the current live version.
	// They return ErrNotFound for deleted or unknown ids.
	GetNotebook(ctx context.Context, id int64) (*models.Notebook, error)
	GetNote(ctx context.Context, id int64) (*models.Note, error)
	GetContentBlock(ctx context.Context, id int64) (*models.ContentBlock, error)

	// GetDeletion returns the tombstone of a resource.
	// Returns ErrDeletionNotFound if the resource was never deleted.
	GetDeletion(ctx context.Context, kind models.Kind, resourceID int64) (*models.Deletion, error)

	// Ping checks that the database is reachable
	Ping(ctx context.Context) error
}

// Tx is the write side of a Store transaction.
type Tx interface {
	// InsertNotebook, InsertNote and InsertContentBlock store a new resource
	// and set its ID. Inserting a note or block returns ErrForeignKeyUnresolved
	// when references are enforced and the parent is not live.
	InsertNotebook(ctx context.Context, nb *models.Notebook) error
	InsertNote(ctx context.Context, note *models.Note) error
	InsertContentBlock(ctx context.Context, block *models.ContentBlock) error

	GetNotebook(ctx context.Context, id int64) (*models.Notebook, error)
	GetNote(ctx context.Context, id int64) (*models.Note, error)
	GetContentBlock(ctx context.Context, id int64) (*models.ContentBlock, error)

	// UpdateNotebook, UpdateNote and UpdateContentBlock overwrite the mutable
	// fields and the stamp. Returns ErrNotFound if the resource is not live.
	UpdateNotebook(ctx context.Context, nb *models.Notebook) error
	UpdateNote(ctx context.Context, note *models.Note) error
	UpdateContentBlock(ctx context.Context, block *models.ContentBlock) error

	// PurgeResource removes the live row. Returns ErrNotFound if none exists.
	PurgeResource(ctx context.Context, kind models.Kind, id int64) error

	// InsertDeletion stores a tombstone and sets its ID.
	InsertDeletion(ctx context.Context, del *models.Deletion) error

	// ListNoteIDs and ListContentBlockIDs return live children ordered by id.
	ListNoteIDs(ctx context.Context, notebookID int64) ([]int64, error)
	ListContentBlockIDs(ctx context.Context, noteID int64) ([]int64, error)

	// AppendChange records a feed entry in the change log under its stamp.
	AppendChange(ctx context.Context, entry models.FeedEntry) error
}
