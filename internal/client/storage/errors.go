package storage

import "errors"

// Common client storage errors
var (
	// ErrResourceNotFound indicates that the replica has no live resource with the id
	ErrResourceNotFound = errors.New("resource not found")

	// ErrDeletionNotFound indicates that the replica has no tombstone for the id
	ErrDeletionNotFound = errors.New("deletion not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
