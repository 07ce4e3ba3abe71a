package storage

import "errors"

// Common storage errors
var (
	// ErrNotFound indicates that no live resource exists with the given id
	ErrNotFound = errors.New("resource not found")

	// ErrForeignKeyUnresolved indicates that a referenced notebook or note is not live
	ErrForeignKeyUnresolved = errors.New("referenced resource not found")

	// ErrDeletionNotFound indicates that no tombstone exists for the resource
	ErrDeletionNotFound = errors.New("deletion not found")
)
