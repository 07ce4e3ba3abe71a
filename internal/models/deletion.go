package models

// Deletion is a tombstone: it records that a resource of Type with ResourceID
// was deleted at SystemUpdatedAt. Tombstones are insert-only.
type Deletion struct {
	Type            Kind        `json:"type"`
	ID              int64       `json:"id"`
	ResourceID      int64       `json:"resourceId"`
	SystemUpdatedAt SyncVersion `json:"systemUpdatedAt"`
}
