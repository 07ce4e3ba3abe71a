package models

// FeedEntry is one unit of the change feed.
// Exactly one of Resource (upsert) or Deletion (tombstone) is set.
type FeedEntry struct {
	Resource Resource
	Deletion *Deletion
	Kind     Kind
}

// Upsert builds a feed entry carrying a full resource version.
func Upsert(res Resource) FeedEntry {
	return FeedEntry{Kind: res.Kind(), Resource: res}
}

// Tombstone builds a feed entry carrying a deletion.
func Tombstone(del *Deletion) FeedEntry {
	return FeedEntry{Kind: del.Type, Deletion: del}
}

// IsTombstone reports whether the entry is a deletion.
func (e FeedEntry) IsTombstone() bool {
	return e.Deletion != nil
}

// ResourceID returns the id of the affected resource.
func (e FeedEntry) ResourceID() int64 {
	if e.Deletion != nil {
		return e.Deletion.ResourceID
	}
	return e.Resource.ResourceID()
}

// Version returns the stamp of the entry.
func (e FeedEntry) Version() SyncVersion {
	if e.Deletion != nil {
		return e.Deletion.SystemUpdatedAt
	}
	return e.Resource.Version()
}
