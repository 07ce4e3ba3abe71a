package models

import "time"

// ContentBlock is a piece of note content.
// Ordering among the blocks of one note follows their creation stamps.
type ContentBlock struct {
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
	Content         Content     `json:"content"`
	ID              int64       `json:"id"`
	NoteID          int64       `json:"noteId"`
	SystemUpdatedAt SyncVersion `json:"systemUpdatedAt"`
}

// NewContentBlock is the create payload of a content block.
type NewContentBlock struct {
	CreatedAt time.Time `json:"createdAt"`
	Content   Content   `json:"content"`
	NoteID    int64     `json:"noteId"`
}

// ContentBlockUpdate carries the mutable fields of a content block.
type ContentBlockUpdate struct {
	Content   *Content   `json:"content,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func (b *ContentBlock) Kind() Kind           { return KindContentBlock }
func (b *ContentBlock) ResourceID() int64    { return b.ID }
func (b *ContentBlock) Version() SyncVersion { return b.SystemUpdatedAt }
func (b *ContentBlock) isResource()          {}
