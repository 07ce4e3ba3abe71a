package models

import "time"

// Note belongs to a notebook and owns zero or more content blocks.
// Tags are an ordered list; duplicates are kept as given.
type Note struct {
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"` // UpdatedAt время правки на клиенте, не используется для упорядочивания
	Title           string      `json:"title"`
	Tags            []string    `json:"tags"`
	ID              int64       `json:"id"`
	NotebookID      int64       `json:"notebookId"` // NotebookID не меняется после создания
	SystemUpdatedAt SyncVersion `json:"systemUpdatedAt"`
}

// NewNote is the create payload of a note.
type NewNote struct {
	CreatedAt  time.Time `json:"createdAt"`
	Title      string    `json:"title"`
	Tags       []string  `json:"tags"`
	NotebookID int64     `json:"notebookId"`
}

// NoteUpdate carries the mutable fields of a note.
// A nil Tags slice means "unchanged"; an empty one clears the tags.
// Tags has no omitempty: nil goes out as null, an empty slice as [].
type NoteUpdate struct {
	Title     *string    `json:"title,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Tags      []string   `json:"tags"`
}

func (n *Note) Kind() Kind           { return KindNote }
func (n *Note) ResourceID() int64    { return n.ID }
func (n *Note) Version() SyncVersion { return n.SystemUpdatedAt }
func (n *Note) isResource()          {}
