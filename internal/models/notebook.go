package models

import "time"

// Notebook is a container for notes.
type Notebook struct {
	CreatedAt       time.Time   `json:"createdAt"`       // пользовательское время создания
	Name            string      `json:"name"`            // название блокнота
	ID              int64       `json:"id"`              // идентификатор, назначается хранилищем
	SystemUpdatedAt SyncVersion `json:"systemUpdatedAt"` // штамп последней мутации
}

// NewNotebook is the create payload of a notebook.
// A zero CreatedAt is replaced with the server time.
type NewNotebook struct {
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name"`
}

// NotebookUpdate carries the mutable fields of a notebook.
// Nil fields are left unchanged.
type NotebookUpdate struct {
	Name *string `json:"name,omitempty"`
}

func (n *Notebook) Kind() Kind           { return KindNotebook }
func (n *Notebook) ResourceID() int64    { return n.ID }
func (n *Notebook) Version() SyncVersion { return n.SystemUpdatedAt }
func (n *Notebook) isResource()          {}
