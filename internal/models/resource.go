package models

import (
	"encoding/json"
	"fmt"
)

// SyncVersion is the server-assigned stamp of a mutation.
// Stamps form one total order across all resource kinds and are the only
// values compared against a client's watermark.
type SyncVersion int64

// Kind identifies a resource kind in the change feed.
type Kind string

// Resource kinds known to the registry
const (
	KindNotebook     Kind = "Notebook"
	KindNote         Kind = "Note"
	KindContentBlock Kind = "ContentBlock"
)

// Kinds returns every registered resource kind.
func Kinds() []Kind {
	return []Kind{KindNotebook, KindNote, KindContentBlock}
}

// ParseKind converts a kind name into a registered Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown resource kind %q", name)
}

// Valid reports whether k is a registered kind.
func (k Kind) Valid() bool {
	_, err := ParseKind(string(k))
	return err == nil
}

// Resource is implemented by *Notebook, *Note and *ContentBlock only.
type Resource interface {
	// Kind returns the registry label used in feed entries
	Kind() Kind
	// ResourceID returns the resource id
	ResourceID() int64
	// Version returns the systemUpdatedAt stamp of this resource version
	Version() SyncVersion

	isResource()
}

// DecodeResource decodes the JSON payload of a resource of the given kind.
func DecodeResource(kind Kind, payload []byte) (Resource, error) {
	var res Resource

	switch kind {
	case KindNotebook:
		res = &Notebook{}
	case KindNote:
		res = &Note{}
	case KindContentBlock:
		res = &ContentBlock{}
	default:
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}

	if err := json.Unmarshal(payload, res); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
	}

	return res, nil
}
