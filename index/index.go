// Package index defines the project-wide index: a small key-value summary
// mapping identifiers to descriptor metadata and artifact paths, used for
// enumeration without opening every artifact file. Backends are injected;
// the default file backend keeps the classic index.json document.
package index

import (
	"context"
	"errors"
)

// Sections of the project index.
const (
	SectionChats   = "chats"
	SectionAgents  = "agents"
	SectionReports = "reports"
)

var ErrNotFound = errors.New("index: not found")

// Sections lists every section, in the order the document presents them.
func Sections() []string {
	return []string{SectionAgents, SectionChats, SectionReports}
}

// Document is a full index snapshot: section -> identifier -> entry.
type Document map[string]map[string]map[string]any

// NewDocument returns a document with every section present and empty.
func NewDocument() Document {
	doc := Document{}
	for _, section := range Sections() {
		doc[section] = map[string]map[string]any{}
	}
	return doc
}

type Store interface {
	// Put creates or replaces one entry.
	Put(ctx context.Context, section, id string, entry map[string]any) error

	// Get returns one entry, or ErrNotFound.
	Get(ctx context.Context, section, id string) (map[string]any, error)

	// Snapshot returns the whole index with all sections present.
	Snapshot(ctx context.Context) (Document, error)

	// Delete removes one entry; deleting an absent entry is a no-op.
	Delete(ctx context.Context, section, id string) error

	Close() error
}
