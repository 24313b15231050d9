// Package file implements the index on a single JSON document, the
// project's index.json. Every mutation is a whole-file read-modify-write
// guarded by a process-level mutex; concurrent writers from separate
// processes remain last-writer-wins at the file level.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/replayops/agent-archive-go/index"
	"github.com/replayops/agent-archive-go/storage"
)

type Store struct {
	path string
	mu   sync.Mutex
}

// New binds a store to an index.json path, seeding an empty document when
// the file does not exist yet.
func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("index path is required")
	}
	s := &Store{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := storage.WriteJSON(path, index.NewDocument()); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat index %q: %w", path, err)
	}
	return s, nil
}

func (s *Store) Put(ctx context.Context, section, id string, entry map[string]any) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if doc[section] == nil {
		doc[section] = map[string]map[string]any{}
	}
	doc[section][id] = entry
	return storage.WriteJSON(s.path, doc)
}

func (s *Store) Get(ctx context.Context, section, id string) (map[string]any, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	entry, ok := doc[section][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", index.ErrNotFound, section, id)
	}
	return entry, nil
}

func (s *Store) Snapshot(ctx context.Context) (index.Document, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) Delete(ctx context.Context, section, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc[section][id]; !ok {
		return nil
	}
	delete(doc[section], id)
	return storage.WriteJSON(s.path, doc)
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) load() (index.Document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return index.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index %q: %w", s.path, err)
	}
	doc := index.Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode index %q: %w", s.path, err)
	}
	for _, section := range index.Sections() {
		if doc[section] == nil {
			doc[section] = map[string]map[string]any{}
		}
	}
	return doc, nil
}

var _ index.Store = (*Store)(nil)
