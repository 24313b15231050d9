// Package sqlite implements the project index on an embedded relational
// store, giving real upsert semantics instead of whole-file overwrite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/replayops/agent-archive-go/index"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("index db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(context.Background(), schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialise index schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Put(ctx context.Context, section, id string, entry map[string]any) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode index entry: %w", err)
	}
	const q = `
INSERT INTO index_entries (section, entry_id, entry)
VALUES (?, ?, ?)
ON CONFLICT(section, entry_id) DO UPDATE SET
  entry=excluded.entry,
  updated_at=CURRENT_TIMESTAMP;
`
	if _, err := s.db.ExecContext(ctx, q, section, id, string(raw)); err != nil {
		return fmt.Errorf("failed to put index entry: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, section, id string) (map[string]any, error) {
	const q = `SELECT entry FROM index_entries WHERE section = ? AND entry_id = ?;`
	var raw string
	err := s.db.QueryRowContext(ctx, q, section, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", index.ErrNotFound, section, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index entry: %w", err)
	}
	return decodeEntry(raw)
}

func (s *Store) Snapshot(ctx context.Context) (index.Document, error) {
	const q = `SELECT section, entry_id, entry FROM index_entries ORDER BY section, entry_id;`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot index: %w", err)
	}
	defer rows.Close()

	doc := index.NewDocument()
	for rows.Next() {
		var section, id, raw string
		if err := rows.Scan(&section, &id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan index entry: %w", err)
		}
		entry, err := decodeEntry(raw)
		if err != nil {
			return nil, err
		}
		if doc[section] == nil {
			doc[section] = map[string]map[string]any{}
		}
		doc[section][id] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate index entries: %w", err)
	}
	return doc, nil
}

func (s *Store) Delete(ctx context.Context, section, id string) error {
	const q = `DELETE FROM index_entries WHERE section = ? AND entry_id = ?;`
	if _, err := s.db.ExecContext(ctx, q, section, id); err != nil {
		return fmt.Errorf("failed to delete index entry: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func decodeEntry(raw string) (map[string]any, error) {
	var entry map[string]any
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode index entry: %w", err)
	}
	return entry, nil
}

var _ index.Store = (*Store)(nil)
