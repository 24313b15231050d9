package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/replayops/agent-archive-go/reasoning"
	"github.com/replayops/agent-archive-go/record"
)

//go:embed schema.sql
var schemaSQL string

const defaultBusyTimeout = 5 * time.Second

type Store struct {
	db          *sql.DB
	busyTimeout time.Duration
	enableWAL   bool
}

type Option func(*Store)

func WithBusyTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout >= 0 {
			s.busyTimeout = timeout
		}
	}
}

func WithWAL(enabled bool) Option {
	return func(s *Store) {
		s.enableWAL = enabled
	}
}

// New opens (or creates) the reasoning database at path and idempotently
// ensures the backing table exists.
func New(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("reasoning db path is required")
	}

	s := &Store{
		busyTimeout: defaultBusyTimeout,
		enableWAL:   true,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create reasoning db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reasoning db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s.db = db
	if err := s.initialise(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialise(ctx context.Context) error {
	if s.busyTimeout > 0 {
		ms := int(s.busyTimeout / time.Millisecond)
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d;", ms)); err != nil {
			return fmt.Errorf("failed to set busy_timeout: %w", err)
		}
	}
	if s.enableWAL {
		if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("failed to enable wal: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialise reasoning schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, scope, scopeID string, steps []record.ReasoningStep) error {
	if len(steps) == 0 {
		return nil
	}
	if strings.TrimSpace(scope) == "" {
		return fmt.Errorf("scope is required")
	}
	if strings.TrimSpace(scopeID) == "" {
		return fmt.Errorf("scope_id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reasoning batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
INSERT INTO reasoning (scope, scope_id, step_index, name, input_text, output_text, tool, metadata)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to prepare reasoning insert: %w", err)
	}
	defer stmt.Close()

	for i, step := range steps {
		metadata, err := encodeMetadata(step.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(
			ctx,
			scope,
			scopeID,
			i,
			step.Name,
			step.InputText,
			step.OutputText,
			nullIfEmpty(step.Tool),
			metadata,
		); err != nil {
			return fmt.Errorf("failed to append reasoning step %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reasoning batch: %w", err)
	}
	return nil
}

func (s *Store) GetReasoning(ctx context.Context, scope, scopeID string) ([]reasoning.StoredStep, error) {
	const q = `
SELECT step_index, name, input_text, output_text, tool, metadata
FROM reasoning
WHERE scope = ? AND scope_id = ?
ORDER BY step_index ASC, id ASC;
`
	rows, err := s.db.QueryContext(ctx, q, scope, scopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reasoning: %w", err)
	}
	defer rows.Close()

	out := []reasoning.StoredStep{}
	for rows.Next() {
		var (
			step     reasoning.StoredStep
			tool     sql.NullString
			metadata sql.NullString
		)
		if err := rows.Scan(&step.StepIndex, &step.Name, &step.InputText, &step.OutputText, &tool, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan reasoning step: %w", err)
		}
		if tool.Valid {
			step.Tool = tool.String
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &step.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode reasoning metadata: %w", err)
			}
		}
		out = append(out, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reasoning steps: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func encodeMetadata(metadata map[string]any) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	// encoding/json sorts map keys, keeping snapshots reproducible.
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reasoning metadata: %w", err)
	}
	return string(raw), nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ reasoning.Store = (*Store)(nil)
