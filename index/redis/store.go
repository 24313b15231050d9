// Package redis implements the project index on a Redis hash per section.
// Useful when several readers want the index without touching the project
// filesystem; the single-writer assumption still holds.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/replayops/agent-archive-go/index"
)

const defaultPrefix = "archive"

type Store struct {
	client   *goredis.Client
	prefix   string
	ttl      time.Duration
	addr     string
	db       int
	password string
}

type Option func(*Store)

func WithPassword(password string) Option {
	return func(s *Store) {
		s.password = password
	}
}

func WithDB(db int) Option {
	return func(s *Store) {
		s.db = db
	}
}

func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if strings.TrimSpace(prefix) != "" {
			s.prefix = strings.TrimSpace(prefix)
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClient(client *goredis.Client) Option {
	return func(s *Store) {
		if client != nil {
			s.client = client
		}
	}
}

func New(addr string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	s := &Store{
		prefix: defaultPrefix,
		addr:   addr,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = goredis.NewClient(&goredis.Options{
			Addr:     s.addr,
			Password: s.password,
			DB:       s.db,
		})
	}
	if err := s.client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return s, nil
}

func (s *Store) Put(ctx context.Context, section, id string, entry map[string]any) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode index entry: %w", err)
	}
	key := s.sectionKey(section)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, id, string(raw))
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to put index entry in redis: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, section, id string) (map[string]any, error) {
	raw, err := s.client.HGet(ctx, s.sectionKey(section), id).Result()
	if err == goredis.Nil {
		return nil, fmt.Errorf("%w: %s/%s", index.ErrNotFound, section, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index entry from redis: %w", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode index entry: %w", err)
	}
	return entry, nil
}

func (s *Store) Snapshot(ctx context.Context) (index.Document, error) {
	doc := index.NewDocument()
	for _, section := range index.Sections() {
		values, err := s.client.HGetAll(ctx, s.sectionKey(section)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot index section %q: %w", section, err)
		}
		for id, raw := range values {
			var entry map[string]any
			if err := json.Unmarshal([]byte(raw), &entry); err != nil {
				return nil, fmt.Errorf("failed to decode index entry %s/%s: %w", section, id, err)
			}
			doc[section][id] = entry
		}
	}
	return doc, nil
}

func (s *Store) Delete(ctx context.Context, section, id string) error {
	if err := s.client.HDel(ctx, s.sectionKey(section), id).Err(); err != nil {
		return fmt.Errorf("failed to delete index entry from redis: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) sectionKey(section string) string {
	return fmt.Sprintf("%s:index:%s", s.prefix, section)
}

var _ index.Store = (*Store)(nil)
