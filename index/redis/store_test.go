package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/replayops/agent-archive-go/index"
)

func newTestRedisStore(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	prefix := "archive-test-" + uuid.NewString()

	// The store owns the injected client on Close; New still pings it.
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	s, err := New(addr, WithClient(client), WithPrefix(prefix), WithTTL(5*time.Minute))
	if err != nil {
		_ = client.Close()
		t.Skipf("redis unavailable at %s: %v", addr, err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		keys, _ := s.client.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			_ = s.client.Del(ctx, keys...).Err()
		}
		_ = s.Close()
	})
	return s
}

func TestRedisPutGetSnapshotDelete(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	entry := map[string]any{"persona": map[string]any{"name": "Analyst"}}
	if err := s.Put(ctx, index.SectionChats, "chat-1", entry); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, index.SectionChats, "chat-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	persona, ok := got["persona"].(map[string]any)
	if !ok || persona["name"] != "Analyst" {
		t.Fatalf("unexpected entry: %v", got)
	}

	doc, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(doc[index.SectionChats]) != 1 {
		t.Fatalf("snapshot missing entry: %v", doc)
	}
	for _, section := range index.Sections() {
		if doc[section] == nil {
			t.Fatalf("section %q missing", section)
		}
	}

	if err := s.Delete(ctx, index.SectionChats, "chat-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, index.SectionChats, "chat-1"); !errors.Is(err, index.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
