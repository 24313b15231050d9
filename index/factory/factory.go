// Package factory selects an index backend from the environment, so the
// CLI and embedding services can swap backends without code changes.
package factory

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/replayops/agent-archive-go/index"
	filestore "github.com/replayops/agent-archive-go/index/file"
	redisstore "github.com/replayops/agent-archive-go/index/redis"
	sqlitestore "github.com/replayops/agent-archive-go/index/sqlite"
	"github.com/replayops/agent-archive-go/internal/config"
)

// FromEnv opens the index backend named by ARCHIVE_INDEX_BACKEND for one
// project directory. Defaults to the file backend (index.json).
func FromEnv(projectPath string) (index.Store, error) {
	backend := strings.ToLower(config.Getenv("ARCHIVE_INDEX_BACKEND", "file"))
	switch backend {
	case "file":
		return filestore.New(filepath.Join(projectPath, "index.json"))

	case "sqlite":
		return sqlitestore.New(filepath.Join(projectPath, "index.db"))

	case "redis":
		addr := config.Getenv("ARCHIVE_REDIS_ADDR", "127.0.0.1:6379")
		opts := []redisstore.Option{
			redisstore.WithPassword(config.Getenv("ARCHIVE_REDIS_PASSWORD", "")),
			redisstore.WithDB(config.ParseIntEnv("ARCHIVE_REDIS_DB", 0)),
			redisstore.WithTTL(config.ParseDurationEnv("ARCHIVE_REDIS_TTL", 0)),
			redisstore.WithPrefix("archive:" + filepath.Base(projectPath)),
		}
		return redisstore.New(addr, opts...)

	default:
		return nil, fmt.Errorf("unsupported ARCHIVE_INDEX_BACKEND %q (use file, sqlite, or redis)", backend)
	}
}
