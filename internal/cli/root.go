package cli

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/replayops/agent-archive-go/index/factory"
	"github.com/replayops/agent-archive-go/internal/config"
	"github.com/replayops/agent-archive-go/project"
	"github.com/replayops/agent-archive-go/reasoning"
	reasoningsqlite "github.com/replayops/agent-archive-go/reasoning/sqlite"
)

func Run(ctx context.Context, args []string) {
	if len(args) < 1 {
		printUsage()
		return
	}

	switch strings.TrimSpace(args[0]) {
	case "init":
		runInit(ctx, args[1:])
	case "ingest":
		runIngest(ctx, args[1:])
	case "promote":
		runPromote(ctx, args[1:])
	case "agents":
		runAgents(ctx, args[1:])
	case "plan":
		runPlan(ctx, args[1:])
	case "trace":
		runTrace(ctx, args[1:])
	case "help", "-h", "--help":
		printUsage()
	default:
		log.Printf("unknown command %q", args[0])
		printUsage()
	}
}

func newManager() *project.Manager {
	root := config.Getenv("ARCHIVE_ROOT", "./archive")
	wal := config.ParseBoolString(config.Getenv("ARCHIVE_SQLITE_WAL", "true"), true)
	busyTimeout := config.ParseDurationEnv("ARCHIVE_SQLITE_BUSY_TIMEOUT", 5*time.Second)

	manager, err := project.New(root,
		project.WithIndexOpener(factory.FromEnv),
		project.WithReasoningOpener(func(projectPath string) (reasoning.Store, error) {
			return reasoningsqlite.New(filepath.Join(projectPath, "reasoning.db"),
				reasoningsqlite.WithWAL(wal),
				reasoningsqlite.WithBusyTimeout(busyTimeout))
		}),
	)
	if err != nil {
		log.Fatalf("failed to initialise archive manager: %v", err)
	}
	return manager
}
