package cli

import "fmt"

func printUsage() {
	fmt.Println("agent-archive: archive agent interactions and rebuild replay plans")
	fmt.Println("Usage:")
	fmt.Println("  agent-archive init <project>")
	fmt.Println("  agent-archive ingest <project> --file=chat.json")
	fmt.Println("  agent-archive promote <project> --file=report.json [--agent-id=ID]")
	fmt.Println("  agent-archive agents <project>")
	fmt.Println("  agent-archive plan <project> <agent-id> [--markdown]")
	fmt.Println("  agent-archive trace <project> <scope> <scope-id>")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  ARCHIVE_ROOT             Root directory for project folders (default ./archive)")
	fmt.Println("  ARCHIVE_INDEX_BACKEND    Index backend: file, sqlite, or redis (default file)")
	fmt.Println("  ARCHIVE_REDIS_ADDR       Redis address for the redis index backend")
	fmt.Println("  ARCHIVE_REDIS_PASSWORD   Redis password")
	fmt.Println("  ARCHIVE_REDIS_DB         Redis database number")
	fmt.Println("  ARCHIVE_REDIS_TTL        Optional TTL for redis index entries (e.g. 72h)")
	fmt.Println("  ARCHIVE_SQLITE_WAL       Enable WAL on the reasoning store (default true)")
	fmt.Println("  ARCHIVE_SQLITE_BUSY_TIMEOUT  Reasoning store busy timeout (default 5s)")
}
