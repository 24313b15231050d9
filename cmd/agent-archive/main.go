package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/replayops/agent-archive-go/internal/cli"
)

func main() {
	// Optional; environment variables win when no .env file exists.
	_ = godotenv.Load()

	cli.Run(context.Background(), os.Args[1:])
}
