package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/replayops/agent-archive-go/record"
)

func runInit(ctx context.Context, args []string) {
	_, positional := parseArgs(args)
	if len(positional) < 1 {
		log.Fatal("init requires a project name")
	}
	manager := newManager()
	path, err := manager.CreateProject(ctx, positional[0])
	if err != nil {
		log.Fatalf("failed to create project: %v", err)
	}
	fmt.Printf("project ready at %s\n", path)
}

func runIngest(ctx context.Context, args []string) {
	opts, positional := parseArgs(args)
	if len(positional) < 1 || opts.file == "" {
		log.Fatal("ingest requires a project name and --file=chat.json")
	}
	var rec record.ChatSessionRecord
	if err := readRecordFile(opts.file, &rec); err != nil {
		log.Fatalf("failed to load chat record: %v", err)
	}
	manager := newManager()
	agent, err := manager.IngestChat(ctx, positional[0], rec)
	if err != nil {
		log.Fatalf("failed to ingest chat: %v", err)
	}
	fmt.Printf("ingested chat %s as agent %s\n", agent.SourceChatID, agent.AgentID)
}

func runPromote(ctx context.Context, args []string) {
	opts, positional := parseArgs(args)
	if len(positional) < 1 || opts.file == "" {
		log.Fatal("promote requires a project name and --file=report.json")
	}
	var report record.ReportSynthesisRecord
	if err := readRecordFile(opts.file, &report); err != nil {
		log.Fatalf("failed to load report record: %v", err)
	}
	manager := newManager()
	agent, err := manager.PromoteReport(ctx, positional[0], report, opts.agentID)
	if err != nil {
		log.Fatalf("failed to promote report: %v", err)
	}
	fmt.Printf("promoted report %s as agent %s\n", report.ReportID, agent.AgentID)
}

func runAgents(ctx context.Context, args []string) {
	_, positional := parseArgs(args)
	if len(positional) < 1 {
		log.Fatal("agents requires a project name")
	}
	manager := newManager()
	agents, err := manager.ListAgents(ctx, positional[0])
	if err != nil {
		log.Fatalf("failed to list agents: %v", err)
	}
	if len(agents) == 0 {
		fmt.Println("no agents archived yet")
		return
	}
	for _, agent := range agents {
		fmt.Printf("%s  persona=%s  skills=%s  steps=%d\n",
			agent.AgentID, agent.Persona.Name, strings.Join(agent.Skills, ","), len(agent.Workflow))
	}
}

func runPlan(ctx context.Context, args []string) {
	opts, positional := parseArgs(args)
	if len(positional) < 2 {
		log.Fatal("plan requires a project name and an agent id")
	}
	manager := newManager()
	plan, err := manager.BuildReplayPlan(ctx, positional[0], positional[1])
	if err != nil {
		log.Fatalf("failed to build replay plan: %v", err)
	}
	if opts.markdown {
		fmt.Print(plan.Markdown())
		return
	}
	printJSON(plan)
}

func runTrace(ctx context.Context, args []string) {
	_, positional := parseArgs(args)
	if len(positional) < 3 {
		log.Fatal("trace requires a project name, a scope, and a scope id")
	}
	manager := newManager()
	steps, err := manager.GetReasoning(ctx, positional[0], positional[1], positional[2])
	if err != nil {
		log.Fatalf("failed to load reasoning trace: %v", err)
	}
	printJSON(steps)
}

func readRecordFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func printJSON(payload any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		log.Fatalf("failed to encode output: %v", err)
	}
}
