// Package project orchestrates the archival of agent interactions into a
// deterministic, inspectable project folder. The Manager is the single
// point deciding which artifacts are written, in what order, and how the
// project index stays consistent with them.
//
// All operations are synchronous and assume a single writer per project;
// a crash between artifact writes and the reasoning store append can leave
// the two out of sync, which callers handle by retrying the whole call with
// the same identifiers.
package project

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/replayops/agent-archive-go/index"
	filestore "github.com/replayops/agent-archive-go/index/file"
	"github.com/replayops/agent-archive-go/observe"
	"github.com/replayops/agent-archive-go/reasoning"
	reasoningsqlite "github.com/replayops/agent-archive-go/reasoning/sqlite"
	"github.com/replayops/agent-archive-go/record"
	"github.com/replayops/agent-archive-go/storage"
)

// ErrNotFound marks a requested project artifact that does not exist.
var ErrNotFound = errors.New("project: not found")

const chatIDAttempts = 5

// IndexOpener opens the index backend for one project directory.
type IndexOpener func(projectPath string) (index.Store, error)

// ReasoningOpener opens the reasoning store for one project directory.
type ReasoningOpener func(projectPath string) (reasoning.Store, error)

type Manager struct {
	root          string
	openIndex     IndexOpener
	openReasoning ReasoningOpener
	sink          observe.Sink
}

type Option func(*Manager)

// WithIndexOpener injects the index backend, index/file by default.
func WithIndexOpener(opener IndexOpener) Option {
	return func(m *Manager) {
		if opener != nil {
			m.openIndex = opener
		}
	}
}

// WithReasoningOpener injects the reasoning store, reasoning/sqlite by
// default.
func WithReasoningOpener(opener ReasoningOpener) Option {
	return func(m *Manager) {
		if opener != nil {
			m.openReasoning = opener
		}
	}
}

// WithSink attaches an observe sink receiving one event per mutating
// operation. Emission failures are logged, never surfaced.
func WithSink(sink observe.Sink) Option {
	return func(m *Manager) {
		if sink != nil {
			m.sink = sink
		}
	}
}

func New(root string, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("project root is required")
	}
	m := &Manager{
		root: root,
		openIndex: func(projectPath string) (index.Store, error) {
			return filestore.New(filepath.Join(projectPath, "index.json"))
		},
		openReasoning: func(projectPath string) (reasoning.Store, error) {
			return reasoningsqlite.New(filepath.Join(projectPath, "reasoning.db"))
		},
		sink: observe.Discard,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

type manifest struct {
	CreatedAt   record.Timestamp `json:"created_at"`
	ProjectName string           `json:"project_name"`
}

// CreateProject idempotently ensures the project's on-disk shape: the root,
// the chats/agents/reports directories, the reasoning table, the manifest,
// and the index. Repeat calls never overwrite manifest metadata. Returns
// the project's root directory.
func (m *Manager) CreateProject(ctx context.Context, name string) (string, error) {
	if err := validateProjectName(name); err != nil {
		return "", err
	}
	projectPath := filepath.Join(m.root, name)
	if _, err := storage.EnsureDirectory(projectPath); err != nil {
		return "", err
	}
	for _, sub := range []string{"chats", "agents", "reports"} {
		if _, err := storage.EnsureDirectory(filepath.Join(projectPath, sub)); err != nil {
			return "", err
		}
	}

	store, err := m.openReasoning(projectPath)
	if err != nil {
		return "", err
	}
	if err := store.Close(); err != nil {
		return "", fmt.Errorf("failed to close reasoning store: %w", err)
	}

	manifestPath := filepath.Join(projectPath, "project.json")
	created := false
	if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
		payload := manifest{CreatedAt: record.Now(), ProjectName: name}
		if err := storage.WriteJSON(manifestPath, payload); err != nil {
			return "", err
		}
		created = true
	} else if err != nil {
		return "", fmt.Errorf("failed to stat manifest: %w", err)
	}

	idx, err := m.openIndex(projectPath)
	if err != nil {
		return "", err
	}
	if err := idx.Close(); err != nil {
		return "", fmt.Errorf("failed to close index: %w", err)
	}

	if created {
		m.emit(ctx, observe.Event{
			Project: name,
			Kind:    observe.KindProject,
			Name:    "project.created",
		})
	}
	return projectPath, nil
}

// IngestChat archives one chat session: canonicalizes the chat identifier,
// writes the session artifacts, appends the reasoning trace to the store,
// derives the agent process record with its persisted replay plan, and
// updates the index under "chats" and "agents". The caller's record is
// never mutated. Returns the derived agent record.
func (m *Manager) IngestChat(ctx context.Context, projectName string, rec record.ChatSessionRecord) (agent record.AgentProcessRecord, err error) {
	start := time.Now()
	defer func() {
		m.emitOutcome(ctx, observe.Event{
			Project: projectName,
			Kind:    observe.KindChat,
			Name:    "chat.ingested",
			ScopeID: agent.SourceChatID,
			AgentID: agent.AgentID,
		}, start, err)
	}()

	if rec.Persona.Name == "" {
		return record.AgentProcessRecord{}, fmt.Errorf("persona name is required")
	}
	projectPath, err := m.CreateProject(ctx, projectName)
	if err != nil {
		return record.AgentProcessRecord{}, err
	}

	canonical := rec
	canonical.Normalize()
	if canonical.ChatID == "" {
		canonical.ChatID, err = m.allocateChatID(projectPath, canonical)
		if err != nil {
			return record.AgentProcessRecord{}, err
		}
	}

	chatDir, err := storage.EnsureDirectory(filepath.Join(projectPath, "chats", canonical.ChatID))
	if err != nil {
		return record.AgentProcessRecord{}, err
	}
	if err := storage.WriteJSON(filepath.Join(chatDir, "metadata.json"), canonical); err != nil {
		return record.AgentProcessRecord{}, err
	}
	if err := storage.WriteText(filepath.Join(chatDir, "input.txt"), canonical.InputPrompt); err != nil {
		return record.AgentProcessRecord{}, err
	}
	if err := storage.WriteText(filepath.Join(chatDir, "output.txt"), canonical.OutputText); err != nil {
		return record.AgentProcessRecord{}, err
	}
	if len(canonical.GraphSnapshot) > 0 {
		if err := storage.WriteJSON(filepath.Join(chatDir, "graph.json"), canonical.GraphSnapshot); err != nil {
			return record.AgentProcessRecord{}, err
		}
	}
	if len(canonical.Reasoning) > 0 {
		if err := storage.WriteJSON(filepath.Join(chatDir, "reasoning.json"), canonical.Reasoning); err != nil {
			return record.AgentProcessRecord{}, err
		}
	}

	if err := m.appendReasoning(ctx, projectPath, reasoning.ScopeChat, canonical.ChatID, canonical.Reasoning); err != nil {
		return record.AgentProcessRecord{}, err
	}

	idx, err := m.openIndex(projectPath)
	if err != nil {
		return record.AgentProcessRecord{}, err
	}
	defer func() { _ = idx.Close() }()

	entry := map[string]any{
		"persona":     canonical.Persona,
		"skills_used": canonical.SkillsUsed,
		"created_at":  canonical.CreatedAt,
		"input_path":  path.Join("chats", canonical.ChatID, "input.txt"),
		"output_path": path.Join("chats", canonical.ChatID, "output.txt"),
	}
	if len(canonical.Reasoning) > 0 {
		entry["reasoning_path"] = path.Join("chats", canonical.ChatID, "reasoning.json")
	}
	if len(canonical.GraphSnapshot) > 0 {
		entry["graph_path"] = path.Join("chats", canonical.ChatID, "graph.json")
	}
	if err := idx.Put(ctx, index.SectionChats, canonical.ChatID, entry); err != nil {
		return record.AgentProcessRecord{}, err
	}

	agent = record.AgentFromChat(canonical)
	if err := m.persistAgent(ctx, projectPath, idx, agent); err != nil {
		return record.AgentProcessRecord{}, err
	}
	return agent, nil
}

// PromoteReport turns a synthesized report into an archived agent process
// record. The report's referenced agent ids become the new record's skills.
// An empty newAgentID selects the default "agent-report-<report_id>".
func (m *Manager) PromoteReport(ctx context.Context, projectName string, report record.ReportSynthesisRecord, newAgentID string) (agent record.AgentProcessRecord, err error) {
	start := time.Now()
	defer func() {
		m.emitOutcome(ctx, observe.Event{
			Project: projectName,
			Kind:    observe.KindReport,
			Name:    "report.promoted",
			ScopeID: report.ReportID,
			AgentID: agent.AgentID,
		}, start, err)
	}()

	if report.ReportID == "" {
		return record.AgentProcessRecord{}, fmt.Errorf("report_id is required")
	}
	projectPath, err := m.CreateProject(ctx, projectName)
	if err != nil {
		return record.AgentProcessRecord{}, err
	}

	canonical := report
	canonical.Normalize()

	reportDir, err := storage.EnsureDirectory(filepath.Join(projectPath, "reports", canonical.ReportID))
	if err != nil {
		return record.AgentProcessRecord{}, err
	}
	if err := storage.WriteJSON(filepath.Join(reportDir, "report.json"), canonical); err != nil {
		return record.AgentProcessRecord{}, err
	}
	if err := storage.WriteText(filepath.Join(reportDir, "question.txt"), canonical.Question); err != nil {
		return record.AgentProcessRecord{}, err
	}
	if err := storage.WriteText(filepath.Join(reportDir, "output.txt"), canonical.OutputText); err != nil {
		return record.AgentProcessRecord{}, err
	}
	if len(canonical.Reasoning) > 0 {
		if err := storage.WriteJSON(filepath.Join(reportDir, "reasoning.json"), canonical.Reasoning); err != nil {
			return record.AgentProcessRecord{}, err
		}
	}

	if err := m.appendReasoning(ctx, projectPath, reasoning.ScopeReport, canonical.ReportID, canonical.Reasoning); err != nil {
		return record.AgentProcessRecord{}, err
	}

	idx, err := m.openIndex(projectPath)
	if err != nil {
		return record.AgentProcessRecord{}, err
	}
	defer func() { _ = idx.Close() }()

	entry := map[string]any{
		"persona":           canonical.Persona,
		"question":          canonical.Question,
		"referenced_agents": canonical.ReferencedAgentIDs,
		"created_at":        canonical.CreatedAt,
		"output_path":       path.Join("reports", canonical.ReportID, "output.txt"),
	}
	if len(canonical.Reasoning) > 0 {
		entry["reasoning_path"] = path.Join("reports", canonical.ReportID, "reasoning.json")
	}
	if err := idx.Put(ctx, index.SectionReports, canonical.ReportID, entry); err != nil {
		return record.AgentProcessRecord{}, err
	}

	agent = record.AgentFromReport(canonical, newAgentID)
	if err := m.persistAgent(ctx, projectPath, idx, agent); err != nil {
		return record.AgentProcessRecord{}, err
	}
	return agent, nil
}

// ListAgents reads every agent record in the project's agents directory,
// sorted by filename. Replay plan files are skipped.
func (m *Manager) ListAgents(ctx context.Context, projectName string) ([]record.AgentProcessRecord, error) {
	projectPath, err := m.CreateProject(ctx, projectName)
	if err != nil {
		return nil, err
	}
	agentsDir := filepath.Join(projectPath, "agents")
	entries, err := os.ReadDir(agentsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read agents directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".plan.json") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	records := make([]record.AgentProcessRecord, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(agentsDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read agent record %q: %w", name, err)
		}
		agent, err := record.DecodeAgent(data)
		if err != nil {
			return nil, fmt.Errorf("agent record %q: %w", name, err)
		}
		records = append(records, agent)
	}
	return records, nil
}

// LoadAgent reads one agent record; ErrNotFound when it does not exist.
func (m *Manager) LoadAgent(ctx context.Context, projectName, agentID string) (record.AgentProcessRecord, error) {
	projectPath, err := m.CreateProject(ctx, projectName)
	if err != nil {
		return record.AgentProcessRecord{}, err
	}
	agentPath := filepath.Join(projectPath, "agents", agentID+".json")
	data, err := os.ReadFile(agentPath)
	if os.IsNotExist(err) {
		return record.AgentProcessRecord{}, fmt.Errorf("%w: agent %q in project %q", ErrNotFound, agentID, projectName)
	}
	if err != nil {
		return record.AgentProcessRecord{}, fmt.Errorf("failed to read agent record: %w", err)
	}
	agent, err := record.DecodeAgent(data)
	if err != nil {
		return record.AgentProcessRecord{}, fmt.Errorf("agent %q: %w", agentID, err)
	}
	return agent, nil
}

// BuildReplayPlan loads an agent record and derives a fresh replay plan
// from its workflow.
func (m *Manager) BuildReplayPlan(ctx context.Context, projectName, agentID string) (record.AgentReplayPlan, error) {
	agent, err := m.LoadAgent(ctx, projectName, agentID)
	if err != nil {
		return record.AgentReplayPlan{}, err
	}
	return record.PlanFromAgent(agent), nil
}

// LoadAgentPlan reads the replay plan persisted alongside the agent record;
// ErrNotFound when it does not exist.
func (m *Manager) LoadAgentPlan(ctx context.Context, projectName, agentID string) (record.AgentReplayPlan, error) {
	projectPath, err := m.CreateProject(ctx, projectName)
	if err != nil {
		return record.AgentReplayPlan{}, err
	}
	planPath := filepath.Join(projectPath, "agents", agentID+".plan.json")
	data, err := os.ReadFile(planPath)
	if os.IsNotExist(err) {
		return record.AgentReplayPlan{}, fmt.Errorf("%w: plan for agent %q in project %q", ErrNotFound, agentID, projectName)
	}
	if err != nil {
		return record.AgentReplayPlan{}, fmt.Errorf("failed to read agent plan: %w", err)
	}
	plan, err := record.DecodePlan(data)
	if err != nil {
		return record.AgentReplayPlan{}, fmt.Errorf("plan for agent %q: %w", agentID, err)
	}
	return plan, nil
}

// GetReasoning surfaces the reasoning store's audit trail for one scope.
func (m *Manager) GetReasoning(ctx context.Context, projectName, scope, scopeID string) ([]reasoning.StoredStep, error) {
	projectPath, err := m.CreateProject(ctx, projectName)
	if err != nil {
		return nil, err
	}
	store, err := m.openReasoning(projectPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return store.GetReasoning(ctx, scope, scopeID)
}

func (m *Manager) persistAgent(ctx context.Context, projectPath string, idx index.Store, agent record.AgentProcessRecord) error {
	agentsDir, err := storage.EnsureDirectory(filepath.Join(projectPath, "agents"))
	if err != nil {
		return err
	}
	if err := storage.WriteJSON(filepath.Join(agentsDir, agent.AgentID+".json"), agent); err != nil {
		return err
	}

	plan := record.PlanFromAgent(agent)
	if err := storage.WriteJSON(filepath.Join(agentsDir, agent.AgentID+".plan.json"), plan); err != nil {
		return err
	}
	if err := storage.WriteText(filepath.Join(agentsDir, agent.AgentID+".plan.md"), plan.Markdown()); err != nil {
		return err
	}

	return idx.Put(ctx, index.SectionAgents, agent.AgentID, map[string]any{
		"source_chat_id":     agent.SourceChatID,
		"persona":            agent.Persona,
		"skills":             agent.Skills,
		"created_at":         agent.CreatedAt,
		"plan_path":          path.Join("agents", agent.AgentID+".plan.json"),
		"plan_markdown_path": path.Join("agents", agent.AgentID+".plan.md"),
	})
}

func (m *Manager) appendReasoning(ctx context.Context, projectPath, scope, scopeID string, steps []record.ReasoningStep) error {
	if len(steps) == 0 {
		return nil
	}
	store, err := m.openReasoning(projectPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.Append(ctx, scope, scopeID, steps)
}

// allocateChatID builds "<compact-timestamp>-<persona-slug>-<suffix>" and
// regenerates the random suffix when the directory already exists.
// Collisions are only possible within one capture second for the same
// persona, so a handful of attempts is plenty.
func (m *Manager) allocateChatID(projectPath string, rec record.ChatSessionRecord) (string, error) {
	timestamp := rec.CreatedAt.UTC().Format("20060102T150405")
	slug := personaSlug(rec.Persona.Name)
	for attempt := 0; attempt < chatIDAttempts; attempt++ {
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
		id := fmt.Sprintf("%s-%s-%s", timestamp, slug, suffix)
		_, err := os.Stat(filepath.Join(projectPath, "chats", id))
		if os.IsNotExist(err) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to probe chat directory: %w", err)
		}
	}
	return "", fmt.Errorf("failed to allocate a unique chat id after %d attempts", chatIDAttempts)
}

func (m *Manager) emit(ctx context.Context, event observe.Event) {
	if m.sink == nil {
		return
	}
	event.Normalize()
	if err := m.sink.Emit(ctx, event); err != nil {
		log.Printf("agent-archive: failed to emit %s event: %v", event.Name, err)
	}
}

func (m *Manager) emitOutcome(ctx context.Context, event observe.Event, start time.Time, err error) {
	event.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		event.Status = observe.StatusFailed
		event.Error = err.Error()
	} else {
		event.Status = observe.StatusCompleted
	}
	m.emit(ctx, event)
}

func personaSlug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

func validateProjectName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("project name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid project name %q", name)
	}
	return nil
}
