package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quailyquaily/cmdloop/command"
	"github.com/quailyquaily/cmdloop/internal/jsonutil"
	"github.com/quailyquaily/cmdloop/llm"
)

// LLMMessenger sends failure reports to a model and returns its analysis.
type LLMMessenger struct {
	Client       llm.Client
	Model        string
	SystemPrompt string
}

func (m LLMMessenger) Send(ctx context.Context, report Report) (string, error) {
	if m.Client == nil {
		return "", errors.New("llm messenger: missing client")
	}
	system := m.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = MessengerSystemPrompt
	}
	res, err := m.Client.Chat(ctx, llm.Request{
		Model: m.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: report.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm messenger: %w", err)
	}
	return strings.TrimSpace(res.Text), nil
}

const (
	defaultMaxFixCommands = 5
	defaultFixTimeout     = 60 * time.Second
)

// LLMDebugger asks a model for shell commands that fix the failure and runs
// them through Exec, so they go through the same approval gate as any
// other command.
type LLMDebugger struct {
	Client       llm.Client
	Model        string
	SystemPrompt string
	Exec         Executor

	MaxFixCommands int
	FixTimeout     time.Duration
	Log            *slog.Logger
}

type fixPlan struct {
	Resolved    bool     `json:"resolved"`
	Commands    []string `json:"commands"`
	Explanation string   `json:"explanation"`
}

func (d LLMDebugger) Debug(ctx context.Context, fc FailureContext) (bool, error) {
	if d.Client == nil || d.Exec == nil {
		return false, errors.New("llm debugger: missing client or executor")
	}
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	plan, err := d.plan(ctx, fc, log)
	if err != nil {
		return false, err
	}
	cmds := make([]string, 0, len(plan.Commands))
	for _, c := range plan.Commands {
		if c = strings.TrimSpace(c); c != "" {
			cmds = append(cmds, c)
		}
	}
	log.Info("debug_plan", "resolved", plan.Resolved, "commands", len(cmds), "explanation", plan.Explanation)
	if len(cmds) == 0 {
		return plan.Resolved, nil
	}

	limit := d.MaxFixCommands
	if limit <= 0 {
		limit = defaultMaxFixCommands
	}
	if len(cmds) > limit {
		cmds = cmds[:limit]
	}
	timeout := d.FixTimeout
	if timeout <= 0 {
		timeout = defaultFixTimeout
	}

	for _, c := range cmds {
		res, err := d.Exec.Execute(ctx, command.Spec{Command: c, Timeout: timeout, Dir: fc.Spec.Dir, Env: fc.Spec.Env})
		if err != nil {
			return false, fmt.Errorf("run fix %q: %w", c, err)
		}
		if code, ok := command.ExitCode(res); !ok || code != 0 {
			log.Info("debug_fix_failed", "fix_command", c, "signal", command.Signal(res), "exit_code", code)
			return false, nil
		}
	}
	return true, nil
}

// plan asks the model for a fix. A reply that holds no usable JSON counts
// as an unresolved plan.
func (d LLMDebugger) plan(ctx context.Context, fc FailureContext, log *slog.Logger) (fixPlan, error) {
	system := d.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = DebuggerSystemPrompt
	}
	var user strings.Builder
	user.WriteString(fc.Report.String())
	if reply := strings.TrimSpace(fc.Reply); reply != "" {
		user.WriteString("\nEarlier analysis:\n")
		user.WriteString(reply)
		user.WriteString("\n")
	}

	res, err := d.Client.Chat(ctx, llm.Request{
		Model: d.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user.String()},
		},
		ForceJSON: true,
	})
	if err != nil {
		return fixPlan{}, fmt.Errorf("llm debugger: %w", err)
	}
	var plan fixPlan
	if err := jsonutil.DecodeObject(res.Text, &plan); err != nil {
		log.Warn("debug_plan_invalid", "error", err.Error())
		return fixPlan{}, nil
	}
	return plan, nil
}
