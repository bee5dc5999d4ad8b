package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/quailyquaily/cmdloop/agent"
	"github.com/quailyquaily/cmdloop/command"
	"github.com/quailyquaily/cmdloop/guard"
	"github.com/quailyquaily/cmdloop/internal/console"
	"github.com/quailyquaily/cmdloop/internal/pathutil"
	"github.com/quailyquaily/cmdloop/internal/promptprofile"
	"github.com/quailyquaily/cmdloop/internal/tracing"
)

// app holds everything a command needs, built from viper.
type app struct {
	log      *slog.Logger
	out      io.Writer
	prompter *console.Prompter
	gate     *guard.Gate
	exec     *command.Executor
	bg       *command.Background

	closers []func() error
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	log := loggerFromViper(stderr)
	a := &app{
		log:      log,
		out:      stdout,
		prompter: console.NewPrompter(stdin, stderr),
	}

	if file := strings.TrimSpace(viper.GetString("trace.file")); file != "" {
		if err := tracing.Init("cmdloop", version, pathutil.ExpandHomePath(file)); err != nil {
			log.Warn("trace_init_error", "error", err.Error())
		} else {
			a.closers = append(a.closers, func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return tracing.Shutdown(ctx)
			})
		}
	}

	cfg := guardConfigFromViper()
	store, closeStore := approvalStoreFromViper(log)
	a.closers = append(a.closers, closeStore)

	gateOpts := []guard.GateOption{guard.WithLogger(log), guard.WithActor(currentActor())}
	auditPath := auditPathFromViper(cfg)
	if sink, err := guard.NewJSONLAuditSink(auditPath, cfg.Audit.RotateMaxBytes); err != nil {
		log.Warn("guard_audit_sink_error", "error", err.Error())
	} else {
		gateOpts = append(gateOpts, guard.WithAuditSink(sink))
		a.closers = append(a.closers, sink.Close)
	}
	a.gate = guard.NewGate(cfg, store, a.prompter, gateOpts...)
	log.Info("guard_enabled",
		"require_approval", cfg.RequireApproval,
		"auto_approve", len(cfg.AutoApprove),
		"deny_tokens", len(cfg.DenyTokens),
		"audit_jsonl", auditPath,
	)

	term := command.NewTerminator(viper.GetDuration("exec.grace_period"), log)
	a.bg = command.NewBackground(term, log)
	opts := append(executorOptionsFromViper(log, term),
		command.WithGate(a.gate),
		command.WithRedactor(a.gate.Redactor()),
		command.WithBackground(a.bg),
	)
	a.exec = command.NewExecutor(opts...)
	return a, nil
}

func (a *app) runner() (*agent.Runner, error) {
	messenger, debugger, err := a.collaborators()
	if err != nil {
		return nil, err
	}
	return agent.NewRunner(a.exec, messenger, debugger,
		agent.WithLogger(a.log),
		agent.WithMaxAttempts(viper.GetInt("retry.max_attempts")),
	), nil
}

func (a *app) collaborators() (agent.Messenger, agent.Debugger, error) {
	printer := agent.ConsoleMessenger{Out: a.out}
	switch mode := strings.ToLower(strings.TrimSpace(viper.GetString("debugger.mode"))); mode {
	case "none", "off":
		return printer, agent.NopDebugger{}, nil
	case "", "human":
		return printer, agent.HumanDebugger{Asker: a.prompter}, nil
	case "llm":
		client, err := llmClientFromViper()
		if err != nil {
			return nil, nil, err
		}
		notesDir := firstNonEmpty(viper.GetString("debugger.notes_dir"), ".")
		notes := promptprofile.LoadNotes(promptprofile.NotesPath(pathutil.ExpandHomePath(notesDir)), a.log)
		model := llmModelFromViper()
		messenger := teeMessenger{
			printer,
			agent.LLMMessenger{Client: client, Model: model},
		}
		debugger := agent.LLMDebugger{
			Client:         client,
			Model:          model,
			SystemPrompt:   promptprofile.Compose(agent.DebuggerSystemPrompt, notes),
			Exec:           a.exec,
			MaxFixCommands: viper.GetInt("debugger.max_fix_commands"),
			FixTimeout:     viper.GetDuration("debugger.fix_timeout"),
			Log:            a.log,
		}
		return messenger, debugger, nil
	default:
		return nil, nil, fmt.Errorf("unknown debugger mode %q (want none|human|llm)", mode)
	}
}

// teeMessenger sends the report to every messenger and returns the last
// non-empty reply.
type teeMessenger []agent.Messenger

func (t teeMessenger) Send(ctx context.Context, report agent.Report) (string, error) {
	var reply string
	for _, m := range t {
		r, err := m.Send(ctx, report)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(r) != "" {
			reply = r
		}
	}
	return reply, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Debug("close_error", "error", err.Error())
		}
	}
}

func currentActor() string {
	return firstNonEmpty(os.Getenv("USER"), os.Getenv("USERNAME"), "user")
}
