package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/quailyquaily/cmdloop/command"
)

// Messenger receives one Report per failed attempt. The reply (from a
// human or a model) is handed to the Debugger.
type Messenger interface {
	Send(ctx context.Context, report Report) (string, error)
}

// Debugger tries to fix whatever made the command fail. true means the
// command should be run again.
type Debugger interface {
	Debug(ctx context.Context, fc FailureContext) (bool, error)
}

// Executor runs a single command. *command.Executor implements it.
type Executor interface {
	Execute(ctx context.Context, spec command.Spec) (command.Result, error)
}

type MessengerFunc func(ctx context.Context, report Report) (string, error)

func (f MessengerFunc) Send(ctx context.Context, report Report) (string, error) { return f(ctx, report) }

type DebuggerFunc func(ctx context.Context, fc FailureContext) (bool, error)

func (f DebuggerFunc) Debug(ctx context.Context, fc FailureContext) (bool, error) { return f(ctx, fc) }

// Report describes one failed attempt.
type Report struct {
	RunID       string
	Command     string
	CommandID   string
	Attempt     int
	MaxAttempts int

	Output   string
	ExitCode int
	TimedOut bool
}

func newReport(runID string, spec command.Spec, res command.Result, attempt, maxAttempts int) Report {
	r := Report{
		RunID:       runID,
		Command:     strings.TrimSpace(spec.Command),
		CommandID:   strings.TrimSpace(spec.CommandID),
		Attempt:     attempt,
		MaxAttempts: maxAttempts,
		Output:      command.Output(res),
	}
	if code, ok := command.ExitCode(res); ok {
		r.ExitCode = code
	}
	_, r.TimedOut = res.(command.TimedOut)
	return r
}

func (r Report) Reason() FailureReason {
	if r.TimedOut {
		return ReasonTimedOut
	}
	return ReasonExitCode
}

// Summary is the one-line description of the failure.
func (r Report) Summary() string {
	switch {
	case r.TimedOut:
		return fmt.Sprintf("command `%s` timed out (attempt %d/%d)", r.Command, r.Attempt, r.MaxAttempts)
	case r.ExitCode == command.ExitSpawnFailed:
		return fmt.Sprintf("command `%s` could not be started (attempt %d/%d)", r.Command, r.Attempt, r.MaxAttempts)
	default:
		return fmt.Sprintf("command `%s` exited with code %d (attempt %d/%d)", r.Command, r.ExitCode, r.Attempt, r.MaxAttempts)
	}
}

func (r Report) String() string {
	var b strings.Builder
	b.WriteString(r.Summary())
	b.WriteString("\n")
	out := strings.TrimSpace(r.Output)
	if out == "" {
		b.WriteString("(no output)\n")
		return b.String()
	}
	b.WriteString("output:\n```\n")
	b.WriteString(out)
	b.WriteString("\n```\n")
	return b.String()
}

// FailureContext is what a Debugger gets to work with.
type FailureContext struct {
	Spec   command.Spec
	Result command.Result
	Report Report
	// Reply is what the Messenger returned for Report.
	Reply string
}

// NopDebugger never resolves anything.
type NopDebugger struct{}

func (NopDebugger) Debug(context.Context, FailureContext) (bool, error) { return false, nil }

type discardMessenger struct{}

func (discardMessenger) Send(context.Context, Report) (string, error) { return "", nil }
