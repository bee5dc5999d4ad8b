package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/quailyquaily/cmdloop/guard"
)

const (
	DefaultPollInterval = 100 * time.Millisecond
	// Output of an exited process is drained for at most this long; a
	// grandchild holding the pipe open must not block the caller.
	outputDrainTimeout = 500 * time.Millisecond
)

// Approver decides whether a command may run. *guard.Gate implements it.
type Approver interface {
	Check(ctx context.Context, req guard.Request) (guard.Verdict, error)
}

// Executor runs one shell command at a time on behalf of an agent.
type Executor struct {
	gate     Approver
	log      *slog.Logger
	redactor *guard.Redactor

	shell      []string
	poll       time.Duration
	maxOutput  int
	minTimeout time.Duration
	maxTimeout time.Duration
	usePTY     bool

	term *Terminator
	bg   *Background
}

type Option func(*Executor)

func WithGate(g Approver) Option {
	return func(e *Executor) { e.gate = g }
}

func WithLogger(log *slog.Logger) Option {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithRedactor masks secrets in logged commands.
func WithRedactor(r *guard.Redactor) Option {
	return func(e *Executor) { e.redactor = r }
}

// WithShell replaces the default "sh -c"; the command is appended as the last argument.
func WithShell(shell ...string) Option {
	return func(e *Executor) {
		if len(shell) > 0 {
			e.shell = append([]string(nil), shell...)
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.poll = d
		}
	}
}

// WithMaxOutputBytes caps captured output; the tail is kept. n <= 0 disables the cap.
func WithMaxOutputBytes(n int) Option {
	return func(e *Executor) { e.maxOutput = n }
}

// WithTimeoutBounds clamps non-zero timeouts into [min, max]. A zero bound
// is ignored.
func WithTimeoutBounds(min, max time.Duration) Option {
	return func(e *Executor) {
		e.minTimeout = min
		e.maxTimeout = max
	}
}

func WithPTY(enabled bool) Option {
	return func(e *Executor) { e.usePTY = enabled }
}

func WithTerminator(t *Terminator) Option {
	return func(e *Executor) {
		if t != nil {
			e.term = t
		}
	}
}

func WithBackground(bg *Background) Option {
	return func(e *Executor) { e.bg = bg }
}

func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		log:       slog.Default(),
		shell:     defaultShell,
		poll:      DefaultPollInterval,
		maxOutput: DefaultMaxOutputBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.term == nil {
		e.term = NewTerminator(DefaultGracePeriod, e.log)
	}
	return e
}

func (e *Executor) Background() *Background { return e.bg }

// Execute asks the gate (unless spec.Force), runs the command and waits for
// it to exit, time out or, for a CommandID process, to be considered launched.
//
// The returned error is reserved for infrastructure faults: the approval
// channel failed or ctx was cancelled. Non-zero exits, timeouts, rejections
// and spawn failures are all reported as a Result.
func (e *Executor) Execute(ctx context.Context, spec Spec) (Result, error) {
	command := strings.TrimSpace(spec.Command)
	if command == "" {
		return nil, ErrEmptyCommand
	}
	commandID := strings.TrimSpace(spec.CommandID)
	timeout := e.clampTimeout(spec.Timeout)
	log := e.log.With("command", e.redactor.Redact(command))
	if commandID != "" {
		log = log.With("command_id", commandID)
	}

	if e.gate != nil && !spec.Force {
		v, err := e.gate.Check(ctx, guard.Request{
			Command:   command,
			CommandID: commandID,
			Timeout:   timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("approval: %w", err)
		}
		if !v.Proceed() {
			log.Info("command_rejected", "decision", v.Decision)
			return Rejected{Message: v.Message, Policy: v.Decision == guard.DecisionDenied}, nil
		}
	}

	if commandID != "" && e.bg != nil {
		e.bg.Terminate(commandID)
	}

	p, err := e.start(command, commandID, spec)
	if err != nil {
		log.Warn("command_spawn_failed", "error", err.Error())
		return Completed{Output: err.Error(), ExitCode: ExitSpawnFailed}, nil
	}
	log = log.With("pid", p.PID)
	log.Info("command_start", "timeout", timeout.String(), "pty", e.usePTY)
	if commandID != "" && e.bg != nil {
		e.bg.Register(p)
	}

	return e.wait(ctx, p, spec, timeout, log)
}

func (e *Executor) wait(ctx context.Context, p *Process, spec Spec, timeout time.Duration, log *slog.Logger) (Result, error) {
	ticker := time.NewTicker(e.poll)
	defer ticker.Stop()

	completed := func() Result {
		log.Info("command_exit",
			"exit_code", p.ExitCode(),
			"duration", time.Since(p.StartedAt).String(),
		)
		return Completed{Output: p.Output(), ExitCode: p.ExitCode()}
	}
	launched := func(reason string) Result {
		log.Info("command_launched", "reason", reason)
		return Launched{Output: p.Output(), PID: p.PID}
	}

	for {
		select {
		case <-p.Done():
			return completed(), nil

		case <-ctx.Done():
			log.Info("command_cancelled", "error", ctx.Err().Error())
			e.kill(p)
			return nil, ctx.Err()

		case <-ticker.C:
			if p.Exited() {
				return completed(), nil
			}
			if p.ID != "" && spec.SuccessMessage != "" && p.out.Contains(spec.SuccessMessage) {
				return launched("success_message"), nil
			}
			if timeout <= 0 || time.Since(p.StartedAt) <= timeout {
				continue
			}
			if p.ID != "" {
				return launched("timeout"), nil
			}
			log.Info("command_timeout", "timeout", timeout.String())
			e.kill(p)
			return TimedOut{Output: p.Output()}, nil
		}
	}
}

// kill terminates p and waits briefly for its output to be drained.
func (e *Executor) kill(p *Process) {
	e.term.Terminate(p.PID)
	select {
	case <-p.Done():
	case <-time.After(outputDrainTimeout):
	}
	if e.bg != nil && p.ID != "" {
		e.bg.release(p)
	}
}

func (e *Executor) start(command, commandID string, spec Spec) (*Process, error) {
	args := append(append([]string(nil), e.shell[1:]...), command)
	cmd := exec.Command(e.shell[0], args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	p := &Process{
		ID:      commandID,
		Command: command,
		out:     newTailBuffer(e.maxOutput),
		done:    make(chan struct{}),
	}

	if e.usePTY {
		ptmx, err := startPTY(cmd)
		if err != nil {
			return nil, err
		}
		p.PID, p.StartedAt = cmd.Process.Pid, time.Now()
		copied := make(chan struct{})
		go func() {
			_, _ = io.Copy(p.out, ptmx)
			close(copied)
		}()
		go func() {
			err := cmd.Wait()
			select {
			case <-copied:
			case <-time.After(outputDrainTimeout):
			}
			_ = ptmx.Close()
			e.exited(p, cmd, err)
		}()
	} else {
		setProcessGroup(cmd)
		cmd.Stdout = p.out
		cmd.Stderr = p.out
		cmd.WaitDelay = outputDrainTimeout
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		p.PID, p.StartedAt = cmd.Process.Pid, time.Now()
		go func() {
			e.exited(p, cmd, cmd.Wait())
		}()
	}
	return p, nil
}

func (e *Executor) exited(p *Process, cmd *exec.Cmd, err error) {
	code := 0
	if cmd.ProcessState != nil {
		code = exitCodeOf(cmd.ProcessState)
	} else if err != nil {
		code = ExitSpawnFailed
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		e.log.Debug("command_wait_error", "pid", p.PID, "error", err.Error())
	}
	p.finish(code)
	if e.bg != nil && p.ID != "" {
		e.bg.release(p)
	}
}

func (e *Executor) clampTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if e.minTimeout > 0 && d < e.minTimeout {
		d = e.minTimeout
	}
	if e.maxTimeout > 0 && d > e.maxTimeout {
		d = e.maxTimeout
	}
	return d
}
