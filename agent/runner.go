// Package agent drives a command until it succeeds, escalating failures
// to a debugging collaborator between attempts.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quailyquaily/cmdloop/command"
	"github.com/quailyquaily/cmdloop/internal/tracing"
)

const DefaultMaxAttempts = 3

type Runner struct {
	exec      Executor
	messenger Messenger
	debugger  Debugger

	log         *slog.Logger
	tracer      trace.Tracer
	maxAttempts int
}

type Option func(*Runner)

func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

// NewRunner wires the collaborators. A nil messenger discards reports and a
// nil debugger gives up on the first failure.
func NewRunner(exec Executor, messenger Messenger, debugger Debugger, opts ...Option) *Runner {
	if messenger == nil {
		messenger = discardMessenger{}
	}
	if debugger == nil {
		debugger = NopDebugger{}
	}
	r := &Runner{
		exec:        exec,
		messenger:   messenger,
		debugger:    debugger,
		log:         slog.Default(),
		tracer:      tracing.Tracer(),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunUntilSuccess runs spec, and after each failure reports it through the
// Messenger and lets the Debugger try a fix before running it again.
//
// Rejections and background launches end the run without any report. The
// error return is reserved for collaborator faults and ctx cancellation.
func (r *Runner) RunUntilSuccess(ctx context.Context, spec command.Spec) (Outcome, error) {
	runID := uuid.NewString()
	log := r.log.With("run_id", runID)
	if id := strings.TrimSpace(spec.CommandID); id != "" {
		log = log.With("command_id", id)
	}

	ctx, span := r.tracer.Start(ctx, "run_until_success", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("command_id", spec.CommandID),
		attribute.Int("max_attempts", r.maxAttempts),
	))
	defer span.End()

	outcome, err := r.run(ctx, runID, spec, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("run_error", "error", err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Bool("success", outcome.Succeeded()))
	log.Info("run_done", "success", outcome.Succeeded(), "outcome", fmt.Sprintf("%T", outcome))
	return outcome, nil
}

func (r *Runner) run(ctx context.Context, runID string, spec command.Spec, log *slog.Logger) (Outcome, error) {
	for attempt := 1; ; attempt++ {
		res, err := r.attempt(ctx, spec, attempt)
		if err != nil {
			return nil, fmt.Errorf("attempt %d: %w", attempt, err)
		}

		switch v := res.(type) {
		case command.Rejected:
			if v.Policy {
				log.Info("command_denied", "attempt", attempt)
				return Failed{CLIResponse: v.Message, Attempts: attempt, Reason: ReasonDenied}, nil
			}
			if v.Message != "" {
				return RejectedByUser{UserInput: v.Message}, nil
			}
			return Success{}, nil
		case command.Launched:
			return Success{CLIResponse: v.Output, Ran: true}, nil
		case command.Completed:
			if v.ExitCode == 0 {
				return Success{CLIResponse: v.Output, Ran: true}, nil
			}
		}

		report := newReport(runID, spec, res, attempt, r.maxAttempts)
		log.Info("attempt_failed", "attempt", attempt, "reason", report.Reason(), "exit_code", report.ExitCode)
		reply, err := r.messenger.Send(ctx, report)
		if err != nil {
			return nil, fmt.Errorf("send failure report: %w", err)
		}

		if attempt >= r.maxAttempts {
			reason := ReasonAttemptsExhausted
			if r.maxAttempts == 1 {
				reason = report.Reason()
			}
			return Failed{CLIResponse: report.Output, Attempts: attempt, Reason: reason}, nil
		}

		resolved, err := r.debugger.Debug(ctx, FailureContext{
			Spec:   spec,
			Result: res,
			Report: report,
			Reply:  reply,
		})
		if err != nil {
			return nil, fmt.Errorf("debug: %w", err)
		}
		if !resolved {
			log.Info("debug_unresolved", "attempt", attempt)
			return Failed{CLIResponse: report.Output, Attempts: attempt, Reason: ReasonUnresolved}, nil
		}
		log.Info("debug_resolved", "attempt", attempt)
	}
}

func (r *Runner) attempt(ctx context.Context, spec command.Spec, n int) (command.Result, error) {
	ctx, span := r.tracer.Start(ctx, "attempt", trace.WithAttributes(attribute.Int("attempt", n)))
	defer span.End()

	res, err := r.exec.Execute(ctx, spec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("result", fmt.Sprintf("%T", res)))
	if code, ok := command.ExitCode(res); ok {
		span.SetAttributes(attribute.Int("exit_code", code))
	}
	return res, nil
}
