package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNoAsker = errors.New("approval required but no asker is configured")

// Asker is the human channel. Ask blocks until the human answers or ctx ends.
type Asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

type AskerFunc func(ctx context.Context, prompt string) (string, error)

func (f AskerFunc) Ask(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }

// Gate decides whether a command runs right away or waits for a human.
// It is a single writer of approval records: callers must not run two
// approval flows for the same identity concurrently.
type Gate struct {
	cfg      Config
	store    ApprovalStore
	asker    Asker
	audit    AuditSink
	redactor *Redactor
	log      *slog.Logger
	actor    string
}

type GateOption func(*Gate)

func WithAuditSink(s AuditSink) GateOption {
	return func(g *Gate) { g.audit = s }
}

func WithLogger(log *slog.Logger) GateOption {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// WithActor names who answers prompts; it is stored on approval records.
func WithActor(actor string) GateOption {
	return func(g *Gate) { g.actor = strings.TrimSpace(actor) }
}

func NewGate(cfg Config, store ApprovalStore, asker Asker, opts ...GateOption) *Gate {
	if store == nil {
		store = NewMemoryApprovalStore()
	}
	g := &Gate{
		cfg:      cfg,
		store:    store,
		asker:    asker,
		redactor: NewRedactor(cfg.Redaction),
		log:      slog.Default(),
		actor:    "user",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) Store() ApprovalStore { return g.store }

func (g *Gate) Redactor() *Redactor { return g.redactor }

// Check returns the verdict for req. An error means no verdict could be
// reached (the human channel failed or ctx was cancelled).
func (g *Gate) Check(ctx context.Context, req Request) (Verdict, error) {
	identity := req.Identity()
	log := g.log.With("identity", g.redactor.Redact(identity))

	if req.Force {
		return g.decide(ctx, req, Verdict{Decision: DecisionForced}), nil
	}

	if tok, denied := DeniedToken(req.Command, g.cfg.DenyTokens); denied {
		log.Warn("guard_command_denied", "token", tok)
		return g.decide(ctx, req, Verdict{
			Decision: DecisionDenied,
			Message:  "command denied by policy: " + tok,
		}), nil
	}

	rec, ok, err := g.store.Get(ctx, identity)
	if err != nil {
		log.Warn("guard_approval_lookup_error", "error", err.Error())
	}
	if ok && rec.Status.Approved() {
		log.Debug("guard_approval_remembered", "status", rec.Status)
		return g.decide(ctx, req, Verdict{Decision: DecisionRemembered}), nil
	}

	if MatchesPrefix(req.Command, g.cfg.AutoApprove) {
		g.remember(ctx, req, ApprovalAutoApproved)
		return g.decide(ctx, req, Verdict{Decision: DecisionAutoApproved}), nil
	}
	// Approval switched off for this gate only; nothing is stored.
	if !g.cfg.RequireApproval {
		return g.decide(ctx, req, Verdict{Decision: DecisionAutoApproved}), nil
	}

	if g.asker == nil {
		return Verdict{}, ErrNoAsker
	}
	answer, err := g.asker.Ask(ctx, ApprovalPrompt(req.Command, req.Timeout))
	if err != nil {
		return Verdict{}, fmt.Errorf("ask approval: %w", err)
	}

	v := ClassifyAnswer(answer)
	if v.Decision == DecisionApproved {
		g.remember(ctx, req, ApprovalPreviouslyApproved)
	}
	return g.decide(ctx, req, v), nil
}

// Approve records a standing approval without asking, for commands the
// human vetted out of band.
func (g *Gate) Approve(ctx context.Context, command, commandID string) error {
	return g.store.Set(ctx, g.record(Request{Command: command, CommandID: commandID}, ApprovalPreviouslyApproved))
}

func (g *Gate) remember(ctx context.Context, req Request, status ApprovalStatus) {
	if err := g.store.Set(ctx, g.record(req, status)); err != nil {
		// The human already answered; failing to remember only costs a future prompt.
		g.log.Warn("guard_approval_store_error", "status", status, "error", err.Error())
	}
}

func (g *Gate) record(req Request, status ApprovalStatus) ApprovalRecord {
	return ApprovalRecord{
		Identity:    req.Identity(),
		Status:      status,
		Command:     g.redactor.Redact(NormalizeCommand(req.Command)),
		CommandID:   strings.TrimSpace(req.CommandID),
		CommandHash: CommandHash(req.Command),
		Actor:       g.actor,
	}
}

func (g *Gate) decide(ctx context.Context, req Request, v Verdict) Verdict {
	g.log.Info("guard_decision",
		"decision", v.Decision,
		"command", g.redactor.Redact(req.Command),
		"command_id", req.CommandID,
	)
	if g.audit == nil {
		return v
	}
	ev := AuditEvent{
		EventID:         "evt_" + uuid.NewString(),
		Timestamp:       time.Now().UTC(),
		Identity:        g.redactor.Redact(req.Identity()),
		CommandID:       req.CommandID,
		CommandRedacted: g.redactor.Redact(req.Command),
		CommandHash:     CommandHash(req.Command),
		Decision:        v.Decision,
		Message:         g.redactor.Redact(v.Message),
		Actor:           g.actor,
	}
	if err := g.audit.Emit(ctx, ev); err != nil {
		g.log.Warn("guard_audit_emit_error", "error", err.Error())
	}
	return v
}

// ApprovalPrompt is the text shown to the human before a command runs.
func ApprovalPrompt(command string, timeout time.Duration) string {
	var b strings.Builder
	b.WriteString("Can I execute the command: `")
	b.WriteString(strings.TrimSpace(command))
	b.WriteString("`")
	if timeout > 0 {
		fmt.Fprintf(&b, " with %s timeout", timeout)
	}
	b.WriteString("?\n")
	b.WriteString(`If yes, just press ENTER. Type "no" to skip it, or tell me what to do instead.`)
	return b.String()
}
