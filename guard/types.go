package guard

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/quailyquaily/cmdloop/internal/strutil"
)

type ApprovalStatus string

const (
	ApprovalNeverAsked         ApprovalStatus = "never_asked"
	ApprovalAutoApproved       ApprovalStatus = "auto_approved"
	ApprovalPreviouslyApproved ApprovalStatus = "previously_approved"
)

// Approved reports whether the status lets a command skip the prompt.
func (s ApprovalStatus) Approved() bool {
	return s == ApprovalAutoApproved || s == ApprovalPreviouslyApproved
}

type ApprovalRecord struct {
	Identity string
	Status   ApprovalStatus

	Command     string
	CommandID   string
	CommandHash string
	Actor       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Request is what the gate is asked to decide on.
type Request struct {
	Command   string
	CommandID string
	Force     bool
	// Timeout is only shown to the human.
	Timeout time.Duration
}

func (r Request) Identity() string {
	return CommandIdentity(r.Command, r.CommandID)
}

type Decision string

const (
	DecisionForced          Decision = "forced"
	DecisionRemembered      Decision = "remembered"
	DecisionAutoApproved    Decision = "auto_approved"
	DecisionApproved        Decision = "approved"
	DecisionRejected        Decision = "rejected"
	DecisionRejectedMessage Decision = "rejected_with_message"
	DecisionDenied          Decision = "denied"
)

// Verdict is the gate's answer. Message is only set for rejections that
// carry human text (or a policy denial reason).
type Verdict struct {
	Decision Decision
	Message  string
}

func (v Verdict) Proceed() bool {
	switch v.Decision {
	case DecisionForced, DecisionRemembered, DecisionAutoApproved, DecisionApproved:
		return true
	default:
		return false
	}
}

type AuditEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"ts"`
	Identity  string    `json:"identity"`
	CommandID string    `json:"command_id,omitempty"`

	CommandRedacted string `json:"command_redacted"`
	CommandHash     string `json:"command_hash,omitempty"`

	Decision Decision `json:"decision"`
	Message  string   `json:"message,omitempty"`
	Actor    string   `json:"actor,omitempty"`
}

// NormalizeCommand collapses whitespace so trivially different spellings of
// the same command share one approval.
func NormalizeCommand(command string) string {
	return strutil.CollapseSpace(command)
}

// CommandIdentity keys approval records. A command id wins over the command
// text so a background process stays approved when its arguments change.
func CommandIdentity(command, commandID string) string {
	if id := strings.TrimSpace(commandID); id != "" {
		return "id:" + id
	}
	return "cmd:" + NormalizeCommand(command)
}

func CommandHash(command string) string {
	sum := sha256.Sum256([]byte(NormalizeCommand(command)))
	return hex.EncodeToString(sum[:])
}
