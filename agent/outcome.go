package agent

import "encoding/json"

type FailureReason string

const (
	ReasonExitCode          FailureReason = "exit_code"
	ReasonTimedOut          FailureReason = "timed_out"
	ReasonUnresolved        FailureReason = "unresolved"
	ReasonAttemptsExhausted FailureReason = "attempts_exhausted"
	ReasonDenied            FailureReason = "denied"
)

// Outcome is one of Success, RejectedByUser or Failed.
type Outcome interface {
	Succeeded() bool
	isOutcome()
}

// Success means the command completed cleanly, was launched in the
// background, or the human declined it without comment. Ran is false in
// the last case and CLIResponse is then absent.
type Success struct {
	CLIResponse string
	Ran         bool
}

// RejectedByUser carries the human's instruction in place of running the command.
type RejectedByUser struct {
	UserInput string
}

// Failed is a command that kept failing after debugging, or one a deny
// rule refused (Reason denied, CLIResponse holds the rule's message).
type Failed struct {
	CLIResponse string
	Attempts    int
	Reason      FailureReason
}

func (Success) Succeeded() bool        { return true }
func (RejectedByUser) Succeeded() bool { return false }
func (Failed) Succeeded() bool         { return false }

func (Success) isOutcome()        {}
func (RejectedByUser) isOutcome() {}
func (Failed) isOutcome()         {}

func (s Success) MarshalJSON() ([]byte, error) {
	out := map[string]any{"success": true}
	if s.Ran {
		out["cli_response"] = s.CLIResponse
	}
	return json.Marshal(out)
}

func (r RejectedByUser) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"success":    false,
		"user_input": r.UserInput,
	})
}

func (f Failed) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"success":      false,
		"cli_response": f.CLIResponse,
		"attempts":     f.Attempts,
		"reason":       f.Reason,
	})
}
