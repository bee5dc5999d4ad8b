package command

import (
	"errors"
	"time"
)

var ErrEmptyCommand = errors.New("empty command")

// Spec describes one shell command to run.
type Spec struct {
	Command string
	// Timeout <= 0 means the command may run forever.
	Timeout time.Duration
	// CommandID names a long-running process. A process with an id that
	// outlives its timeout is left running and reported as Launched.
	CommandID string
	// Force skips the approval gate.
	Force bool

	Dir string
	Env []string
	// SuccessMessage marks a CommandID process as launched as soon as the
	// text shows up in its output.
	SuccessMessage string
}
