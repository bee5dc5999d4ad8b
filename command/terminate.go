package command

import (
	"log/slog"
	"time"
)

const (
	DefaultGracePeriod   = 2 * time.Second
	defaultTerminatePoll = 50 * time.Millisecond
)

// Terminator stops a process and everything in its process group. It
// never returns an error: a process that is already gone counts as
// terminated, and failures are only logged.
type Terminator struct {
	Grace time.Duration
	Poll  time.Duration
	Log   *slog.Logger
}

func NewTerminator(grace time.Duration, log *slog.Logger) *Terminator {
	return &Terminator{Grace: grace, Log: log}
}

// Terminate asks pid to exit, waits up to Grace, then kills it. It returns
// once the process is gone or the kill was sent.
// Pids <= 1 are ignored: 0 and -1 address groups or every process, and
// 1 is init.
func (t *Terminator) Terminate(pid int) {
	if pid <= 1 {
		return
	}
	grace, poll, log := DefaultGracePeriod, defaultTerminatePoll, slog.Default()
	if t != nil {
		if t.Grace > 0 {
			grace = t.Grace
		}
		if t.Poll > 0 {
			poll = t.Poll
		}
		if t.Log != nil {
			log = t.Log
		}
	}
	terminateProcess(pid, grace, poll, log)
}
