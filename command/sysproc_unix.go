//go:build !windows

package command

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
)

var defaultShell = []string{"sh", "-c"}

// setProcessGroup puts the child in its own group so the whole tree can be
// signalled on timeout.
func setProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// startPTY starts cmd attached to a new pseudo-terminal. pty.Start makes the
// child a session leader, which also gives it its own process group.
func startPTY(cmd *exec.Cmd) (*os.File, error) {
	return pty.StartWithSize(cmd, &pty.Winsize{Rows: 40, Cols: 120})
}

// exitCodeOf reports 128+signal for a process killed by a signal, the
// way shells do, so it never collides with ExitSpawnFailed.
func exitCodeOf(ps *os.ProcessState) int {
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return ps.ExitCode()
}
