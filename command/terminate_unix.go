//go:build !windows

package command

import (
	"errors"
	"fmt"
	"log/slog"
	"syscall"
	"time"
)

func terminateProcess(pid int, grace, poll time.Duration, log *slog.Logger) {
	if !processAlive(pid) {
		return
	}
	if err := signalGroup(pid, syscall.SIGTERM); err != nil {
		log.Debug("command_terminate_failed", "pid", pid, "signal", "SIGTERM", "error", err.Error())
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			// Sweep stragglers left in the group by the shell.
			if pgid, ok := groupTarget(pid); ok {
				_ = syscall.Kill(pgid, syscall.SIGKILL)
			}
			return
		}
		time.Sleep(poll)
	}

	log.Debug("command_terminate_escalate", "pid", pid, "grace", grace.String())
	if err := signalGroup(pid, syscall.SIGKILL); err != nil {
		log.Debug("command_terminate_failed", "pid", pid, "signal", "SIGKILL", "error", err.Error())
	}
}

// signalGroup signals the process group led by pid, falling back to pid
// alone when it does not lead a group.
func signalGroup(pid int, sig syscall.Signal) error {
	pgid, ok := groupTarget(pid)
	if !ok {
		return fmt.Errorf("refusing to signal pid %d", pid)
	}
	if err := syscall.Kill(pgid, sig); err == nil {
		return nil
	}
	err := syscall.Kill(pid, sig)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}

// groupTarget returns the kill(2) argument addressing the group led by pid.
// It refuses pids whose negation would mean "every process" or a group
// other than the child's.
func groupTarget(pid int) (int, bool) {
	if pid <= 1 {
		return 0, false
	}
	return -pid, true
}

func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
