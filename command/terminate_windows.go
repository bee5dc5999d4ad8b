//go:build windows

package command

import (
	"log/slog"
	"os"
	"time"
)

func terminateProcess(pid int, _ time.Duration, _ time.Duration, log *slog.Logger) {
	p, err := os.FindProcess(pid)
	if err != nil {
		return
	}
	if err := p.Kill(); err != nil {
		log.Debug("command_terminate_failed", "pid", pid, "error", err.Error())
	}
}
