//go:build windows

package command

import (
	"errors"
	"os"
	"os/exec"
)

var defaultShell = []string{"cmd", "/C"}

func setProcessGroup(*exec.Cmd) {}

func startPTY(*exec.Cmd) (*os.File, error) {
	return nil, errors.New("pty mode is not supported on windows")
}

func exitCodeOf(ps *os.ProcessState) int {
	return ps.ExitCode()
}
