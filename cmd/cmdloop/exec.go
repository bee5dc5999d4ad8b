package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quailyquaily/cmdloop/command"
	"github.com/quailyquaily/cmdloop/internal/clifmt"
)

func newExecCmd() *cobra.Command {
	var flags specFlags
	cmd := &cobra.Command{
		Use:   "exec <command>",
		Short: "Run a command once through the approval gate",
		Long: `Run a command once. The exit status mirrors the command: its own exit
code, 124 on timeout, 127 if it could not be started, and 2 when it was
rejected with instructions.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.bg.TerminateAll()

			res, err := a.exec.Execute(cmd.Context(), flags.spec(args))
			if err != nil {
				return err
			}
			printResult(cmd, res)
			if code := resultStatus(res); code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printResult(cmd *cobra.Command, res command.Result) {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if text := command.Output(res); text != "" {
		fmt.Fprint(out, text)
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(out)
		}
	}
	switch v := res.(type) {
	case command.TimedOut:
		fmt.Fprintln(errOut, clifmt.Warn("timed out"))
	case command.Rejected:
		if v.Policy {
			fmt.Fprintln(errOut, clifmt.Error(v.Message))
		} else if v.Message == "" {
			fmt.Fprintln(errOut, clifmt.Dim("skipped"))
		} else {
			fmt.Fprintln(errOut, clifmt.Warn("not run: ")+v.Message)
		}
	case command.Launched:
		fmt.Fprintln(errOut, clifmt.Dim(fmt.Sprintf("launched (pid %d)", v.PID)))
	}
}

func resultStatus(res command.Result) int {
	switch v := res.(type) {
	case command.Completed:
		if v.ExitCode == command.ExitSpawnFailed {
			return 127
		}
		return v.ExitCode
	case command.TimedOut:
		return 124
	case command.Rejected:
		if v.Policy {
			return 1
		}
		if v.Message != "" {
			return 2
		}
		return 0
	default:
		return 0
	}
}
