package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/quailyquaily/cmdloop/agent"
	"github.com/quailyquaily/cmdloop/command"
	"github.com/quailyquaily/cmdloop/internal/clifmt"
)

type specFlags struct {
	timeout        time.Duration
	id             string
	force          bool
	successMessage string
	dir            string
	env            []string
}

func (f *specFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Timeout (0 = none); clamped to exec.min_timeout/exec.max_timeout")
	cmd.Flags().StringVar(&f.id, "id", "", "Command id of a long-running process; it is left running once launched")
	cmd.Flags().BoolVar(&f.force, "force", false, "Run without asking for approval")
	cmd.Flags().StringVar(&f.successMessage, "success-message", "", "Output text that marks an --id process as launched")
	cmd.Flags().StringVar(&f.dir, "dir", "", "Working directory")
	cmd.Flags().StringArrayVar(&f.env, "env", nil, "Extra environment entry KEY=VALUE (repeatable)")
}

func (f *specFlags) spec(args []string) command.Spec {
	return command.Spec{
		Command:        strings.Join(args, " "),
		Timeout:        f.timeout,
		CommandID:      f.id,
		Force:          f.force,
		Dir:            f.dir,
		Env:            f.env,
		SuccessMessage: f.successMessage,
	}
}

func newRunCmd() *cobra.Command {
	var (
		flags  specFlags
		asJSON bool
		detach bool
	)
	cmd := &cobra.Command{
		Use:   "run <command>",
		Short: "Run a command until it succeeds, debugging failures between attempts",
		Example: `  cmdloop run --timeout 30s npm test
  cmdloop run --id app --success-message "listening on" -- npm run start`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			// Launched processes write into this process's pipes, so they
			// cannot outlive it.
			defer a.bg.TerminateAll()

			r, err := a.runner()
			if err != nil {
				return err
			}
			spec := flags.spec(args)
			outcome, err := r.RunUntilSuccess(cmd.Context(), spec)
			if err != nil {
				return err
			}
			if err := printOutcome(cmd, outcome, asJSON); err != nil {
				return err
			}
			if spec.CommandID != "" && !detach {
				waitForBackground(cmd, a, spec.CommandID)
			}
			return outcomeStatus(outcome)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the outcome as JSON")
	cmd.Flags().BoolVar(&detach, "detach", false, "Stop a launched --id process and exit instead of waiting for it")
	return cmd
}

func printOutcome(cmd *cobra.Command, outcome agent.Outcome, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}
	switch v := outcome.(type) {
	case agent.Success:
		if !v.Ran {
			fmt.Fprintln(out, clifmt.Dim("skipped"))
			return nil
		}
		fmt.Fprint(out, v.CLIResponse)
		if v.CLIResponse != "" && !strings.HasSuffix(v.CLIResponse, "\n") {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, clifmt.Success("done"))
	case agent.RejectedByUser:
		fmt.Fprintln(out, clifmt.Warn("not run: ")+v.UserInput)
	case agent.Failed:
		fmt.Fprintln(out, clifmt.Error(fmt.Sprintf("failed after %d attempt(s) (%s)", v.Attempts, v.Reason)))
	}
	return nil
}

func outcomeStatus(outcome agent.Outcome) error {
	switch outcome.(type) {
	case agent.Success:
		return nil
	case agent.RejectedByUser:
		return exitError{code: 2}
	default:
		return exitError{code: 1}
	}
}

// waitForBackground keeps the CLI attached to a launched process until it
// exits or the user interrupts, so its output pipe stays open.
func waitForBackground(cmd *cobra.Command, a *app, id string) {
	p, ok := a.bg.Get(id)
	if !ok || p.Exited() {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), clifmt.Dim(fmt.Sprintf("%s (pid %d) is running; press Ctrl+C to stop it", id, p.PID)))
	select {
	case <-cmd.Context().Done():
	case <-p.Done():
		fmt.Fprintln(cmd.ErrOrStderr(), clifmt.Warn(fmt.Sprintf("%s exited with code %d", id, p.ExitCode())))
	}
}
