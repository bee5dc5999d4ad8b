package agent

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/quailyquaily/cmdloop/guard"
	"github.com/quailyquaily/cmdloop/internal/clifmt"
)

// ConsoleMessenger prints failure reports for a human to read.
type ConsoleMessenger struct {
	Out io.Writer
}

func (m ConsoleMessenger) Send(_ context.Context, report Report) (string, error) {
	if m.Out == nil {
		return "", nil
	}
	fmt.Fprintln(m.Out)
	fmt.Fprintln(m.Out, clifmt.Error(report.Summary()))
	if out := strings.TrimSpace(report.Output); out != "" {
		for _, line := range strings.Split(out, "\n") {
			fmt.Fprintln(m.Out, clifmt.Dim("  "+line))
		}
	}
	return "", nil
}

// HumanDebugger leaves the fix to the human and asks whether to retry.
type HumanDebugger struct {
	Asker guard.Asker
}

func (d HumanDebugger) Debug(ctx context.Context, fc FailureContext) (bool, error) {
	if d.Asker == nil {
		return false, guard.ErrNoAsker
	}
	prompt := fmt.Sprintf("%s\nFix the problem and press ENTER to run `%s` again, or type \"no\" to give up.",
		fc.Report.Summary(), fc.Report.Command)
	answer, err := d.Asker.Ask(ctx, prompt)
	if err != nil {
		return false, fmt.Errorf("ask retry: %w", err)
	}
	return guard.IsAffirmative(answer), nil
}
