package command

// ExitSpawnFailed is the exit code reported when the shell could not be started.
const ExitSpawnFailed = -1

// Legacy control signals, see Signal.
const (
	SignalDone     = "DONE"
	SignalTimedOut = "timed out"
)

// Result is one of Completed, TimedOut, Rejected or Launched.
type Result interface {
	isResult()
}

// Completed means the process exited on its own (or never started, see
// ExitSpawnFailed).
type Completed struct {
	Output   string
	ExitCode int
}

// TimedOut means the process was killed after exceeding its timeout.
// Output holds whatever was captured before that.
type TimedOut struct {
	Output string
}

// Rejected means the approval gate said no. An empty Message is a bare
// rejection; otherwise it is the human's instruction verbatim. Policy is
// set when a deny rule refused the command and Message is the rule's text.
type Rejected struct {
	Message string
	Policy  bool
}

// Launched means a CommandID process was left running in the background.
type Launched struct {
	Output string
	PID    int
}

func (Completed) isResult() {}
func (TimedOut) isResult()  {}
func (Rejected) isResult()  {}
func (Launched) isResult()  {}

// Signal renders r as the single control string older callers expect:
// "" for a completed run, "DONE" for a bare rejection or a launched process,
// "timed out", or the human's free text.
func Signal(r Result) string {
	switch v := r.(type) {
	case Rejected:
		if v.Message == "" {
			return SignalDone
		}
		return v.Message
	case Launched:
		return SignalDone
	case TimedOut:
		return SignalTimedOut
	default:
		return ""
	}
}

// ExitCode reports the exit code of a Completed result.
func ExitCode(r Result) (int, bool) {
	if c, ok := r.(Completed); ok {
		return c.ExitCode, true
	}
	return 0, false
}

// Output returns the captured output of r, if any.
func Output(r Result) string {
	switch v := r.(type) {
	case Completed:
		return v.Output
	case TimedOut:
		return v.Output
	case Launched:
		return v.Output
	default:
		return ""
	}
}
