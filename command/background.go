package command

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Process is a child started by the Executor. Processes with a CommandID
// are tracked by Background for as long as they run.
type Process struct {
	ID        string
	Command   string
	PID       int
	StartedAt time.Time

	out  *tailBuffer
	done chan struct{}

	mu       sync.Mutex
	exitCode int
}

func (p *Process) Output() string { return p.out.String() }

// Done is closed once the process has exited and its output is drained.
func (p *Process) Done() <-chan struct{} { return p.done }

func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// ExitCode is only meaningful after Done is closed.
func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

func (p *Process) finish(code int) {
	p.mu.Lock()
	p.exitCode = code
	p.mu.Unlock()
	close(p.done)
}

// Background tracks named processes so that starting a command with an id
// replaces the previous process with that id.
type Background struct {
	term *Terminator
	log  *slog.Logger

	mu    sync.Mutex
	procs map[string]*Process
}

func NewBackground(term *Terminator, log *slog.Logger) *Background {
	if log == nil {
		log = slog.Default()
	}
	return &Background{term: term, log: log, procs: make(map[string]*Process)}
}

// Register tracks p under its ID, terminating whatever ran under that id before.
func (b *Background) Register(p *Process) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return
	}
	b.mu.Lock()
	prev := b.procs[id]
	b.procs[id] = p
	b.mu.Unlock()

	if prev != nil && prev != p && !prev.Exited() {
		b.log.Info("background_replace", "command_id", id, "old_pid", prev.PID, "new_pid", p.PID)
		b.term.Terminate(prev.PID)
	}
}

func (b *Background) Get(id string) (*Process, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.procs[strings.TrimSpace(id)]
	return p, ok
}

// Terminate stops the process registered under id. It reports whether a
// running process was found.
func (b *Background) Terminate(id string) bool {
	id = strings.TrimSpace(id)
	b.mu.Lock()
	p := b.procs[id]
	delete(b.procs, id)
	b.mu.Unlock()

	if p == nil || p.Exited() {
		return false
	}
	b.log.Info("background_terminate", "command_id", id, "pid", p.PID)
	b.term.Terminate(p.PID)
	return true
}

// TerminateAll stops every tracked process. Call it on shutdown.
func (b *Background) TerminateAll() {
	for _, p := range b.List() {
		b.Terminate(p.ID)
	}
}

// List returns the tracked processes ordered by id.
func (b *Background) List() []*Process {
	b.mu.Lock()
	out := make([]*Process, 0, len(b.procs))
	for _, p := range b.procs {
		out = append(out, p)
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// release forgets p once it has exited, unless a newer process took its id.
func (b *Background) release(p *Process) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.procs[p.ID]; ok && cur == p {
		delete(b.procs, p.ID)
	}
}
