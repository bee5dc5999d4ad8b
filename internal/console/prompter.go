// Package console is the terminal side of the approval and debugging
// conversation with the human.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/quailyquaily/cmdloop/internal/clifmt"
)

var ErrInputClosed = errors.New("input closed before an answer was given")

type line struct {
	text string
	err  error
}

// Prompter asks questions on out and reads one line answers from in. It
// implements guard.Asker. A closed input is an error, never an empty answer,
// since an empty answer approves the command.
type Prompter struct {
	in  io.Reader
	out io.Writer

	once  sync.Once
	lines chan line
	mu    sync.Mutex
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

func (p *Prompter) Ask(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.once.Do(p.startReader)

	fmt.Fprintf(p.out, "\n%s\n%s ", strings.TrimRight(prompt, "\n"), clifmt.Key(">"))

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case l, ok := <-p.lines:
		if !ok {
			return "", ErrInputClosed
		}
		if l.err != nil {
			return "", l.err
		}
		return l.text, nil
	}
}

// startReader reads lines in the background so Ask can honor ctx while
// stdin blocks.
func (p *Prompter) startReader() {
	p.lines = make(chan line)
	go func() {
		defer close(p.lines)
		r := bufio.NewReader(p.in)
		for {
			s, err := r.ReadString('\n')
			if err != nil {
				if s != "" {
					p.lines <- line{text: strings.TrimRight(s, "\r\n")}
				}
				if !errors.Is(err, io.EOF) {
					p.lines <- line{err: fmt.Errorf("read answer: %w", err)}
				}
				return
			}
			p.lines <- line{text: strings.TrimRight(s, "\r\n")}
		}
	}()
}
