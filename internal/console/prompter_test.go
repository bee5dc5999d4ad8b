package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestPrompter_ReadsLines(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("yes\r\n\nuse pnpm instead\nlast"), &out)
	ctx := context.Background()

	want := []string{"yes", "", "use pnpm instead", "last"}
	for i, w := range want {
		got, err := p.Ask(ctx, "Can I execute the command?")
		if err != nil {
			t.Fatalf("Ask #%d: %v", i, err)
		}
		if got != w {
			t.Fatalf("Ask #%d = %q, want %q", i, got, w)
		}
	}
	if _, err := p.Ask(ctx, "again?"); !errors.Is(err, ErrInputClosed) {
		t.Fatalf("expected ErrInputClosed, got %v", err)
	}
	if !strings.Contains(out.String(), "Can I execute the command?") {
		t.Fatalf("prompt not written: %q", out.String())
	}
}

func TestPrompter_ContextCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := NewPrompter(r, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := p.Ask(ctx, "hello?"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
