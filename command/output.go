package command

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/quailyquaily/cmdloop/internal/strutil"
)

// DefaultMaxOutputBytes bounds the captured output of one command.
const DefaultMaxOutputBytes = 50000

// tailBuffer is the single writer shared by stdout and stderr. It keeps
// the last max bytes (plus slack so the tail can start on a rune boundary).
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if b.max > 0 && len(b.buf) > 2*b.max {
		keep := min(b.max+utf8.UTFMax, len(b.buf))
		b.buf = append(b.buf[:0:0], b.buf[len(b.buf)-keep:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	s := string(b.buf)
	b.mu.Unlock()
	if b.max > 0 {
		return strutil.TruncateUTF8Tail(s, b.max)
	}
	return s
}

func (b *tailBuffer) Contains(sub string) bool {
	if sub == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Contains(string(b.buf), sub)
}
