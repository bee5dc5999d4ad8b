package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignal(t *testing.T) {
	cases := []struct {
		name string
		res  Result
		want string
	}{
		{name: "completed", res: Completed{Output: "x", ExitCode: 1}, want: ""},
		{name: "timed_out", res: TimedOut{Output: "x"}, want: "timed out"},
		{name: "bare_rejection", res: Rejected{}, want: "DONE"},
		{name: "rejection_text", res: Rejected{Message: "do y"}, want: "do y"},
		{name: "launched", res: Launched{PID: 1}, want: "DONE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Signal(tc.res))
		})
	}
}

func TestTailBuffer(t *testing.T) {
	b := newTailBuffer(4)
	_, _ = b.Write([]byte("ab"))
	_, _ = b.Write([]byte("你cd"))
	assert.Equal(t, "cd", b.String())

	for i := 0; i < 10; i++ {
		_, _ = b.Write([]byte("0123456789"))
	}
	assert.Equal(t, "6789", b.String())
	assert.False(t, b.Contains(""))
	assert.True(t, b.Contains("89"))
}
