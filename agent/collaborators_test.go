package agent

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quailyquaily/cmdloop/command"
	"github.com/quailyquaily/cmdloop/guard"
	"github.com/quailyquaily/cmdloop/llm"
)

type recordingExecutor struct {
	specs  []command.Spec
	result func(spec command.Spec) command.Result
}

func (r *recordingExecutor) Execute(_ context.Context, spec command.Spec) (command.Result, error) {
	r.specs = append(r.specs, spec)
	return r.result(spec), nil
}

func failureContext() FailureContext {
	spec := command.Spec{Command: "npm test", Dir: "/tmp/project"}
	res := command.Completed{Output: "Cannot find module 'jest'", ExitCode: 1}
	return FailureContext{
		Spec:   spec,
		Result: res,
		Report: newReport("run", spec, res, 1, 3),
		Reply:  "jest is not installed",
	}
}

func TestLLMDebugger(t *testing.T) {
	cases := []struct {
		name     string
		reply    string
		exitCode int
		want     bool
		ran      []string
	}{
		{
			name:  "fix_commands_succeed",
			reply: "Sure:\n```json\n{\"resolved\": true, \"commands\": [\"npm install --save-dev jest\", \"  \"], \"explanation\": \"jest missing\"}\n```",
			want:  true,
			ran:   []string{"npm install --save-dev jest"},
		},
		{
			name:     "fix_command_fails",
			reply:    `{"resolved": true, "commands": ["npm install jest"]}`,
			exitCode: 1,
			want:     false,
			ran:      []string{"npm install jest"},
		},
		{
			name:  "no_commands_resolved",
			reply: `{"resolved": true, "commands": []}`,
			want:  true,
		},
		{
			name:  "gives_up",
			reply: `{"resolved": false, "commands": [], "explanation": "needs a network"}`,
			want:  false,
		},
		{
			name:  "no_json",
			reply: "I am not sure what happened.",
			want:  false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req llm.Request
			client := llm.ClientFunc(func(_ context.Context, r llm.Request) (llm.Result, error) {
				req = r
				return llm.Result{Text: tc.reply}, nil
			})
			exec := &recordingExecutor{result: func(command.Spec) command.Result {
				return command.Completed{ExitCode: tc.exitCode}
			}}
			d := LLMDebugger{Client: client, Model: "m", Exec: exec}

			got, err := d.Debug(context.Background(), failureContext())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			assert.True(t, req.ForceJSON)
			require.Len(t, req.Messages, 2)
			assert.Contains(t, req.Messages[1].Content, "Cannot find module 'jest'")
			assert.Contains(t, req.Messages[1].Content, "jest is not installed")

			var ran []string
			for _, s := range exec.specs {
				ran = append(ran, s.Command)
				assert.Equal(t, "/tmp/project", s.Dir)
				assert.False(t, s.Force)
			}
			assert.Equal(t, tc.ran, ran)
		})
	}
}

func TestLLMDebugger_RejectedFixStops(t *testing.T) {
	client := llm.ClientFunc(func(context.Context, llm.Request) (llm.Result, error) {
		return llm.Result{Text: `{"resolved": true, "commands": ["rm -rf node_modules", "npm install"]}`}, nil
	})
	exec := &recordingExecutor{result: func(command.Spec) command.Result { return command.Rejected{} }}
	d := LLMDebugger{Client: client, Exec: exec}

	got, err := d.Debug(context.Background(), failureContext())
	require.NoError(t, err)
	assert.False(t, got)
	assert.Len(t, exec.specs, 1)
}

func TestLLMDebugger_ClientError(t *testing.T) {
	boom := errors.New("rate limited")
	client := llm.ClientFunc(func(context.Context, llm.Request) (llm.Result, error) { return llm.Result{}, boom })
	d := LLMDebugger{Client: client, Exec: &recordingExecutor{}}

	_, err := d.Debug(context.Background(), failureContext())
	assert.ErrorIs(t, err, boom)
}

func TestLLMMessenger(t *testing.T) {
	client := llm.ClientFunc(func(_ context.Context, r llm.Request) (llm.Result, error) {
		assert.Equal(t, "gpt-test", r.Model)
		assert.Equal(t, llm.RoleSystem, r.Messages[0].Role)
		assert.Contains(t, r.Messages[1].Content, "exited with code 1")
		return llm.Result{Text: "  jest is missing \n"}, nil
	})
	m := LLMMessenger{Client: client, Model: "gpt-test"}

	reply, err := m.Send(context.Background(), failureContext().Report)
	require.NoError(t, err)
	assert.Equal(t, "jest is missing", reply)
}

func TestHumanDebugger(t *testing.T) {
	cases := []struct {
		answer string
		want   bool
	}{
		{answer: "", want: true},
		{answer: "yes", want: true},
		{answer: "no", want: false},
		{answer: "I can't fix this", want: false},
	}
	for _, tc := range cases {
		var prompt string
		d := HumanDebugger{Asker: guard.AskerFunc(func(_ context.Context, p string) (string, error) {
			prompt = p
			return tc.answer, nil
		})}
		got, err := d.Debug(context.Background(), failureContext())
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "answer %q", tc.answer)
		assert.Contains(t, prompt, "`npm test`")
	}

	_, err := HumanDebugger{}.Debug(context.Background(), failureContext())
	assert.ErrorIs(t, err, guard.ErrNoAsker)
}

func TestConsoleMessenger(t *testing.T) {
	var out bytes.Buffer
	reply, err := ConsoleMessenger{Out: &out}.Send(context.Background(), failureContext().Report)
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Contains(t, out.String(), "command `npm test` exited with code 1 (attempt 1/3)")
	assert.Contains(t, out.String(), "Cannot find module 'jest'")
}
