package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeJSONOmitsKeysThatDoNotApply(t *testing.T) {
	cases := []struct {
		name    string
		outcome Outcome
		want    map[string]any
	}{
		{
			name:    "success",
			outcome: Success{CLIResponse: "hello", Ran: true},
			want:    map[string]any{"success": true, "cli_response": "hello"},
		},
		{
			name:    "success_empty_output_keeps_key",
			outcome: Success{Ran: true},
			want:    map[string]any{"success": true, "cli_response": ""},
		},
		{
			name:    "bare_rejection",
			outcome: Success{},
			want:    map[string]any{"success": true},
		},
		{
			name:    "rejected_by_user",
			outcome: RejectedByUser{UserInput: "ping 8.8.8.8 instead"},
			want:    map[string]any{"success": false, "user_input": "ping 8.8.8.8 instead"},
		},
		{
			name:    "failed",
			outcome: Failed{CLIResponse: "error", Attempts: 1, Reason: ReasonUnresolved},
			want:    map[string]any{"success": false, "cli_response": "error", "attempts": float64(1), "reason": "unresolved"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.outcome)
			require.NoError(t, err)
			var got map[string]any
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tc.want, got)
		})
	}
}
