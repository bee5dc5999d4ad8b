package guard

import "testing"

func TestClassifyAnswer(t *testing.T) {
	cases := []struct {
		name     string
		answer   string
		decision Decision
		message  string
	}{
		{name: "empty", answer: "", decision: DecisionApproved},
		{name: "enter_with_newline", answer: "\n", decision: DecisionApproved},
		{name: "yes", answer: "yes", decision: DecisionApproved},
		{name: "yes_upper", answer: "YES", decision: DecisionApproved},
		{name: "ok_punct", answer: "ok!", decision: DecisionApproved},
		{name: "no", answer: "no", decision: DecisionRejected},
		{name: "no_dot", answer: "No.", decision: DecisionRejected},
		{name: "not_now", answer: "not now", decision: DecisionRejected},
		{
			name:     "no_with_text",
			answer:   "no, my DNS is not working, ping 8.8.8.8 instead",
			decision: DecisionRejectedMessage,
			message:  "no, my DNS is not working, ping 8.8.8.8 instead",
		},
		{
			name:     "free_text",
			answer:   "  use pnpm instead of npm  ",
			decision: DecisionRejectedMessage,
			message:  "use pnpm instead of npm",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := ClassifyAnswer(tc.answer)
			if v.Decision != tc.decision {
				t.Fatalf("ClassifyAnswer(%q).Decision=%s, want %s", tc.answer, v.Decision, tc.decision)
			}
			if v.Message != tc.message {
				t.Fatalf("ClassifyAnswer(%q).Message=%q, want %q", tc.answer, v.Message, tc.message)
			}
		})
	}
}

func TestVerdictProceed(t *testing.T) {
	for _, d := range []Decision{DecisionForced, DecisionRemembered, DecisionAutoApproved, DecisionApproved} {
		if !(Verdict{Decision: d}).Proceed() {
			t.Fatalf("expected %s to proceed", d)
		}
	}
	for _, d := range []Decision{DecisionRejected, DecisionRejectedMessage, DecisionDenied} {
		if (Verdict{Decision: d}).Proceed() {
			t.Fatalf("expected %s not to proceed", d)
		}
	}
}
