package guard

import "strings"

var affirmativeAnswers = map[string]bool{
	"":           true,
	"y":          true,
	"yes":        true,
	"ok":         true,
	"okay":       true,
	"sure":       true,
	"absolutely": true,
	"indeed":     true,
	"correct":    true,
	"confirmed":  true,
}

var negativeAnswers = map[string]bool{
	"n":        true,
	"no":       true,
	"skip":     true,
	"negative": true,
	"not now":  true,
	"cancel":   true,
	"decline":  true,
	"stop":     true,
}

// ClassifyAnswer maps a human reply to a verdict. Anything that is neither a
// plain yes nor a plain no is treated as a rejection that carries the reply
// verbatim ("no, ping 8.8.8.8 instead").
func ClassifyAnswer(answer string) Verdict {
	text := strings.TrimSpace(answer)
	key := strings.ToLower(strings.TrimRight(text, ".! "))
	switch {
	case affirmativeAnswers[key]:
		return Verdict{Decision: DecisionApproved}
	case negativeAnswers[key]:
		return Verdict{Decision: DecisionRejected}
	default:
		return Verdict{Decision: DecisionRejectedMessage, Message: text}
	}
}

// IsAffirmative reports whether answer approves, using the same vocabulary as the gate.
func IsAffirmative(answer string) bool {
	return ClassifyAnswer(answer).Decision == DecisionApproved
}
