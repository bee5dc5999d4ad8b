package jsonutil

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/quailyquaily/uniai"
)

var (
	ErrEmptyInput   = errors.New("empty json input")
	ErrNoJSONObject = errors.New("no json object found")
)

// FindObject locates the first JSON object in text. Model replies often wrap
// the payload in prose or code fences, so candidates collected by uniai are
// tried in order, each also in stripped and repaired form.
func FindObject(text string) ([]byte, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, ErrEmptyInput
	}

	var lastErr error
	for _, cand := range candidates(raw) {
		for _, v := range variants(cand) {
			var obj map[string]any
			if err := json.Unmarshal([]byte(v), &obj); err != nil {
				lastErr = err
				continue
			}
			return []byte(v), nil
		}
	}
	if lastErr != nil {
		return nil, errors.Join(ErrNoJSONObject, lastErr)
	}
	return nil, ErrNoJSONObject
}

// DecodeObject finds a JSON object in text and unmarshals it into dst.
func DecodeObject(text string, dst any) error {
	data, err := FindObject(text)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func candidates(raw string) []string {
	var out []string
	seen := make(map[string]bool, 8)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	add(raw)
	if cands, err := uniai.CollectJSONCandidates(raw); err == nil {
		for _, c := range cands {
			add(c)
		}
	}
	for _, c := range uniai.FindJSONSnippets(raw) {
		add(c)
	}
	return out
}

func variants(candidate string) []string {
	stripped := strings.TrimSpace(uniai.StripNonJSONLines(candidate))
	out := []string{
		candidate,
		stripped,
		strings.TrimSpace(uniai.AttemptJSONRepair(candidate)),
	}
	if stripped != "" && stripped != candidate {
		out = append(out, strings.TrimSpace(uniai.AttemptJSONRepair(stripped)))
	}
	return out
}
