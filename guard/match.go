package guard

import "strings"

// DeniedToken returns the first deny token found in cmd at a token boundary.
func DeniedToken(cmd string, tokens []string) (string, bool) {
	lower := strings.ToLower(cmd)
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if containsTokenBoundary(lower, tok) {
			return tok, true
		}
	}
	return "", false
}

// MatchesPrefix reports whether cmd starts with one of prefixes, where a
// prefix must end at a word boundary ("ls" matches "ls -la" but not "lsof").
// A command chained with ;, &&, || or | never matches.
func MatchesPrefix(cmd string, prefixes []string) bool {
	norm := NormalizeCommand(cmd)
	if norm == "" || strings.ContainsAny(norm, ";|&`") || strings.Contains(norm, "$(") {
		return false
	}
	for _, p := range prefixes {
		p = NormalizeCommand(p)
		if p == "" || !strings.HasPrefix(norm, p) {
			continue
		}
		if len(norm) == len(p) || norm[len(p)] == ' ' {
			return true
		}
	}
	return false
}

func containsTokenBoundary(s, needle string) bool {
	if needle == "" {
		return false
	}
	for from := 0; from <= len(s)-len(needle); {
		i := strings.Index(s[from:], needle)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(needle)
		if isTokenBoundary(s, start-1) && isTokenBoundary(s, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func isTokenBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	switch s[i] {
	case ' ', '\t', '\n', '\r', '"', '\'', '/', '<', '>', '|', ';', '&', '=', '(', ')', '`':
		return true
	}
	return false
}
