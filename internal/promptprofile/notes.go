// Package promptprofile loads the optional per-project notes that are
// appended to the model's system prompt when it debugs a failing command.
package promptprofile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const NotesFile = "DEBUGGING.md"

func NotesPath(dir string) string {
	return filepath.Join(dir, NotesFile)
}

// LoadNotes returns the notes at path without their front matter, or ""
// when the file is missing or marked "status: draft".
func LoadNotes(path string, log *slog.Logger) string {
	if log == nil {
		log = slog.Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("prompt_notes_load_failed", "path", path, "error", err.Error())
		}
		return ""
	}
	fm, body, _ := ParseFrontmatter(string(raw))
	if fm.Draft() {
		return ""
	}
	return strings.TrimSpace(body)
}

// Compose appends notes to a base system prompt.
func Compose(base string, notes string) string {
	base = strings.TrimSpace(base)
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n## Project notes\n")
	b.WriteString("The user keeps these notes about building and running this project:\n\n")
	b.WriteString(notes)
	return b.String()
}
