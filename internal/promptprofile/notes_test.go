package promptprofile

import (
	"os"
	"strings"
	"testing"
)

func TestLoadNotes(t *testing.T) {
	dir := t.TempDir()
	path := NotesPath(dir)

	if got := LoadNotes(path, nil); got != "" {
		t.Fatalf("expected empty notes for missing file, got %q", got)
	}

	if err := os.WriteFile(path, []byte("Use pnpm, never npm.\n"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}
	if got := LoadNotes(path, nil); got != "Use pnpm, never npm." {
		t.Fatalf("unexpected notes: %q", got)
	}
}

func TestLoadNotes_DraftSkipped(t *testing.T) {
	path := NotesPath(t.TempDir())
	content := "---\nstatus: draft\n---\nUse pnpm.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}
	if got := LoadNotes(path, nil); got != "" {
		t.Fatalf("expected draft notes to be skipped, got %q", got)
	}
}

func TestCompose(t *testing.T) {
	if got := Compose(" base ", ""); got != "base" {
		t.Fatalf("unexpected prompt without notes: %q", got)
	}
	got := Compose("base", "Use pnpm.")
	if !strings.HasPrefix(got, "base\n\n## Project notes") || !strings.HasSuffix(got, "Use pnpm.") {
		t.Fatalf("unexpected composed prompt: %q", got)
	}
}

func TestLoadNotes_FrontmatterStripped(t *testing.T) {
	path := NotesPath(t.TempDir())
	content := "---\nstatus: ready\n---\n\nRun make deps first.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}
	if got := LoadNotes(path, nil); got != "Run make deps first." {
		t.Fatalf("unexpected notes: %q", got)
	}
}

func TestParseFrontmatter(t *testing.T) {
	cases := []struct {
		name      string
		in        string
		wantOK    bool
		wantDraft bool
		wantBody  string
	}{
		{name: "none", in: "# notes\n", wantOK: false, wantBody: "# notes\n"},
		{name: "unterminated", in: "---\nstatus: draft\n", wantOK: false, wantBody: "---\nstatus: draft\n"},
		{name: "draft", in: "---\nstatus: Draft\n---\nbody", wantOK: true, wantDraft: true, wantBody: "body"},
		{name: "crlf", in: "---\r\nstatus: ready\r\n---\r\nbody", wantOK: true, wantBody: "body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fm, body, ok := ParseFrontmatter(tc.in)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if fm.Draft() != tc.wantDraft {
				t.Fatalf("draft = %v, want %v", fm.Draft(), tc.wantDraft)
			}
			if body != tc.wantBody {
				t.Fatalf("body = %q, want %q", body, tc.wantBody)
			}
		})
	}
}
