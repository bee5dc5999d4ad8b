package tracing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesSpansToFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "spans.jsonl")
	if err := Init("cmdloop", "test", fname); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	_, span := Tracer().Start(context.Background(), "run_until_success")
	span.End()
	if err := Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(data), "run_until_success") {
		t.Fatalf("span not written to trace file: %q", string(data))
	}
}
