package guard

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/quailyquaily/cmdloop/internal/pathutil"
)

const defaultAuditRotateBytes = 100 * 1024 * 1024

// JSONLAuditSink appends one JSON object per approval decision and rotates the
// file to <path>.<timestamp> once it would exceed RotateMaxBytes.
type JSONLAuditSink struct {
	Path           string
	RotateMaxBytes int64

	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	size int64
}

func NewJSONLAuditSink(path string, rotateMaxBytes int64) (*JSONLAuditSink, error) {
	path = pathutil.ExpandHomePath(path)
	if path == "" {
		return nil, fmt.Errorf("missing jsonl path")
	}
	if rotateMaxBytes <= 0 {
		rotateMaxBytes = defaultAuditRotateBytes
	}
	s := &JSONLAuditSink{Path: path, RotateMaxBytes: rotateMaxBytes}
	if err := s.openLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONLAuditSink) Emit(_ context.Context, e AuditEvent) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rotateIfNeededLocked(int64(len(b))); err != nil {
		return err
	}
	if s.w == nil {
		return fmt.Errorf("audit sink is closed")
	}
	n, err := s.w.Write(b)
	s.size += int64(n)
	if err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *JSONLAuditSink) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *JSONLAuditSink) closeLocked() error {
	if s.w != nil {
		_ = s.w.Flush()
	}
	var err error
	if s.f != nil {
		err = s.f.Close()
	}
	s.f, s.w, s.size = nil, nil, 0
	return err
}

func (s *JSONLAuditSink) openLocked() error {
	if err := pathutil.EnsureParentDir(s.Path); err != nil {
		return err
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if st, err := f.Stat(); err == nil {
		s.size = st.Size()
	}
	s.f = f
	s.w = bufio.NewWriterSize(f, 64*1024)
	return nil
}

func (s *JSONLAuditSink) rotateIfNeededLocked(addBytes int64) error {
	if s.RotateMaxBytes <= 0 || s.size == 0 || s.size+addBytes <= s.RotateMaxBytes {
		return nil
	}
	_ = s.closeLocked()

	rotated := s.Path + "." + time.Now().UTC().Format("20060102T150405.000000000Z")
	// If rename fails, keep appending to the current file.
	_ = os.Rename(s.Path, rotated)
	return s.openLocked()
}
