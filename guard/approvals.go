package guard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// ApprovalStore persists approval records. Implementations must treat a
// missing identity as (zero record, false, nil).
type ApprovalStore interface {
	Get(ctx context.Context, identity string) (ApprovalRecord, bool, error)
	Set(ctx context.Context, rec ApprovalRecord) error
	List(ctx context.Context) ([]ApprovalRecord, error)
	Delete(ctx context.Context, identity string) error
}

type MemoryApprovalStore struct {
	mu   sync.RWMutex
	recs map[string]ApprovalRecord
}

func NewMemoryApprovalStore() *MemoryApprovalStore {
	return &MemoryApprovalStore{recs: make(map[string]ApprovalRecord)}
}

func (s *MemoryApprovalStore) Get(_ context.Context, identity string) (ApprovalRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[strings.TrimSpace(identity)]
	return rec, ok, nil
}

func (s *MemoryApprovalStore) Set(_ context.Context, rec ApprovalRecord) error {
	id := strings.TrimSpace(rec.Identity)
	if id == "" {
		return fmt.Errorf("missing approval identity")
	}
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.recs[id]; ok && !prev.CreatedAt.IsZero() {
		rec.CreatedAt = prev.CreatedAt
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.Identity = id
	s.recs[id] = rec
	return nil
}

func (s *MemoryApprovalStore) List(_ context.Context) ([]ApprovalRecord, error) {
	s.mu.RLock()
	out := make([]ApprovalRecord, 0, len(s.recs))
	for _, rec := range s.recs {
		out = append(out, rec)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}

func (s *MemoryApprovalStore) Delete(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, strings.TrimSpace(identity))
	return nil
}

var _ ApprovalStore = (*MemoryApprovalStore)(nil)
