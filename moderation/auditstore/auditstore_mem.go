package auditstore

import (
	"context"
	"sync"
	"time"
)

type MemAuditStore struct {
	lk      sync.Mutex
	entries []Entry
}

func NewMemAuditStore() *MemAuditStore {
	return &MemAuditStore{}
}

func (s *MemAuditStore) Record(ctx context.Context, entry *Entry) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	e := *entry
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.entries = append(s.entries, e)
	return nil
}

// Returns a copy of all recorded entries, oldest first.
func (s *MemAuditStore) Entries() []Entry {
	s.lk.Lock()
	defer s.lk.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
