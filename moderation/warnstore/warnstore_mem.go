package warnstore

import (
	"context"
	"sync"
)

type MemWarnStore struct {
	lk     sync.Mutex
	counts map[int64]int
}

func NewMemWarnStore() *MemWarnStore {
	return &MemWarnStore{
		counts: make(map[int64]int),
	}
}

func (s *MemWarnStore) Add(ctx context.Context, userID int64) (int, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.counts[userID]++
	return s.counts[userID], nil
}

func (s *MemWarnStore) Count(ctx context.Context, userID int64) (int, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	return s.counts[userID], nil
}

func (s *MemWarnStore) Reset(ctx context.Context, userID int64) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	delete(s.counts, userID)
	return nil
}
