package truststore

import (
	"context"
	"sync"
)

type MemTrustStore struct {
	lk sync.RWMutex
	// global per-user flag
	trusted map[int64]bool
	// userID -> set of chatIDs with a scoped grant
	chatGrants map[int64]map[int64]bool
}

func NewMemTrustStore() *MemTrustStore {
	return &MemTrustStore{
		trusted:    make(map[int64]bool),
		chatGrants: make(map[int64]map[int64]bool),
	}
}

func (s *MemTrustStore) IsTrusted(ctx context.Context, userID int64) (bool, error) {
	s.lk.RLock()
	defer s.lk.RUnlock()
	if s.trusted[userID] {
		return true, nil
	}
	return len(s.chatGrants[userID]) > 0, nil
}

func (s *MemTrustStore) SetTrusted(ctx context.Context, userID int64, trusted bool) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	if trusted {
		s.trusted[userID] = true
	} else {
		delete(s.trusted, userID)
	}
	return nil
}

func (s *MemTrustStore) SetTrustedInChat(ctx context.Context, userID, chatID int64) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	m, ok := s.chatGrants[userID]
	if !ok {
		m = make(map[int64]bool)
		s.chatGrants[userID] = m
	}
	m[chatID] = true
	return nil
}

func (s *MemTrustStore) ExpireTrustsForUser(ctx context.Context, userID int64, chatID *int64) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	if chatID != nil {
		if m, ok := s.chatGrants[userID]; ok {
			delete(m, *chatID)
		}
		return nil
	}
	delete(s.trusted, userID)
	delete(s.chatGrants, userID)
	return nil
}
