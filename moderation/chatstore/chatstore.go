// Package chatstore holds implementations of the moderation.TargetRegistry
// interface: an in-memory registry for tests and small deployments, and a
// gorm-backed one for the daemon.
package chatstore

import (
	"context"
	"sync"

	"github.com/groupwarden/warden/moderation"
)

type MemRegistry struct {
	lk    sync.RWMutex
	chats map[int64]moderation.Target
}

func NewMemRegistry(targets ...moderation.Target) *MemRegistry {
	r := &MemRegistry{chats: make(map[int64]moderation.Target)}
	for _, t := range targets {
		r.chats[t.ID] = t
	}
	return r
}

func (r *MemRegistry) Add(t moderation.Target) {
	r.lk.Lock()
	defer r.lk.Unlock()
	r.chats[t.ID] = t
}

func (r *MemRegistry) Remove(chatID int64) {
	r.lk.Lock()
	defer r.lk.Unlock()
	delete(r.chats, chatID)
}

func (r *MemRegistry) ListActive(ctx context.Context) ([]moderation.Target, error) {
	r.lk.RLock()
	defer r.lk.RUnlock()
	out := make([]moderation.Target, 0, len(r.chats))
	for _, t := range r.chats {
		out = append(out, t)
	}
	return out, nil
}
