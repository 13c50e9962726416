package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. sync.Map gives per-key atomic
// operations without a lock shared across sessions.
type MemoryStore struct {
	sessions sync.Map // session id -> int64 user id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context, id string) (int64, bool, error) {
	v, ok := s.sessions.Load(id)
	if !ok {
		return 0, false, nil
	}
	return v.(int64), true, nil
}

func (s *MemoryStore) Set(_ context.Context, id string, userID int64) error {
	s.sessions.Store(id, userID)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	_, loaded := s.sessions.LoadAndDelete(id)
	return loaded, nil
}
