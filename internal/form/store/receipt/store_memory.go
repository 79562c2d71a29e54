package receipt

import (
	"context"
	"slices"
	"sync"
)

// InMemoryStore is a process-local Store used when Redis is not configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	receipts map[string][]Receipt
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{receipts: make(map[string][]Receipt)}
}

func (s *InMemoryStore) Append(_ context.Context, r Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[r.SessionID] = append(s.receipts[r.SessionID], r)
	return nil
}

// List returns an empty slice for unknown sessions.
func (s *InMemoryStore) List(_ context.Context, sessionID string) ([]Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.receipts[sessionID])
	if out == nil {
		out = []Receipt{}
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.receipts, sessionID)
	return nil
}
