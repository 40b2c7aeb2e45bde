package store

import (
	"context"
	"sync"

	"github.com/tradedesk/sim-engine/internal/model"
)

// MemoryStore implements Store with in-memory state. Used when no
// DATABASE_URL is configured and in tests. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	profile *model.UserProfile
	journal []model.WalletTransaction
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) GetProfile(_ context.Context) (*model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return nil, ErrProfileNotFound
	}
	copy := *s.profile
	return &copy, nil
}

func (s *MemoryStore) SaveProfile(_ context.Context, p *model.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *p
	s.profile = &copy
	return nil
}

func (s *MemoryStore) InsertTransaction(_ context.Context, tx *model.WalletTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.journal = append(s.journal, *tx)
	return nil
}

func (s *MemoryStore) ListTransactions(_ context.Context) ([]model.WalletTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest first.
	out := make([]model.WalletTransaction, 0, len(s.journal))
	for i := len(s.journal) - 1; i >= 0; i-- {
		out = append(out, s.journal[i])
	}
	return out, nil
}
