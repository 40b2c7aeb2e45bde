package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradedesk/sim-engine/internal/model"
)

const (
	profileKey = "profile:me"
	journalKey = "journal:all"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (s *CachedStore) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	// Try cache.
	data, err := s.rdb.Get(ctx, profileKey).Bytes()
	if err == nil {
		var p model.UserProfile
		if json.Unmarshal(data, &p) == nil {
			return &p, nil
		}
	}

	// Cache miss: read from primary.
	p, err := s.primary.GetProfile(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		s.rdb.Set(ctx, profileKey, data, s.ttl)
	}
	return p, nil
}

func (s *CachedStore) SaveProfile(ctx context.Context, p *model.UserProfile) error {
	if err := s.primary.SaveProfile(ctx, p); err != nil {
		return err
	}
	// Invalidate cache; next read will re-populate.
	s.rdb.Del(ctx, profileKey)
	return nil
}

func (s *CachedStore) InsertTransaction(ctx context.Context, tx *model.WalletTransaction) error {
	if err := s.primary.InsertTransaction(ctx, tx); err != nil {
		return err
	}
	s.rdb.Del(ctx, journalKey)
	return nil
}

func (s *CachedStore) ListTransactions(ctx context.Context) ([]model.WalletTransaction, error) {
	data, err := s.rdb.Get(ctx, journalKey).Bytes()
	if err == nil {
		var txs []model.WalletTransaction
		if json.Unmarshal(data, &txs) == nil {
			return txs, nil
		}
	}

	txs, err := s.primary.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(txs); err == nil {
		s.rdb.Set(ctx, journalKey, data, s.ttl)
	}
	return txs, nil
}
