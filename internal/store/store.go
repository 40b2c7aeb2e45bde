// Package store defines the persistence interface for the settlement engine.
// Only two things survive a restart: the user profile and the wallet audit
// journal. Implementations include PostgreSQL (source of truth), Redis
// (read-through cache), and in-memory (default and testing).
package store

import (
	"context"
	"errors"

	"github.com/tradedesk/sim-engine/internal/model"
)

// ErrProfileNotFound is returned when no profile has been saved yet.
var ErrProfileNotFound = errors.New("store: profile not found")

// Store is the persistence interface.
type Store interface {
	// GetProfile returns the persisted user profile.
	GetProfile(ctx context.Context) (*model.UserProfile, error)

	// SaveProfile creates or replaces the user profile.
	SaveProfile(ctx context.Context, p *model.UserProfile) error

	// InsertTransaction appends an immutable wallet journal record.
	InsertTransaction(ctx context.Context, tx *model.WalletTransaction) error

	// ListTransactions returns the journal, newest first.
	ListTransactions(ctx context.Context) ([]model.WalletTransaction, error)
}
