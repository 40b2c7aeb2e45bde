package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	var p model.UserProfile
	err := s.pool.QueryRow(ctx,
		`SELECT username, first_name, last_name, email, profile_picture
		 FROM user_profile WHERE id = 1`).
		Scan(&p.Username, &p.FirstName, &p.LastName, &p.Email, &p.ProfilePicture)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, p *model.UserProfile) error {
	// Single-row upsert; the engine serves exactly one account.
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_profile (id, username, first_name, last_name, email, profile_picture)
		 VALUES (1, $1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET username = $1, first_name = $2, last_name = $3, email = $4, profile_picture = $5`,
		p.Username, p.FirstName, p.LastName, p.Email, p.ProfilePicture,
	)
	return err
}

func (s *PostgresStore) InsertTransaction(ctx context.Context, tx *model.WalletTransaction) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO wallet_transactions (id, timestamp, type, description, amount, currency)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6)`,
		tx.ID, tx.Timestamp, tx.Type, tx.Description, tx.Amount.String(), tx.Currency,
	)
	return err
}

func (s *PostgresStore) ListTransactions(ctx context.Context) ([]model.WalletTransaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, timestamp, type, description, amount::TEXT, currency
		 FROM wallet_transactions ORDER BY timestamp DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []model.WalletTransaction
	for rows.Next() {
		var tx model.WalletTransaction
		var amountS string
		if err := rows.Scan(&tx.ID, &tx.Timestamp, &tx.Type, &tx.Description,
			&amountS, &tx.Currency); err != nil {
			return nil, err
		}
		tx.Amount, _ = decimal.NewFromString(amountS)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
