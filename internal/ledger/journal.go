package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/model"
	"github.com/tradedesk/sim-engine/internal/store"
)

// Journal is the append-only wallet audit log. Only live-mode mutations are
// recorded; demo activity leaves no trail. Entries are mirrored to the store
// best-effort so a configured database keeps a durable copy.
type Journal struct {
	st store.Store
}

// NewJournal creates a journal writing through the given store.
func NewJournal(st store.Store) *Journal {
	return &Journal{st: st}
}

// Record appends an audit entry for a live-mode mutation. Demo-mode calls
// are no-ops, so engines can record unconditionally after settling.
func (j *Journal) Record(mode model.Mode, typ model.TransactionType, desc string, amount decimal.Decimal, currency string) {
	if mode != model.ModeLive {
		return
	}
	tx := model.WalletTransaction{
		ID:          uuid.New().String(),
		Timestamp:   time.Now(),
		Type:        typ,
		Description: desc,
		Amount:      amount,
		Currency:    currency,
	}
	if err := j.st.InsertTransaction(context.Background(), &tx); err != nil {
		slog.Error("journal insert failed", "type", typ, "error", err)
		return
	}
	slog.Info("journal entry",
		"type", typ, "amount", amount, "currency", currency, "description", desc)
}

// List returns the journal, newest first.
func (j *Journal) List(ctx context.Context) ([]model.WalletTransaction, error) {
	return j.st.ListTransactions(ctx)
}
