// Package ledger holds the per-mode balance books, the wallet asset
// registry, cross-currency conversion, and the append-only audit journal.
package ledger

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/model"
	"github.com/tradedesk/sim-engine/internal/reject"
)

// Book maintains two independent multi-currency balance maps, one per
// account mode, plus the currently active mode. Demo and live funds never
// mix; every operation addresses one mode explicitly.
type Book struct {
	mu       sync.RWMutex
	balances map[model.Mode]map[string]decimal.Decimal
	mode     model.Mode
}

// NewBook creates an empty book with demo as the active mode.
func NewBook() *Book {
	return &Book{
		balances: map[model.Mode]map[string]decimal.Decimal{
			model.ModeDemo: {},
			model.ModeLive: {},
		},
		mode: model.ModeDemo,
	}
}

// Mode returns the currently active account mode.
func (b *Book) Mode() model.Mode {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mode
}

// SetMode switches the active account mode.
func (b *Book) SetMode(m model.Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: unknown mode %q", reject.ErrInvalidInput, m)
	}
	b.mu.Lock()
	b.mode = m
	b.mu.Unlock()
	return nil
}

// Balance returns the balance for one currency in one mode. Unknown
// currencies read as zero.
func (b *Book) Balance(mode model.Mode, currency string) decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[mode][currency]
}

// Balances returns a copy of one mode's full balance map.
func (b *Book) Balances(mode model.Mode) map[string]decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(b.balances[mode]))
	for cur, amt := range b.balances[mode] {
		out[cur] = amt
	}
	return out
}

// Seed sets a currency balance directly. Used at startup for demo seeding
// and by tests; normal flow goes through Credit and Debit.
func (b *Book) Seed(mode model.Mode, currency string, amount decimal.Decimal) {
	b.mu.Lock()
	b.balances[mode][currency] = amount
	b.mu.Unlock()
}

// Credit adds amount to a currency balance. Negative credits are rejected;
// refunds and payouts are always expressed as positive credits.
func (b *Book) Credit(mode model.Mode, currency string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: negative credit %s %s", reject.ErrInvalidInput, amount, currency)
	}
	b.mu.Lock()
	b.balances[mode][currency] = b.balances[mode][currency].Add(amount)
	b.mu.Unlock()
	return nil
}

// Apply adds a signed settlement delta to a currency balance. Unlike Debit
// it never floors at zero: a margin-trade loss larger than the returned
// margin legitimately drives the balance negative, matching the settlement
// rules.
func (b *Book) Apply(mode model.Mode, currency string, delta decimal.Decimal) {
	b.mu.Lock()
	b.balances[mode][currency] = b.balances[mode][currency].Add(delta)
	b.mu.Unlock()
}

// Debit removes amount from a currency balance, failing when the balance
// would go negative. Engines validate affordability before calling; this is
// the last line of defense against a concurrent double-spend.
func (b *Book) Debit(mode model.Mode, currency string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: negative debit %s %s", reject.ErrInvalidInput, amount, currency)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := b.balances[mode][currency]
	if cur.LessThan(amount) {
		return fmt.Errorf("%w: %s balance %s, debit %s", reject.ErrInsufficientFunds, currency, cur, amount)
	}
	b.balances[mode][currency] = cur.Sub(amount)
	return nil
}
