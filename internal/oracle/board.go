// Package oracle maintains the live price board and the upstream feed
// workers that populate it. Absence of a price is a distinct state, never
// zero; consumers must check the ok flag.
package oracle

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Board holds the latest known price per pair. Last-write-wins; both feed
// workers write into the same board.
type Board struct {
	mu      sync.RWMutex
	prices  map[string]decimal.Decimal
	updated map[string]time.Time
}

// NewBoard creates an empty price board.
func NewBoard() *Board {
	return &Board{
		prices:  make(map[string]decimal.Decimal),
		updated: make(map[string]time.Time),
	}
}

// Set records the latest price for a pair. Non-positive prices are ignored.
func (b *Board) Set(pair string, price decimal.Decimal) {
	if price.LessThanOrEqual(decimal.Zero) {
		return
	}
	b.mu.Lock()
	b.prices[pair] = price
	b.updated[pair] = time.Now()
	b.mu.Unlock()
}

// Get returns the latest price for a pair and whether one is known.
func (b *Board) Get(pair string) (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.prices[pair]
	return p, ok
}

// Snapshot returns a copy of all known prices.
func (b *Board) Snapshot() map[string]decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(b.prices))
	for pair, p := range b.prices {
		out[pair] = p
	}
	return out
}

// UpdatedAt returns when a pair's price was last written.
func (b *Board) UpdatedAt(pair string) (time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.updated[pair]
	return t, ok
}
