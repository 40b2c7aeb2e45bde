package ledger

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/model"
)

// Registry is the wallet's asset universe. Each asset carries a reference
// USD price used for every cross-currency conversion in the engine.
type Registry struct {
	mu     sync.RWMutex
	assets map[string]model.Asset
	order  []string
}

// NewRegistry builds a registry from the seed asset list, preserving order
// for listing.
func NewRegistry(assets []model.Asset) *Registry {
	r := &Registry{assets: make(map[string]model.Asset, len(assets))}
	for _, a := range assets {
		r.assets[a.Symbol] = a
		r.order = append(r.order, a.Symbol)
	}
	return r
}

// Get returns the asset for a symbol.
func (r *Registry) Get(symbol string) (model.Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assets[symbol]
	return a, ok
}

// USDPrice returns the reference USD price for a symbol. USD itself is
// always 1. Unknown symbols return zero, which callers treat as "no rate".
func (r *Registry) USDPrice(symbol string) decimal.Decimal {
	if symbol == "USD" {
		return decimal.NewFromInt(1)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.assets[symbol].PriceUSD
}

// SeedDemo seeds the demo book from the registry: 10 000 units of USD and
// UT, and the 10 000-USD equivalent of every other asset. Assets without a
// positive USD price seed at zero.
func SeedDemo(book *Book, r *Registry) {
	grant := decimal.NewFromInt(10000)
	for _, a := range r.List() {
		switch {
		case a.Symbol == "USD" || a.Symbol == "UT":
			book.Seed(model.ModeDemo, a.Symbol, grant)
		case a.PriceUSD.GreaterThan(decimal.Zero):
			book.Seed(model.ModeDemo, a.Symbol, grant.Div(a.PriceUSD))
		default:
			book.Seed(model.ModeDemo, a.Symbol, decimal.Zero)
		}
	}
}

// List returns all assets in seed order.
func (r *Registry) List() []model.Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Asset, 0, len(r.order))
	for _, sym := range r.order {
		out = append(out, r.assets[sym])
	}
	return out
}
