// Package engine settles margin trades and binary options against the
// per-mode balance books.
//
// All monetary values use shopspring/decimal — never float64 for money.
package engine

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/ledger"
	"github.com/tradedesk/sim-engine/internal/model"
	"github.com/tradedesk/sim-engine/internal/notify"
	"github.com/tradedesk/sim-engine/internal/oracle"
)

// DefaultSettleDelay simulates execution latency between confirmation and
// commit. Tests set it to zero for synchronous settlement.
const DefaultSettleDelay = 1500 * time.Millisecond

// Engine executes margin trades and binary options. A single mutex
// serializes all mutations (single-instance); option expiry timers re-enter
// through the same lock.
type Engine struct {
	book     *ledger.Book
	assets   *ledger.Registry
	board    *oracle.Board
	journal  *ledger.Journal
	notifier notify.Notifier

	settleDelay time.Duration
	now         func() time.Time

	mu            sync.Mutex
	pendingTrades map[string]*TradeQuote
	pendingOpts   map[string]*OptionQuote
	open          map[model.Mode]map[string]*model.Trade
	history       map[model.Mode][]model.Trade
	activeOpts    map[model.Mode]map[string]*model.OptionTrade
	optHistory    map[model.Mode][]model.OptionTrade
}

// New creates a settlement engine. Pass notify.LogNotifier{} when no hub is
// wired.
func New(book *ledger.Book, assets *ledger.Registry, board *oracle.Board, journal *ledger.Journal, notifier notify.Notifier) *Engine {
	return &Engine{
		book:        book,
		assets:      assets,
		board:       board,
		journal:     journal,
		notifier:    notifier,
		settleDelay: DefaultSettleDelay,
		now:         time.Now,
		pendingTrades: make(map[string]*TradeQuote),
		pendingOpts:   make(map[string]*OptionQuote),
		open: map[model.Mode]map[string]*model.Trade{
			model.ModeDemo: {}, model.ModeLive: {},
		},
		history: make(map[model.Mode][]model.Trade),
		activeOpts: map[model.Mode]map[string]*model.OptionTrade{
			model.ModeDemo: {}, model.ModeLive: {},
		},
		optHistory: make(map[model.Mode][]model.OptionTrade),
	}
}

// SetSettleDelay overrides the simulated execution latency. Zero makes
// confirmation and resolution commit synchronously.
func (e *Engine) SetSettleDelay(d time.Duration) { e.settleDelay = d }

// SetClock overrides the time source.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// settleWait simulates execution latency. Never called while holding the
// engine lock.
func (e *Engine) settleWait() {
	if e.settleDelay > 0 {
		time.Sleep(e.settleDelay)
	}
}

// OpenTrades returns the open margin trades for a mode.
func (e *Engine) OpenTrades(mode model.Mode) []model.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Trade, 0, len(e.open[mode]))
	for _, t := range e.open[mode] {
		out = append(out, *t)
	}
	return out
}

// TradeHistory returns closed margin trades for a mode, newest first.
func (e *Engine) TradeHistory(mode model.Mode) []model.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Trade(nil), e.history[mode]...)
}

// ActiveOptions returns unresolved options for a mode.
func (e *Engine) ActiveOptions(mode model.Mode) []model.OptionTrade {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.OptionTrade, 0, len(e.activeOpts[mode]))
	for _, t := range e.activeOpts[mode] {
		out = append(out, *t)
	}
	return out
}

// OptionHistory returns resolved options for a mode, newest first.
func (e *Engine) OptionHistory(mode model.Mode) []model.OptionTrade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.OptionTrade(nil), e.optHistory[mode]...)
}

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)
