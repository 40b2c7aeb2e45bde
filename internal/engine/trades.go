package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/metrics"
	"github.com/tradedesk/sim-engine/internal/model"
	"github.com/tradedesk/sim-engine/internal/notify"
	"github.com/tradedesk/sim-engine/internal/reject"
	"github.com/tradedesk/sim-engine/internal/symbol"
)

// TradeRequest is the input to PlaceTrade.
type TradeRequest struct {
	Pair      string          `json:"pair"`
	Direction model.Direction `json:"direction"`
	Margin    decimal.Decimal `json:"margin"`
	Leverage  int64           `json:"leverage"`
	Currency  string          `json:"currency"`
}

// TradeQuote is a priced, side-effect-free trade preview. Confirming it by
// ID commits the trade.
type TradeQuote struct {
	ID            string          `json:"quote_id"`
	Pair          string          `json:"pair"`
	Direction     model.Direction `json:"direction"`
	Entry         decimal.Decimal `json:"entry_price"`
	Size          decimal.Decimal `json:"size"`
	PositionValue decimal.Decimal `json:"position_value"`
	Margin        decimal.Decimal `json:"margin"`
	Leverage      int64           `json:"leverage"`
	Currency      string          `json:"currency"`
}

// PlaceTrade validates a margin-trade request and returns a quote. Nothing
// is committed; balances are untouched until ConfirmTrade.
//
// Rejection order matters and is part of the contract: live zero-balance,
// margin below minimum, missing price, margin above balance.
func (e *Engine) PlaceTrade(req TradeRequest) (*TradeQuote, error) {
	pair, err := symbol.Parse(req.Pair)
	if err != nil {
		metrics.Rejections.WithLabelValues("place_trade", "invalid_input").Inc()
		return nil, fmt.Errorf("%w: %v", reject.ErrInvalidInput, err)
	}
	if !req.Direction.Valid() {
		metrics.Rejections.WithLabelValues("place_trade", "invalid_input").Inc()
		return nil, fmt.Errorf("%w: direction must be Buy or Sell", reject.ErrInvalidInput)
	}
	if req.Leverage < 1 {
		metrics.Rejections.WithLabelValues("place_trade", "invalid_input").Inc()
		return nil, fmt.Errorf("%w: leverage must be at least 1", reject.ErrInvalidInput)
	}

	mode := e.book.Mode()
	balance := e.book.Balance(mode, req.Currency)

	if mode == model.ModeLive && balance.LessThanOrEqual(decimal.Zero) {
		metrics.Rejections.WithLabelValues("place_trade", "insufficient_funds").Inc()
		return nil, fmt.Errorf("%w: live %s balance is zero, fund your wallet to place a trade",
			reject.ErrInsufficientFunds, req.Currency)
	}
	if req.Margin.LessThan(one) {
		metrics.Rejections.WithLabelValues("place_trade", "invalid_input").Inc()
		return nil, fmt.Errorf("%w: margin must be at least 1.00", reject.ErrInvalidInput)
	}
	price, ok := e.board.Get(pair.Value)
	if !ok {
		metrics.Rejections.WithLabelValues("place_trade", "price_unavailable").Inc()
		return nil, fmt.Errorf("%w: no live price for %s", reject.ErrPriceUnavailable, pair.Value)
	}
	if req.Margin.GreaterThan(balance) {
		metrics.Rejections.WithLabelValues("place_trade", "insufficient_funds").Inc()
		return nil, fmt.Errorf("%w: required %s %s, available %s %s",
			reject.ErrInsufficientFunds,
			req.Margin.StringFixed(2), req.Currency, balance.StringFixed(2), req.Currency)
	}

	lev := decimal.NewFromInt(req.Leverage)
	positionValue := req.Margin.Mul(lev)
	size := positionValue.Div(price)

	q := &TradeQuote{
		ID:            uuid.New().String(),
		Pair:          pair.Value,
		Direction:     req.Direction,
		Entry:         price,
		Size:          size,
		PositionValue: positionValue,
		Margin:        req.Margin,
		Leverage:      req.Leverage,
		Currency:      req.Currency,
	}

	e.mu.Lock()
	e.pendingTrades[q.ID] = q
	e.mu.Unlock()

	return q, nil
}

// ConfirmTrade commits a previously quoted trade: debits the margin, opens
// the position, and audits the debit in live mode. The account mode is
// captured at confirmation time.
func (e *Engine) ConfirmTrade(quoteID string) (*model.Trade, error) {
	e.mu.Lock()
	q, ok := e.pendingTrades[quoteID]
	if ok {
		delete(e.pendingTrades, quoteID)
	}
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: quote %s", reject.ErrNotFound, quoteID)
	}

	mode := e.book.Mode()
	e.settleWait()

	if err := e.book.Debit(mode, q.Currency, q.Margin); err != nil {
		return nil, err
	}

	trade := &model.Trade{
		ID:        uuid.New().String(),
		Pair:      q.Pair,
		Direction: q.Direction,
		Entry:     q.Entry,
		Size:      q.Size,
		Margin:    q.Margin,
		Leverage:  q.Leverage,
		Currency:  q.Currency,
		OpenTime:  e.now(),
		Status:    model.TradeOpen,
	}

	e.mu.Lock()
	e.open[mode][trade.ID] = trade
	e.mu.Unlock()

	e.journal.Record(mode, model.TxTradeMargin,
		fmt.Sprintf("Margin for %s %s", trade.Direction, trade.Pair),
		trade.Margin.Neg(), trade.Currency)

	metrics.TradesTotal.WithLabelValues(string(trade.Direction), "open").Inc()
	slog.Info("trade opened",
		"id", trade.ID, "mode", mode, "pair", trade.Pair,
		"direction", trade.Direction, "entry", trade.Entry.String(),
		"size", trade.Size.String(), "margin", trade.Margin.String(),
		"leverage", trade.Leverage,
	)
	base, _, _ := splitPair(trade.Pair)
	e.notifier.Notify(notify.KindTrade,
		fmt.Sprintf("Your %s order for %s %s on %s has been placed.",
			trade.Direction, trade.Size.StringFixed(4), base, trade.Pair))

	out := *trade
	return &out, nil
}

// CloseTrade closes an open margin trade of the current mode at the live
// price. P/L is computed in the quote currency, normalized to USD for
// reporting, and converted to the funding currency for settlement.
func (e *Engine) CloseTrade(tradeID string) (*model.Trade, error) {
	mode := e.book.Mode()

	e.mu.Lock()
	t, ok := e.open[mode][tradeID]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: trade %s", reject.ErrNotFound, tradeID)
	}

	closePrice, ok := e.board.Get(t.Pair)
	if !ok {
		metrics.Rejections.WithLabelValues("close_trade", "price_unavailable").Inc()
		return nil, fmt.Errorf("%w: cannot price close of %s", reject.ErrPriceUnavailable, t.Pair)
	}

	e.settleWait()

	e.mu.Lock()
	// Removal first: a concurrent close of the same trade finds nothing.
	t, ok = e.open[mode][tradeID]
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: trade %s", reject.ErrNotFound, tradeID)
	}
	delete(e.open[mode], tradeID)
	e.mu.Unlock()

	var pnlQuote decimal.Decimal
	if t.Direction == model.Buy {
		pnlQuote = closePrice.Sub(t.Entry).Mul(t.Size)
	} else {
		pnlQuote = t.Entry.Sub(closePrice).Mul(t.Size)
	}

	_, quoteCurrency, _ := splitPair(t.Pair)
	pnlUSD := e.assets.QuoteToUSD(pnlQuote, quoteCurrency)
	pnlFunding := e.assets.USDToFunding(pnlUSD, t.Currency)

	closed := *t
	closed.Status = model.TradeClosed
	closed.ClosePrice = closePrice
	closed.CloseTime = e.now()
	closed.PnLQuote = pnlQuote
	closed.PnLUSD = pnlUSD
	closed.PnLFunding = pnlFunding

	// Return margin plus P/L. The sum may be negative when the loss
	// exceeds the margin, and the balance goes negative with it.
	e.book.Apply(mode, closed.Currency, closed.Margin.Add(pnlFunding))

	e.mu.Lock()
	e.history[mode] = append([]model.Trade{closed}, e.history[mode]...)
	e.mu.Unlock()

	e.journal.Record(mode, model.TxTradePnL,
		fmt.Sprintf("P/L from %s %s", closed.Direction, closed.Pair),
		pnlFunding.Add(closed.Margin), closed.Currency)

	metrics.TradesTotal.WithLabelValues(string(closed.Direction), "close").Inc()
	slog.Info("trade closed",
		"id", closed.ID, "mode", mode, "pair", closed.Pair,
		"close", closePrice.String(), "pnl_quote", pnlQuote.String(),
		"pnl_usd", pnlUSD.String(), "pnl_funding", pnlFunding.String(),
	)
	e.notifier.Notify(notify.KindTrade,
		fmt.Sprintf("Your %s order for %s was closed. P/L: %s USD",
			closed.Direction, closed.Pair, pnlUSD.StringFixed(2)))

	return &closed, nil
}

// splitPair splits a pair value into base and quote.
func splitPair(pair string) (base, quote string, ok bool) {
	if i := strings.IndexByte(pair, '/'); i >= 0 {
		return pair[:i], pair[i+1:], true
	}
	return pair, "", false
}
