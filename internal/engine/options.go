package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/metrics"
	"github.com/tradedesk/sim-engine/internal/model"
	"github.com/tradedesk/sim-engine/internal/notify"
	"github.com/tradedesk/sim-engine/internal/reject"
	"github.com/tradedesk/sim-engine/internal/symbol"
)

// OptionRequest is the input to PlaceOption.
type OptionRequest struct {
	Pair      string          `json:"pair"`
	Direction model.Direction `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
	Duration  int64           `json:"duration"` // seconds
	ProfitPct decimal.Decimal `json:"profit_percentage"`
}

// OptionQuote is a priced, side-effect-free option preview.
type OptionQuote struct {
	ID        string          `json:"quote_id"`
	Pair      string          `json:"pair"`
	Direction model.Direction `json:"direction"`
	Entry     decimal.Decimal `json:"entry_price"`
	Amount    decimal.Decimal `json:"amount"`
	Duration  int64           `json:"duration"`
	ProfitPct decimal.Decimal `json:"profit_percentage"`
	Profit    decimal.Decimal `json:"profit"`
	Payout    decimal.Decimal `json:"payout"`
	Currency  string          `json:"currency"`
}

// PlaceOption validates a binary-option request and returns a quote with
// the potential profit and payout. Same rejection ladder as PlaceTrade,
// with the staked amount in place of the margin.
func (e *Engine) PlaceOption(req OptionRequest, currency string) (*OptionQuote, error) {
	pair, err := symbol.Parse(req.Pair)
	if err != nil {
		metrics.Rejections.WithLabelValues("place_option", "invalid_input").Inc()
		return nil, fmt.Errorf("%w: %v", reject.ErrInvalidInput, err)
	}
	if !req.Direction.Valid() {
		metrics.Rejections.WithLabelValues("place_option", "invalid_input").Inc()
		return nil, fmt.Errorf("%w: direction must be Buy or Sell", reject.ErrInvalidInput)
	}
	if req.Duration <= 0 {
		metrics.Rejections.WithLabelValues("place_option", "invalid_input").Inc()
		return nil, fmt.Errorf("%w: duration must be positive", reject.ErrInvalidInput)
	}

	mode := e.book.Mode()
	balance := e.book.Balance(mode, currency)

	if mode == model.ModeLive && balance.LessThanOrEqual(decimal.Zero) {
		metrics.Rejections.WithLabelValues("place_option", "insufficient_funds").Inc()
		return nil, fmt.Errorf("%w: live %s balance is zero, fund your wallet to place a trade",
			reject.ErrInsufficientFunds, currency)
	}
	if req.Amount.LessThan(one) {
		metrics.Rejections.WithLabelValues("place_option", "invalid_input").Inc()
		return nil, fmt.Errorf("%w: amount must be at least 1.00", reject.ErrInvalidInput)
	}
	price, ok := e.board.Get(pair.Value)
	if !ok {
		metrics.Rejections.WithLabelValues("place_option", "price_unavailable").Inc()
		return nil, fmt.Errorf("%w: no live price for %s", reject.ErrPriceUnavailable, pair.Value)
	}
	if req.Amount.GreaterThan(balance) {
		metrics.Rejections.WithLabelValues("place_option", "insufficient_funds").Inc()
		return nil, fmt.Errorf("%w: required %s %s, available %s %s",
			reject.ErrInsufficientFunds,
			req.Amount.StringFixed(2), currency, balance.StringFixed(2), currency)
	}

	profit := req.Amount.Mul(req.ProfitPct).Div(hundred)
	q := &OptionQuote{
		ID:        uuid.New().String(),
		Pair:      pair.Value,
		Direction: req.Direction,
		Entry:     price,
		Amount:    req.Amount,
		Duration:  req.Duration,
		ProfitPct: req.ProfitPct,
		Profit:    profit,
		Payout:    req.Amount.Add(profit),
		Currency:  currency,
	}

	e.mu.Lock()
	e.pendingOpts[q.ID] = q
	e.mu.Unlock()

	return q, nil
}

// ConfirmOption commits a quoted option: debits the stake, opens the
// position, and schedules resolution at expiry. The account mode is
// captured here and rides with the timer; a mode switch before expiry does
// not redirect the settlement.
func (e *Engine) ConfirmOption(quoteID string) (*model.OptionTrade, error) {
	e.mu.Lock()
	q, ok := e.pendingOpts[quoteID]
	if ok {
		delete(e.pendingOpts, quoteID)
	}
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: quote %s", reject.ErrNotFound, quoteID)
	}

	mode := e.book.Mode()
	e.settleWait()

	if err := e.book.Debit(mode, q.Currency, q.Amount); err != nil {
		return nil, err
	}

	openTime := e.now()
	duration := time.Duration(q.Duration) * time.Second
	opt := &model.OptionTrade{
		ID:         uuid.New().String(),
		Pair:       q.Pair,
		Direction:  q.Direction,
		Entry:      q.Entry,
		Amount:     q.Amount,
		Duration:   q.Duration,
		ProfitPct:  q.ProfitPct,
		OpenTime:   openTime,
		ExpiryTime: openTime.Add(duration),
		Status:     model.OptionActive,
		Currency:   q.Currency,
	}

	e.mu.Lock()
	e.activeOpts[mode][opt.ID] = opt
	e.mu.Unlock()

	e.journal.Record(mode, model.TxOptionStake,
		fmt.Sprintf("%s option on %s", opt.Direction, opt.Pair),
		opt.Amount.Neg(), opt.Currency)

	// The timer is never cancelled; resolution is idempotent against the
	// active registry.
	time.AfterFunc(duration, func() { e.resolveOption(opt.ID, mode) })

	metrics.OptionsTotal.WithLabelValues("open").Inc()
	slog.Info("option placed",
		"id", opt.ID, "mode", mode, "pair", opt.Pair,
		"direction", opt.Direction, "entry", opt.Entry.String(),
		"amount", opt.Amount.String(), "expires_in_s", opt.Duration,
	)
	e.notifier.Notify(notify.KindOption,
		fmt.Sprintf("Your %s option for %s has been placed. It will expire in %d seconds.",
			opt.Direction, opt.Pair, opt.Duration))

	out := *opt
	return &out, nil
}

// resolveOption settles one expired option against the mode it was opened
// in. Buy wins when the close is above entry, Sell when below; a missing
// price is a loss. Removal from the active registry happens first, so a
// duplicate fire finds nothing and returns.
func (e *Engine) resolveOption(optionID string, openMode model.Mode) {
	e.mu.Lock()
	opt, ok := e.activeOpts[openMode][optionID]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.activeOpts[openMode], optionID)
	e.mu.Unlock()

	closePrice, priced := e.board.Get(opt.Pair)

	won := false
	if priced {
		switch opt.Direction {
		case model.Buy:
			won = closePrice.GreaterThan(opt.Entry)
		case model.Sell:
			won = closePrice.LessThan(opt.Entry)
		}
	}

	resolved := *opt
	if won {
		resolved.Status = model.OptionWon
		resolved.Profit = opt.Amount.Mul(opt.ProfitPct).Div(hundred)
		resolved.Payout = opt.Amount.Add(resolved.Profit)
	} else {
		resolved.Status = model.OptionLost
		resolved.Profit = opt.Amount.Neg()
		resolved.Payout = decimal.Zero
	}
	if priced {
		resolved.ClosePrice = closePrice
	}

	if won {
		e.book.Credit(openMode, resolved.Currency, resolved.Payout)
		e.journal.Record(openMode, model.TxOptionPayout,
			fmt.Sprintf("Won %s option on %s", resolved.Direction, resolved.Pair),
			resolved.Payout, resolved.Currency)
	}

	e.mu.Lock()
	e.optHistory[openMode] = append([]model.OptionTrade{resolved}, e.optHistory[openMode]...)
	e.mu.Unlock()

	metrics.OptionsTotal.WithLabelValues(string(resolved.Status)).Inc()
	slog.Info("option resolved",
		"id", resolved.ID, "mode", openMode, "pair", resolved.Pair,
		"status", resolved.Status, "close", resolved.ClosePrice.String(),
		"profit", resolved.Profit.String(), "payout", resolved.Payout.String(),
	)

	// Suppress the notification when the account has switched modes since
	// the option was opened.
	if e.book.Mode() == openMode {
		rate := e.assets.USDPrice(resolved.Currency)
		if rate.LessThanOrEqual(decimal.Zero) {
			rate = one
		}
		profitUSD := resolved.Profit.Mul(rate)
		e.notifier.Notify(notify.KindOption,
			fmt.Sprintf("Your %s option for %s expired. Result: %s. Profit/Loss: %s USD",
				resolved.Direction, resolved.Pair, resolved.Status, profitUSD.StringFixed(2)))
	}
}
