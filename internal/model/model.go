// Package model defines the core domain types shared across the settlement
// engine. All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mode selects which balance book an operation settles against. The two
// books are independent and never mixed.
type Mode string

const (
	ModeDemo Mode = "demo"
	ModeLive Mode = "live"
)

// Valid reports whether m is one of the two known modes.
func (m Mode) Valid() bool { return m == ModeDemo || m == ModeLive }

// Direction is the side of a trade or option.
type Direction string

const (
	Buy  Direction = "Buy"
	Sell Direction = "Sell"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool { return d == Buy || d == Sell }

// TradeStatus is the one-way lifecycle of a margin trade.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "Open"
	TradeClosed TradeStatus = "Closed"
)

// Trade is a leveraged margin position. Size is derived at placement:
// size = margin × leverage / entryPrice, denominated in the base asset.
type Trade struct {
	ID        string          `json:"id"`
	Pair      string          `json:"pair"`
	Direction Direction       `json:"direction"`
	Entry     decimal.Decimal `json:"entry_price"`
	Size      decimal.Decimal `json:"size"`     // base-asset units
	Margin    decimal.Decimal `json:"margin"`   // funding-currency amount at risk
	Leverage  int64           `json:"leverage"`
	Currency  string          `json:"currency"` // funding currency
	OpenTime  time.Time       `json:"open_time"`
	Status    TradeStatus     `json:"status"`

	// Set on closure.
	ClosePrice decimal.Decimal `json:"close_price,omitempty"`
	CloseTime  time.Time       `json:"close_time"`
	PnLQuote   decimal.Decimal `json:"pnl_quote,omitempty"`   // in the pair's quote currency
	PnLUSD     decimal.Decimal `json:"pnl_usd,omitempty"`     // normalized reporting value
	PnLFunding decimal.Decimal `json:"pnl_funding,omitempty"` // in the funding currency
}

// OptionStatus is the terminal, one-way lifecycle of a binary option.
type OptionStatus string

const (
	OptionActive OptionStatus = "Active"
	OptionWon    OptionStatus = "Won"
	OptionLost   OptionStatus = "Lost"
)

// OptionTrade is a binary option. The staked amount is the full risk: it is
// debited at placement and forfeit unless the option resolves Won.
type OptionTrade struct {
	ID         string          `json:"id"`
	Pair       string          `json:"pair"`
	Direction  Direction       `json:"direction"`
	Entry      decimal.Decimal `json:"entry_price"`
	Amount     decimal.Decimal `json:"amount"`
	Duration   int64           `json:"duration"` // seconds until expiry
	ProfitPct  decimal.Decimal `json:"profit_percentage"`
	OpenTime   time.Time       `json:"open_time"`
	ExpiryTime time.Time       `json:"expiry_time"`
	Status     OptionStatus    `json:"status"`
	Currency   string          `json:"currency"`

	// Set on resolution.
	ClosePrice decimal.Decimal `json:"close_price,omitempty"`
	Payout     decimal.Decimal `json:"payout,omitempty"`
	Profit     decimal.Decimal `json:"profit,omitempty"`
}

// StakingPool is a shared-capacity staking vehicle. CurrentAmount moves with
// every stake and every principal withdrawal.
type StakingPool struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Assets        []string        `json:"assets"`
	Description   string          `json:"description"`
	TotalGoal     decimal.Decimal `json:"total_goal"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	StartDate     string          `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	DailyROI      decimal.Decimal `json:"daily_roi"` // percent per whole elapsed day
	TotalAPY      decimal.Decimal `json:"total_apy"` // display only
}

// UserStake is one participant position in a staking pool. Deleted on full
// withdrawal; survives profit withdrawals with the claim timestamp advanced.
type UserStake struct {
	ID        string          `json:"id"`
	PoolID    string          `json:"pool_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	StakedAt  time.Time       `json:"staked_at"`
	LastClaim *time.Time      `json:"last_profit_withdrawal_at,omitempty"`
}

// LotteryType selects the draw trigger for a lottery pool.
type LotteryType string

const (
	LotteryTimed  LotteryType = "time"   // draws when DrawDate passes
	LotteryTicket LotteryType = "ticket" // draws when all tickets are sold
)

// LotteryStatus is the terminal, one-way lifecycle of a lottery pool.
type LotteryStatus string

const (
	LotteryActive    LotteryStatus = "active"
	LotteryCompleted LotteryStatus = "completed"
)

// LotteryPool is a shared prize pool. Half the ticket revenue funds the
// prizes; the remainder is the house take.
type LotteryPool struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	PrizeIcon    string          `json:"prize_icon"`
	Type         LotteryType     `json:"type"`
	Winners      int64           `json:"number_of_winners"`
	TicketPrice  decimal.Decimal `json:"ticket_price"`
	Currency     string          `json:"currency"`
	TotalTickets int64           `json:"total_tickets"`
	TicketsSold  int64           `json:"tickets_sold"`
	DrawDate     *time.Time      `json:"draw_date,omitempty"`
	Status       LotteryStatus   `json:"status"`

	// Set when the draw completes.
	TotalPrizePool decimal.Decimal `json:"total_prize_pool,omitempty"`
	PrizePerWinner decimal.Decimal `json:"prize_per_winner,omitempty"`
}

// UserLotteryTicket accumulates one participant's tickets in one pool.
type UserLotteryTicket struct {
	PoolID    string `json:"pool_id"`
	Tickets   int64  `json:"number_of_tickets"`
	WinsCount int64  `json:"wins_count,omitempty"`
}

// TransactionType tags entries in the wallet audit journal.
type TransactionType string

const (
	TxDeposit           TransactionType = "Deposit"
	TxWithdrawal        TransactionType = "Withdrawal"
	TxTradeMargin       TransactionType = "Trade Margin"
	TxTradePnL          TransactionType = "Trade P/L"
	TxOptionStake       TransactionType = "Option Stake"
	TxOptionPayout      TransactionType = "Option Payout"
	TxSwap              TransactionType = "Swap"
	TxStakingDeposit    TransactionType = "Staking Deposit"
	TxStakingWithdrawal TransactionType = "Staking Withdrawal"
	TxLotteryPurchase   TransactionType = "Lottery Purchase"
	TxLotteryWin        TransactionType = "Lottery Win"
)

// WalletTransaction is an immutable record of a live-mode balance mutation.
// Once created, these are never modified or deleted.
type WalletTransaction struct {
	ID          string          `json:"id" db:"id"`
	Timestamp   time.Time       `json:"timestamp" db:"timestamp"`
	Type        TransactionType `json:"type" db:"type"`
	Description string          `json:"description" db:"description"`
	Amount      decimal.Decimal `json:"amount" db:"amount"` // signed: +credit, -debit
	Currency    string          `json:"currency" db:"currency"`
}

// Asset is one entry in the wallet's asset registry. PriceUSD is the
// reference rate used for every cross-currency conversion.
type Asset struct {
	Name          string          `json:"name"`
	Symbol        string          `json:"symbol"`
	PriceUSD      decimal.Decimal `json:"price_usd"`
	AccountNumber string          `json:"account_number"`
}

// UserProfile is the single object persisted beyond process lifetime.
type UserProfile struct {
	Username       string  `json:"username" db:"username"`
	FirstName      string  `json:"first_name" db:"first_name"`
	LastName       string  `json:"last_name" db:"last_name"`
	Email          string  `json:"email" db:"email"`
	ProfilePicture *string `json:"profile_picture" db:"profile_picture"` // data URL, optional
}
