// Package staking runs the shared-capacity staking pools: staking into a
// pool, full withdrawal with accrued profit, and daily profit claims.
//
// All monetary values use shopspring/decimal — never float64 for money.
package staking

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/ledger"
	"github.com/tradedesk/sim-engine/internal/metrics"
	"github.com/tradedesk/sim-engine/internal/model"
	"github.com/tradedesk/sim-engine/internal/notify"
	"github.com/tradedesk/sim-engine/internal/reject"
)

const lockPeriod = 24 * time.Hour

// feeRate is the flat 0.002% withdrawal fee.
var feeRate = decimal.NewFromFloat(0.00002)

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// Service manages the staking pools and the user's stakes. One mutex
// serializes all mutations.
type Service struct {
	book     *ledger.Book
	journal  *ledger.Journal
	notifier notify.Notifier
	now      func() time.Time

	mu     sync.Mutex
	pools  map[string]*model.StakingPool
	order  []string
	stakes map[string]*model.UserStake
}

// New creates a staking service seeded with the given pools.
func New(book *ledger.Book, journal *ledger.Journal, notifier notify.Notifier, pools []model.StakingPool) *Service {
	s := &Service{
		book:     book,
		journal:  journal,
		notifier: notifier,
		now:      time.Now,
		pools:    make(map[string]*model.StakingPool, len(pools)),
		stakes:   make(map[string]*model.UserStake),
	}
	for i := range pools {
		p := pools[i]
		s.pools[p.ID] = &p
		s.order = append(s.order, p.ID)
	}
	return s
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Pools returns all pools in seed order.
func (s *Service) Pools() []model.StakingPool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.StakingPool, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.pools[id])
	}
	return out
}

// Stakes returns the user's open stakes.
func (s *Service) Stakes() []model.UserStake {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.UserStake, 0, len(s.stakes))
	for _, st := range s.stakes {
		out = append(out, *st)
	}
	return out
}

// Stake locks funds into a pool. Rejection order: pool ended, non-positive
// amount, below-minimum amount, amount above balance, amount above the
// pool's remaining capacity.
func (s *Service) Stake(poolID string, amount decimal.Decimal, currency string) (*model.UserStake, error) {
	mode := s.book.Mode()

	s.mu.Lock()
	pool, ok := s.pools[poolID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: staking pool %s", reject.ErrNotFound, poolID)
	}
	poolTitle := pool.Title
	poolEnd := pool.EndDate
	remaining := pool.TotalGoal.Sub(pool.CurrentAmount)
	s.mu.Unlock()

	if s.now().After(poolEnd) {
		metrics.Rejections.WithLabelValues("stake", "window_closed").Inc()
		return nil, fmt.Errorf("%w: the staking period for this pool has ended", reject.ErrWindowClosed)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		metrics.Rejections.WithLabelValues("stake", "invalid_input").Inc()
		return nil, fmt.Errorf("%w: amount must be greater than 0", reject.ErrInvalidInput)
	}
	if amount.LessThan(one) {
		metrics.Rejections.WithLabelValues("stake", "invalid_input").Inc()
		return nil, fmt.Errorf("%w: minimum staking amount is 1.00", reject.ErrInvalidInput)
	}
	if amount.GreaterThan(s.book.Balance(mode, currency)) {
		metrics.Rejections.WithLabelValues("stake", "insufficient_funds").Inc()
		return nil, fmt.Errorf("%w: not enough %s to stake this amount", reject.ErrInsufficientFunds, currency)
	}
	if amount.GreaterThan(remaining) {
		metrics.Rejections.WithLabelValues("stake", "capacity_exceeded").Inc()
		return nil, fmt.Errorf("%w: this pool only needs %s %s more", reject.ErrCapacityExceeded,
			remaining.String(), currency)
	}

	if err := s.book.Debit(mode, currency, amount); err != nil {
		return nil, err
	}

	stake := &model.UserStake{
		ID:       uuid.New().String(),
		PoolID:   poolID,
		Amount:   amount,
		Currency: currency,
		StakedAt: s.now(),
	}

	s.mu.Lock()
	if p, ok := s.pools[poolID]; ok {
		p.CurrentAmount = p.CurrentAmount.Add(amount)
	}
	s.stakes[stake.ID] = stake
	s.mu.Unlock()

	s.journal.Record(mode, model.TxStakingDeposit,
		fmt.Sprintf("Staked in %q", poolTitle), amount.Neg(), currency)

	metrics.StakesActive.Inc()
	slog.Info("stake placed",
		"id", stake.ID, "pool", poolID, "mode", mode,
		"amount", amount.String(), "currency", currency,
	)
	s.notifier.Notify(notify.KindStaking,
		fmt.Sprintf("You have successfully staked %s %s in %q.", amount.String(), currency, poolTitle))

	out := *stake
	return &out, nil
}

// WithdrawResult reports the components of a staking withdrawal.
type WithdrawResult struct {
	Principal decimal.Decimal `json:"principal"`
	Profit    decimal.Decimal `json:"profit"`
	Fee       decimal.Decimal `json:"fee"`
	Returned  decimal.Decimal `json:"returned"`
	Currency  string          `json:"currency"`
}

// WithdrawAll closes a stake: principal plus accrued profit, minus the
// withdrawal fee. Active pools enforce a 24-hour lock; expired pools bypass
// it but cap accrual at the pool's end date.
func (s *Service) WithdrawAll(stakeID string) (*WithdrawResult, error) {
	mode := s.book.Mode()
	now := s.now()

	s.mu.Lock()
	stake, ok := s.stakes[stakeID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: stake %s", reject.ErrNotFound, stakeID)
	}
	pool, ok := s.pools[stake.PoolID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: staking pool %s", reject.ErrNotFound, stake.PoolID)
	}

	expired := now.After(pool.EndDate)
	if !expired && now.Sub(stake.StakedAt) < lockPeriod {
		s.mu.Unlock()
		metrics.Rejections.WithLabelValues("withdraw_all", "window_closed").Inc()
		return nil, fmt.Errorf("%w: you can only withdraw your stake after 24 hours", reject.ErrWindowClosed)
	}

	// Accrual stops at the pool's end date once it expires.
	effectiveEnd := now
	if expired {
		effectiveEnd = pool.EndDate
	}
	days := int64(effectiveEnd.Sub(stake.StakedAt) / lockPeriod)

	profit := decimal.Zero
	if days > 0 {
		profit = stake.Amount.Mul(pool.DailyROI.Div(hundred)).Mul(decimal.NewFromInt(days))
	}
	total := stake.Amount.Add(profit)
	fee := total.Mul(feeRate)
	final := total.Sub(fee)

	delete(s.stakes, stakeID)
	pool.CurrentAmount = pool.CurrentAmount.Sub(stake.Amount)
	poolTitle := pool.Title
	principal := stake.Amount
	currency := stake.Currency
	s.mu.Unlock()

	s.book.Credit(mode, currency, final)

	s.journal.Record(mode, model.TxStakingWithdrawal,
		fmt.Sprintf("Withdraw from %q", poolTitle), final, currency)

	metrics.StakesActive.Dec()
	slog.Info("stake withdrawn",
		"id", stakeID, "pool", stake.PoolID, "mode", mode,
		"principal", principal.String(), "profit", profit.String(),
		"fee", fee.String(), "returned", final.String(),
	)
	s.notifier.Notify(notify.KindStaking,
		fmt.Sprintf("Successfully withdrew %s %s principal and %s %s profit. Fee: %s %s",
			principal.String(), currency, profit.String(), currency, fee.String(), currency))

	return &WithdrawResult{
		Principal: principal,
		Profit:    profit,
		Fee:       fee,
		Returned:  final,
		Currency:  currency,
	}, nil
}

// WithdrawProfit claims accrued profit without touching the principal or
// the pool's capacity. Claims are limited to once per 24 hours, measured
// from the later of the stake time and the previous claim.
func (s *Service) WithdrawProfit(stakeID string) (*WithdrawResult, error) {
	mode := s.book.Mode()
	now := s.now()

	s.mu.Lock()
	stake, ok := s.stakes[stakeID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: stake %s", reject.ErrNotFound, stakeID)
	}
	pool, ok := s.pools[stake.PoolID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: staking pool %s", reject.ErrNotFound, stake.PoolID)
	}

	lastClaim := stake.StakedAt
	if stake.LastClaim != nil {
		lastClaim = *stake.LastClaim
	}

	if now.Sub(lastClaim) < lockPeriod {
		s.mu.Unlock()
		metrics.Rejections.WithLabelValues("withdraw_profit", "window_closed").Inc()
		return nil, fmt.Errorf("%w: you can withdraw profits once every 24 hours", reject.ErrWindowClosed)
	}

	days := int64(now.Sub(lastClaim) / lockPeriod)
	if days < 1 {
		s.mu.Unlock()
		metrics.Rejections.WithLabelValues("withdraw_profit", "window_closed").Inc()
		return nil, fmt.Errorf("%w: a full day has not passed since your last withdrawal", reject.ErrWindowClosed)
	}

	profit := stake.Amount.Mul(pool.DailyROI.Div(hundred)).Mul(decimal.NewFromInt(days))
	fee := profit.Mul(feeRate)
	final := profit.Sub(fee)

	claimTime := now
	stake.LastClaim = &claimTime
	poolTitle := pool.Title
	currency := stake.Currency
	s.mu.Unlock()

	s.book.Credit(mode, currency, final)

	s.journal.Record(mode, model.TxStakingWithdrawal,
		fmt.Sprintf("Profit from %q", poolTitle), final, currency)

	slog.Info("staking profit withdrawn",
		"id", stakeID, "pool", stake.PoolID, "mode", mode,
		"profit", profit.String(), "fee", fee.String(), "net", final.String(),
	)
	s.notifier.Notify(notify.KindStaking,
		fmt.Sprintf("Successfully withdrew profits. Gross: %s %s, Fee: %s %s, Net: %s %s",
			profit.String(), currency, fee.String(), currency, final.String(), currency))

	return &WithdrawResult{
		Principal: decimal.Zero,
		Profit:    profit,
		Fee:       fee,
		Returned:  final,
		Currency:  currency,
	}, nil
}
