// Package lottery runs the prize pools: ticket purchase with cross-currency
// pricing, the draw scheduler, and the weighted winner draw.
//
// All monetary values use shopspring/decimal — never float64 for money.
package lottery

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/ledger"
	"github.com/tradedesk/sim-engine/internal/metrics"
	"github.com/tradedesk/sim-engine/internal/model"
	"github.com/tradedesk/sim-engine/internal/notify"
	"github.com/tradedesk/sim-engine/internal/reject"
)

// pollInterval is how often the scheduler checks pools for due draws.
const pollInterval = 2 * time.Second

var two = decimal.NewFromInt(2)

// Service manages the lottery pools and the user's tickets. One mutex
// serializes all mutations; the draw poller re-enters through it.
type Service struct {
	book     *ledger.Book
	assets   *ledger.Registry
	journal  *ledger.Journal
	notifier notify.Notifier
	now      func() time.Time
	rng      *rand.Rand

	mu      sync.Mutex
	pools   map[string]*model.LotteryPool
	order   []string
	tickets map[string]*model.UserLotteryTicket
}

// New creates a lottery service seeded with the given pools. The RNG is
// injected so draws are reproducible in tests.
func New(book *ledger.Book, assets *ledger.Registry, journal *ledger.Journal, notifier notify.Notifier, pools []model.LotteryPool, rng *rand.Rand) *Service {
	s := &Service{
		book:     book,
		assets:   assets,
		journal:  journal,
		notifier: notifier,
		now:      time.Now,
		rng:      rng,
		pools:    make(map[string]*model.LotteryPool, len(pools)),
		tickets:  make(map[string]*model.UserLotteryTicket),
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
func (s *Service) Pools() []model.LotteryPool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.LotteryPool, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.pools[id])
	}
	return out
}

// Tickets returns the user's ticket holdings.
func (s *Service) Tickets() []model.UserLotteryTicket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.UserLotteryTicket, 0, len(s.tickets))
	for _, t := range s.tickets {
		out = append(out, *t)
	}
	return out
}

// BuyTickets purchases tickets in any wallet currency. The cost is priced
// in the pool's currency and converted through USD; a missing rate on
// either side rejects the purchase rather than guessing.
func (s *Service) BuyTickets(poolID string, count int64, payCurrency string) (decimal.Decimal, error) {
	mode := s.book.Mode()

	s.mu.Lock()
	pool, ok := s.pools[poolID]
	if !ok {
		s.mu.Unlock()
		return decimal.Zero, fmt.Errorf("%w: lottery pool %s", reject.ErrNotFound, poolID)
	}
	status := pool.Status
	available := pool.TotalTickets - pool.TicketsSold
	price := pool.TicketPrice
	poolCurrency := pool.Currency
	poolTitle := pool.Title
	s.mu.Unlock()

	if status == model.LotteryCompleted {
		metrics.Rejections.WithLabelValues("buy_tickets", "window_closed").Inc()
		return decimal.Zero, fmt.Errorf("%w: ticket sales for this lottery have ended", reject.ErrWindowClosed)
	}
	if count <= 0 {
		metrics.Rejections.WithLabelValues("buy_tickets", "invalid_input").Inc()
		return decimal.Zero, fmt.Errorf("%w: ticket count must be a positive whole number", reject.ErrInvalidInput)
	}
	if count > available {
		metrics.Rejections.WithLabelValues("buy_tickets", "capacity_exceeded").Inc()
		return decimal.Zero, fmt.Errorf("%w: only %d tickets are left for this lottery",
			reject.ErrCapacityExceeded, available)
	}

	costInPool := decimal.NewFromInt(count).Mul(price)
	cost, err := s.assets.Convert(costInPool, poolCurrency, payCurrency)
	if err != nil {
		metrics.Rejections.WithLabelValues("buy_tickets", "conversion_unavailable").Inc()
		return decimal.Zero, err
	}

	if cost.GreaterThan(s.book.Balance(mode, payCurrency)) {
		metrics.Rejections.WithLabelValues("buy_tickets", "insufficient_funds").Inc()
		return decimal.Zero, fmt.Errorf("%w: you need %s %s (worth %s %s) to buy %d tickets",
			reject.ErrInsufficientFunds,
			cost.StringFixed(6), payCurrency, costInPool.String(), poolCurrency, count)
	}

	if err := s.book.Debit(mode, payCurrency, cost); err != nil {
		return decimal.Zero, err
	}

	s.mu.Lock()
	if p, ok := s.pools[poolID]; ok {
		p.TicketsSold += count
	}
	if t, ok := s.tickets[poolID]; ok {
		t.Tickets += count
	} else {
		s.tickets[poolID] = &model.UserLotteryTicket{PoolID: poolID, Tickets: count}
	}
	s.mu.Unlock()

	s.journal.Record(mode, model.TxLotteryPurchase,
		fmt.Sprintf("%d ticket(s) for %q", count, poolTitle), cost.Neg(), payCurrency)

	slog.Info("lottery tickets purchased",
		"pool", poolID, "mode", mode, "count", count,
		"cost", cost.String(), "currency", payCurrency,
	)
	s.notifier.Notify(notify.KindLottery,
		fmt.Sprintf("You have successfully bought %d tickets for the %q lottery.", count, poolTitle))

	return cost, nil
}

// Run polls for due draws until ctx is cancelled. A pool draws when its
// draw date passes (time-based) or when every ticket is sold (ticket-based).
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.DrawDue()
		}
	}
}

// DrawDue draws every pool whose trigger has fired. Called by the poller
// and once at startup to settle pools that were already due.
func (s *Service) DrawDue() {
	now := s.now()

	s.mu.Lock()
	var due []string
	for _, id := range s.order {
		p := s.pools[id]
		if p.Status != model.LotteryActive {
			continue
		}
		timeUp := p.Type == model.LotteryTimed && p.DrawDate != nil && !now.Before(*p.DrawDate)
		soldOut := p.Type == model.LotteryTicket && p.TicketsSold >= p.TotalTickets
		if timeUp || soldOut {
			due = append(due, id)
		}
	}
	s.mu.Unlock()

	for _, id := range due {
		s.draw(id)
	}
}

// draw settles one pool. Half the ticket revenue forms the prize pool,
// split evenly across the winner slots. Winners are drawn without
// replacement, weighted by ticket counts; the pool completes
// unconditionally whether or not the user won.
func (s *Service) draw(poolID string) {
	mode := s.book.Mode()

	s.mu.Lock()
	pool, ok := s.pools[poolID]
	if !ok || pool.Status == model.LotteryCompleted {
		s.mu.Unlock()
		return
	}

	revenue := decimal.NewFromInt(pool.TicketsSold).Mul(pool.TicketPrice)
	prizePool := revenue.Div(two)
	perWinner := decimal.Zero
	if pool.Winners > 0 {
		perWinner = prizePool.Div(decimal.NewFromInt(pool.Winners))
	}

	entry := s.tickets[poolID]
	held := int64(0)
	if entry != nil {
		held = entry.Tickets
	}

	// Draw one ticket per prize slot from the shrinking pool. Each draw
	// that lands inside the user's remaining range is a win.
	var userWins int64
	if held > 0 {
		remainingUser := held
		remainingTotal := pool.TicketsSold
		for i := int64(0); i < pool.Winners; i++ {
			if remainingTotal <= 0 {
				break
			}
			winning := s.rng.Int63n(remainingTotal) + 1
			if winning <= remainingUser {
				userWins++
				remainingUser--
			}
			remainingTotal--
		}
	}

	winnings := perWinner.Mul(decimal.NewFromInt(userWins))
	currency := pool.Currency
	title := pool.Title

	pool.Status = model.LotteryCompleted
	pool.TotalPrizePool = prizePool
	pool.PrizePerWinner = perWinner
	if userWins > 0 && entry != nil {
		entry.WinsCount = userWins
	}
	s.mu.Unlock()

	if userWins > 0 {
		s.book.Credit(mode, currency, winnings)
		s.journal.Record(mode, model.TxLotteryWin,
			fmt.Sprintf("Won in %q", title), winnings, currency)
	}

	metrics.LotteryDraws.Inc()
	slog.Info("lottery drawn",
		"pool", poolID, "prize_pool", prizePool.String(),
		"per_winner", perWinner.String(), "user_wins", userWins,
		"winnings", winnings.String(),
	)

	// Completion is only announced to participants.
	if held > 0 {
		if userWins > 0 {
			s.notifier.Notify(notify.KindLottery,
				fmt.Sprintf("Congratulations! You won %d time(s) in %q, for a total of %s %s!",
					userWins, title, winnings.String(), currency))
		} else {
			s.notifier.Notify(notify.KindLottery,
				fmt.Sprintf("The draw for %q is complete. Better luck next time.", title))
		}
	}
}
