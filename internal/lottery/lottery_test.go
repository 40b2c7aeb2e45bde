package lottery_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/ledger"
	"github.com/tradedesk/sim-engine/internal/lottery"
	"github.com/tradedesk/sim-engine/internal/model"
	"github.com/tradedesk/sim-engine/internal/notify"
	"github.com/tradedesk/sim-engine/internal/reject"
	"github.com/tradedesk/sim-engine/internal/store"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testRegistry() *ledger.Registry {
	return ledger.NewRegistry([]model.Asset{
		{Name: "US Dollar", Symbol: "USD", PriceUSD: d(1.00)},
		{Name: "Bitcoin", Symbol: "BTC", PriceUSD: d(68000.50)},
		{Name: "Broken", Symbol: "BRK", PriceUSD: decimal.Zero},
	})
}

func newTestEnv(t *testing.T, pools []model.LotteryPool) (*lottery.Service, *ledger.Book, *time.Time) {
	t.Helper()
	book := ledger.NewBook()
	book.Seed(model.ModeDemo, "USD", d(100000))
	book.Seed(model.ModeDemo, "BTC", d(0.1))

	svc := lottery.New(book, testRegistry(),
		ledger.NewJournal(store.NewMemoryStore()), notify.LogNotifier{},
		pools, rand.New(rand.NewSource(1)))
	now := t0
	svc.SetClock(func() time.Time { return now })
	return svc, book, &now
}

func timedPool(winners int64, draw time.Time) model.LotteryPool {
	return model.LotteryPool{
		ID: "lp-timed", Title: "Timed Draw", Type: model.LotteryTimed,
		Winners: winners, TicketPrice: d(10), Currency: "USD",
		TotalTickets: 1000, TicketsSold: 0, DrawDate: &draw,
		Status: model.LotteryActive,
	}
}

func ticketPool(total int64) model.LotteryPool {
	return model.LotteryPool{
		ID: "lp-ticket", Title: "Sellout Draw", Type: model.LotteryTicket,
		Winners: 1, TicketPrice: d(10), Currency: "USD",
		TotalTickets: total, TicketsSold: 0,
		Status: model.LotteryActive,
	}
}

func TestBuyTickets_DebitsCost(t *testing.T) {
	svc, book, _ := newTestEnv(t, []model.LotteryPool{timedPool(1, t0.Add(time.Hour))})

	cost, err := svc.BuyTickets("lp-timed", 5, "USD")
	if err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}
	if !cost.Equal(d(50)) {
		t.Errorf("cost = %s, want 50", cost)
	}
	if got := book.Balance(model.ModeDemo, "USD"); !got.Equal(d(99950)) {
		t.Errorf("balance = %s, want 99950", got)
	}

	tickets := svc.Tickets()
	if len(tickets) != 1 || tickets[0].Tickets != 5 {
		t.Errorf("tickets = %+v, want one holding of 5", tickets)
	}

	// A second purchase accumulates into the same holding.
	if _, err := svc.BuyTickets("lp-timed", 3, "USD"); err != nil {
		t.Fatalf("second BuyTickets failed: %v", err)
	}
	tickets = svc.Tickets()
	if len(tickets) != 1 || tickets[0].Tickets != 8 {
		t.Errorf("tickets = %+v, want one holding of 8", tickets)
	}
}

func TestBuyTickets_CrossCurrencyCost(t *testing.T) {
	svc, book, _ := newTestEnv(t, []model.LotteryPool{timedPool(1, t0.Add(time.Hour))})

	// 100 tickets at 10 USD each, paid in BTC at 68000.50 USD.
	cost, err := svc.BuyTickets("lp-timed", 100, "BTC")
	if err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}
	want := d(1000).Div(d(68000.50))
	if !cost.Sub(want).Abs().LessThan(d(0.0000001)) {
		t.Errorf("cost = %s BTC, want %s", cost, want)
	}
	if got := book.Balance(model.ModeDemo, "BTC"); !got.Equal(d(0.1).Sub(cost)) {
		t.Errorf("BTC balance = %s, want %s", got, d(0.1).Sub(cost))
	}
}

func TestBuyTickets_Rejections(t *testing.T) {
	completed := timedPool(1, t0.Add(time.Hour))
	completed.ID = "lp-done"
	completed.Status = model.LotteryCompleted
	svc, _, _ := newTestEnv(t, []model.LotteryPool{timedPool(1, t0.Add(time.Hour)), completed})

	cases := []struct {
		name     string
		pool     string
		count    int64
		currency string
		want     error
	}{
		{"unknown pool", "lp-nope", 1, "USD", reject.ErrNotFound},
		{"completed pool", "lp-done", 1, "USD", reject.ErrWindowClosed},
		{"zero count", "lp-timed", 0, "USD", reject.ErrInvalidInput},
		{"negative count", "lp-timed", -5, "USD", reject.ErrInvalidInput},
		{"over capacity", "lp-timed", 5000, "USD", reject.ErrCapacityExceeded},
		{"unpriced currency", "lp-timed", 1, "BRK", reject.ErrConversionUnavailable},
		{"unknown currency", "lp-timed", 1, "NOPE", reject.ErrConversionUnavailable},
		{"over balance", "lp-timed", 1000, "BTC", reject.ErrInsufficientFunds},
	}
	for _, tc := range cases {
		if _, err := svc.BuyTickets(tc.pool, tc.count, tc.currency); !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestDrawDue_TimedPoolWaitsForDrawDate(t *testing.T) {
	svc, _, clock := newTestEnv(t, []model.LotteryPool{timedPool(1, t0.Add(time.Hour))})

	svc.DrawDue()
	if svc.Pools()[0].Status != model.LotteryActive {
		t.Fatal("pool drew before its draw date")
	}

	*clock = t0.Add(2 * time.Hour)
	svc.DrawDue()
	if svc.Pools()[0].Status != model.LotteryCompleted {
		t.Fatal("pool did not draw after its draw date")
	}
}

func TestDrawDue_TicketPoolDrawsOnSellout(t *testing.T) {
	svc, _, _ := newTestEnv(t, []model.LotteryPool{ticketPool(10)})

	if _, err := svc.BuyTickets("lp-ticket", 9, "USD"); err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}
	svc.DrawDue()
	if svc.Pools()[0].Status != model.LotteryActive {
		t.Fatal("pool drew before selling out")
	}

	if _, err := svc.BuyTickets("lp-ticket", 1, "USD"); err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}
	svc.DrawDue()
	if svc.Pools()[0].Status != model.LotteryCompleted {
		t.Fatal("sold-out pool did not draw")
	}
}

func TestDraw_SoleTicketHolderWinsEverySlot(t *testing.T) {
	pool := timedPool(3, t0.Add(time.Hour))
	svc, book, clock := newTestEnv(t, []model.LotteryPool{pool})

	// User holds every sold ticket, so each of the 3 slots must land on them.
	if _, err := svc.BuyTickets("lp-timed", 10, "USD"); err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}
	balanceAfterBuy := book.Balance(model.ModeDemo, "USD")

	*clock = t0.Add(2 * time.Hour)
	svc.DrawDue()

	drawn := svc.Pools()[0]
	// Revenue 100, prize pool 50, per winner 50/3.
	if !drawn.TotalPrizePool.Equal(d(50)) {
		t.Errorf("prize pool = %s, want 50", drawn.TotalPrizePool)
	}
	wantPer := d(50).Div(d(3))
	if !drawn.PrizePerWinner.Equal(wantPer) {
		t.Errorf("per winner = %s, want %s", drawn.PrizePerWinner, wantPer)
	}

	tickets := svc.Tickets()
	if len(tickets) != 1 || tickets[0].WinsCount != 3 {
		t.Fatalf("wins = %+v, want 3 for the sole holder", tickets)
	}
	wantBalance := balanceAfterBuy.Add(wantPer.Mul(d(3)))
	if got := book.Balance(model.ModeDemo, "USD"); !got.Equal(wantBalance) {
		t.Errorf("balance = %s, want %s", got, wantBalance)
	}
}

func TestDraw_WinningsNeverExceedPrizePool(t *testing.T) {
	pool := timedPool(10, t0.Add(time.Hour))
	pool.TicketsSold = 500 // other participants
	svc, book, clock := newTestEnv(t, []model.LotteryPool{pool})

	if _, err := svc.BuyTickets("lp-timed", 200, "USD"); err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}
	before := book.Balance(model.ModeDemo, "USD")

	*clock = t0.Add(2 * time.Hour)
	svc.DrawDue()

	drawn := svc.Pools()[0]
	winnings := book.Balance(model.ModeDemo, "USD").Sub(before)
	if winnings.IsNegative() {
		t.Fatalf("winnings negative: %s", winnings)
	}
	if winnings.GreaterThan(drawn.TotalPrizePool) {
		t.Errorf("winnings %s exceed the prize pool %s", winnings, drawn.TotalPrizePool)
	}

	tickets := svc.Tickets()
	if len(tickets) == 1 {
		wantWinnings := drawn.PrizePerWinner.Mul(decimal.NewFromInt(tickets[0].WinsCount))
		if !winnings.Equal(wantWinnings) {
			t.Errorf("winnings = %s, want %s for %d wins", winnings, wantWinnings, tickets[0].WinsCount)
		}
	}
}

func TestDraw_CompletesWithoutParticipants(t *testing.T) {
	pool := timedPool(5, t0.Add(time.Hour))
	pool.TicketsSold = 400 // sold, but none to this user
	svc, book, clock := newTestEnv(t, []model.LotteryPool{pool})
	before := book.Balance(model.ModeDemo, "USD")

	*clock = t0.Add(2 * time.Hour)
	svc.DrawDue()

	drawn := svc.Pools()[0]
	if drawn.Status != model.LotteryCompleted {
		t.Fatal("pool must complete even when the user holds no tickets")
	}
	// Revenue 4000, prize pool 2000, per winner 400: figures are recorded
	// regardless of who won.
	if !drawn.TotalPrizePool.Equal(d(2000)) {
		t.Errorf("prize pool = %s, want 2000", drawn.TotalPrizePool)
	}
	if !drawn.PrizePerWinner.Equal(d(400)) {
		t.Errorf("per winner = %s, want 400", drawn.PrizePerWinner)
	}
	if got := book.Balance(model.ModeDemo, "USD"); !got.Equal(before) {
		t.Errorf("balance moved without a win: %s", got)
	}
}

func TestDraw_ZeroWinnersPaysNothing(t *testing.T) {
	pool := timedPool(0, t0.Add(time.Hour))
	svc, book, clock := newTestEnv(t, []model.LotteryPool{pool})

	if _, err := svc.BuyTickets("lp-timed", 10, "USD"); err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}
	before := book.Balance(model.ModeDemo, "USD")

	*clock = t0.Add(2 * time.Hour)
	svc.DrawDue()

	drawn := svc.Pools()[0]
	if drawn.Status != model.LotteryCompleted {
		t.Fatal("pool must complete")
	}
	if !drawn.PrizePerWinner.IsZero() {
		t.Errorf("per winner = %s, want 0 with no winner slots", drawn.PrizePerWinner)
	}
	if got := book.Balance(model.ModeDemo, "USD"); !got.Equal(before) {
		t.Errorf("balance moved with zero winner slots: %s", got)
	}
}

func TestDraw_CompletedPoolStaysSettled(t *testing.T) {
	svc, book, clock := newTestEnv(t, []model.LotteryPool{timedPool(1, t0.Add(time.Hour))})

	if _, err := svc.BuyTickets("lp-timed", 10, "USD"); err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}
	*clock = t0.Add(2 * time.Hour)
	svc.DrawDue()
	after := book.Balance(model.ModeDemo, "USD")

	// The poller keeps running; a completed pool must never draw twice.
	svc.DrawDue()
	if got := book.Balance(model.ModeDemo, "USD"); !got.Equal(after) {
		t.Errorf("second poll moved the balance: %s vs %s", got, after)
	}

	// And a completed pool rejects further sales.
	if _, err := svc.BuyTickets("lp-timed", 1, "USD"); !errors.Is(err, reject.ErrWindowClosed) {
		t.Errorf("sale into drawn pool: got %v, want ErrWindowClosed", err)
	}
}
