package staking_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/ledger"
	"github.com/tradedesk/sim-engine/internal/model"
	"github.com/tradedesk/sim-engine/internal/notify"
	"github.com/tradedesk/sim-engine/internal/reject"
	"github.com/tradedesk/sim-engine/internal/staking"
	"github.com/tradedesk/sim-engine/internal/store"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestEnv wires a staking service on a fixed clock starting at t0, with a
// generous active pool, a nearly-full pool, and one that already ended.
// Tests advance time by writing through the returned pointer.
func newTestEnv(t *testing.T) (*staking.Service, *ledger.Book, *time.Time) {
	t.Helper()
	book := ledger.NewBook()
	book.Seed(model.ModeDemo, "USD", d(50000))

	pools := []model.StakingPool{
		{
			ID: "pool-open", Title: "Open Pool",
			TotalGoal: d(1000000), CurrentAmount: d(0),
			EndDate: t0.Add(365 * 24 * time.Hour), DailyROI: d(0.5),
		},
		{
			ID: "pool-tight", Title: "Tight Pool",
			TotalGoal: d(1000), CurrentAmount: d(900),
			EndDate: t0.Add(30 * 24 * time.Hour), DailyROI: d(0.1),
		},
		{
			ID: "pool-ended", Title: "Ended Pool",
			TotalGoal: d(1000000), CurrentAmount: d(500),
			EndDate: t0.Add(-24 * time.Hour), DailyROI: d(0.08),
		},
	}

	svc := staking.New(book, ledger.NewJournal(store.NewMemoryStore()), notify.LogNotifier{}, pools)
	now := t0
	svc.SetClock(func() time.Time { return now })
	return svc, book, &now
}

func TestStake_DebitsAndFillsPool(t *testing.T) {
	svc, book, _ := newTestEnv(t)

	st, err := svc.Stake("pool-open", d(10000), "USD")
	if err != nil {
		t.Fatalf("Stake failed: %v", err)
	}
	if got := book.Balance(model.ModeDemo, "USD"); !got.Equal(d(40000)) {
		t.Errorf("balance = %s, want 40000", got)
	}
	if st.PoolID != "pool-open" || !st.Amount.Equal(d(10000)) {
		t.Errorf("stake = %+v", st)
	}

	pools := svc.Pools()
	for _, p := range pools {
		if p.ID == "pool-open" && !p.CurrentAmount.Equal(d(10000)) {
			t.Errorf("pool current = %s, want 10000", p.CurrentAmount)
		}
	}
}

func TestStake_Rejections(t *testing.T) {
	svc, _, _ := newTestEnv(t)

	cases := []struct {
		name   string
		pool   string
		amount decimal.Decimal
		want   error
	}{
		{"unknown pool", "pool-nope", d(100), reject.ErrNotFound},
		{"ended pool", "pool-ended", d(100), reject.ErrWindowClosed},
		{"zero amount", "pool-open", d(0), reject.ErrInvalidInput},
		{"below minimum", "pool-open", d(0.5), reject.ErrInvalidInput},
		{"over balance", "pool-open", d(60000), reject.ErrInsufficientFunds},
		{"over capacity", "pool-tight", d(200), reject.ErrCapacityExceeded},
	}
	for _, tc := range cases {
		if _, err := svc.Stake(tc.pool, tc.amount, "USD"); !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestWithdrawAll_LockedForFirstDay(t *testing.T) {
	svc, _, clock := newTestEnv(t)

	st, err := svc.Stake("pool-open", d(1000), "USD")
	if err != nil {
		t.Fatalf("Stake failed: %v", err)
	}

	*clock = t0.Add(23 * time.Hour)
	if _, err := svc.WithdrawAll(st.ID); !errors.Is(err, reject.ErrWindowClosed) {
		t.Errorf("withdraw inside lock: got %v, want ErrWindowClosed", err)
	}
}

func TestWithdrawAll_TenDayAccrual(t *testing.T) {
	svc, book, clock := newTestEnv(t)

	st, err := svc.Stake("pool-open", d(10000), "USD")
	if err != nil {
		t.Fatalf("Stake failed: %v", err)
	}

	// 10 full days at 0.5%/day on 10000 → profit 500.
	*clock = t0.Add(10 * 24 * time.Hour)
	res, err := svc.WithdrawAll(st.ID)
	if err != nil {
		t.Fatalf("WithdrawAll failed: %v", err)
	}

	if !res.Profit.Equal(d(500)) {
		t.Errorf("profit = %s, want 500", res.Profit)
	}
	wantFee := d(10500).Mul(d(0.00002)) // 0.21
	if !res.Fee.Equal(wantFee) {
		t.Errorf("fee = %s, want %s", res.Fee, wantFee)
	}
	wantReturned := d(10500).Sub(wantFee)
	if !res.Returned.Equal(wantReturned) {
		t.Errorf("returned = %s, want %s", res.Returned, wantReturned)
	}
	wantBalance := d(40000).Add(wantReturned)
	if got := book.Balance(model.ModeDemo, "USD"); !got.Equal(wantBalance) {
		t.Errorf("balance = %s, want %s", got, wantBalance)
	}

	// The stake is gone and its principal left the pool.
	if len(svc.Stakes()) != 0 {
		t.Error("stake should be removed after full withdrawal")
	}
	for _, p := range svc.Pools() {
		if p.ID == "pool-open" && !p.CurrentAmount.IsZero() {
			t.Errorf("pool current = %s, want 0 after principal left", p.CurrentAmount)
		}
	}
	if _, err := svc.WithdrawAll(st.ID); !errors.Is(err, reject.ErrNotFound) {
		t.Errorf("second withdrawal: got %v, want ErrNotFound", err)
	}
}

func TestWithdrawAll_PartialDayDoesNotAccrue(t *testing.T) {
	svc, _, clock := newTestEnv(t)

	st, _ := svc.Stake("pool-open", d(1000), "USD")

	// 36 hours is past the lock but only one whole day of accrual.
	*clock = t0.Add(36 * time.Hour)
	res, err := svc.WithdrawAll(st.ID)
	if err != nil {
		t.Fatalf("WithdrawAll failed: %v", err)
	}
	if !res.Profit.Equal(d(5)) {
		t.Errorf("profit = %s, want 5 (one day at 0.5%%)", res.Profit)
	}
}

func TestWithdrawAll_ExpiredPoolBypassesLockAndCapsAccrual(t *testing.T) {
	svc, _, clock := newTestEnv(t)

	// Stake while the tight pool is open, then jump far past its end.
	endDate := t0.Add(30 * 24 * time.Hour)
	st, err := svc.Stake("pool-tight", d(100), "USD")
	if err != nil {
		t.Fatalf("Stake failed: %v", err)
	}

	*clock = endDate.Add(90 * 24 * time.Hour)
	res, err := svc.WithdrawAll(st.ID)
	if err != nil {
		t.Fatalf("WithdrawAll on expired pool failed: %v", err)
	}

	// Accrual stops at the end date: 30 days at 0.1%/day on 100 → 3.
	if !res.Profit.Equal(d(3)) {
		t.Errorf("profit = %s, want 3 (capped at pool end)", res.Profit)
	}
}

func TestWithdrawAll_UnknownStake(t *testing.T) {
	svc, _, _ := newTestEnv(t)
	if _, err := svc.WithdrawAll("nope"); !errors.Is(err, reject.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestWithdrawProfit_DailyClaimCycle(t *testing.T) {
	svc, book, clock := newTestEnv(t)

	st, _ := svc.Stake("pool-open", d(10000), "USD")

	// Too early.
	*clock = t0.Add(12 * time.Hour)
	if _, err := svc.WithdrawProfit(st.ID); !errors.Is(err, reject.ErrWindowClosed) {
		t.Errorf("claim inside 24h: got %v, want ErrWindowClosed", err)
	}

	// Two full days: profit 100, fee on profit only.
	*clock = t0.Add(48 * time.Hour)
	res, err := svc.WithdrawProfit(st.ID)
	if err != nil {
		t.Fatalf("WithdrawProfit failed: %v", err)
	}
	if !res.Profit.Equal(d(100)) {
		t.Errorf("profit = %s, want 100", res.Profit)
	}
	wantFee := d(100).Mul(d(0.00002))
	if !res.Fee.Equal(wantFee) {
		t.Errorf("fee = %s, want %s", res.Fee, wantFee)
	}
	if !res.Principal.IsZero() {
		t.Errorf("principal = %s, want 0 for a profit claim", res.Principal)
	}

	wantBalance := d(40000).Add(d(100).Sub(wantFee))
	if got := book.Balance(model.ModeDemo, "USD"); !got.Equal(wantBalance) {
		t.Errorf("balance = %s, want %s", got, wantBalance)
	}

	// The claim window restarts from the claim, not the stake.
	*clock = t0.Add(60 * time.Hour)
	if _, err := svc.WithdrawProfit(st.ID); !errors.Is(err, reject.ErrWindowClosed) {
		t.Errorf("re-claim 12h after previous: got %v, want ErrWindowClosed", err)
	}

	*clock = t0.Add(72 * time.Hour)
	res2, err := svc.WithdrawProfit(st.ID)
	if err != nil {
		t.Fatalf("second WithdrawProfit failed: %v", err)
	}
	if !res2.Profit.Equal(d(50)) {
		t.Errorf("second claim profit = %s, want 50 (one day since last claim)", res2.Profit)
	}

	// Principal untouched throughout.
	stakes := svc.Stakes()
	if len(stakes) != 1 || !stakes[0].Amount.Equal(d(10000)) {
		t.Errorf("stake principal changed: %+v", stakes)
	}
	for _, p := range svc.Pools() {
		if p.ID == "pool-open" && !p.CurrentAmount.Equal(d(10000)) {
			t.Errorf("pool current = %s, want 10000 (claims leave capacity alone)", p.CurrentAmount)
		}
	}
}
