package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/ledger"
	"github.com/tradedesk/sim-engine/internal/model"
	"github.com/tradedesk/sim-engine/internal/reject"
	"github.com/tradedesk/sim-engine/internal/store"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func testRegistry() *ledger.Registry {
	return ledger.NewRegistry([]model.Asset{
		{Name: "UT", Symbol: "UT", PriceUSD: d(1.00)},
		{Name: "Bitcoin", Symbol: "BTC", PriceUSD: d(68000.50)},
		{Name: "Euro", Symbol: "EUR", PriceUSD: d(1.08)},
		{Name: "US Dollar", Symbol: "USD", PriceUSD: d(1.00)},
		{Name: "Japanese Yen", Symbol: "JPY", PriceUSD: d(0.0064)},
		{Name: "Broken", Symbol: "BRK", PriceUSD: decimal.Zero},
	})
}

// --- Book tests ---

func TestBook_ModesAreIndependent(t *testing.T) {
	b := ledger.NewBook()
	b.Seed(model.ModeDemo, "USD", d(10000))
	b.Seed(model.ModeLive, "USD", d(500))

	if err := b.Debit(model.ModeDemo, "USD", d(4000)); err != nil {
		t.Fatalf("demo debit failed: %v", err)
	}

	if got := b.Balance(model.ModeDemo, "USD"); !got.Equal(d(6000)) {
		t.Errorf("demo balance = %s, want 6000", got)
	}
	if got := b.Balance(model.ModeLive, "USD"); !got.Equal(d(500)) {
		t.Errorf("live balance = %s, want 500 (must be untouched)", got)
	}
}

func TestBook_DebitInsufficient(t *testing.T) {
	b := ledger.NewBook()
	b.Seed(model.ModeLive, "BTC", d(0.5))

	err := b.Debit(model.ModeLive, "BTC", d(0.6))
	if !errors.Is(err, reject.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := b.Balance(model.ModeLive, "BTC"); !got.Equal(d(0.5)) {
		t.Errorf("failed debit must not move balance, got %s", got)
	}
}

func TestBook_UnknownCurrencyReadsZero(t *testing.T) {
	b := ledger.NewBook()
	if got := b.Balance(model.ModeDemo, "XYZ"); !got.IsZero() {
		t.Errorf("unknown currency balance = %s, want 0", got)
	}
}

func TestBook_ApplyAllowsNegativeBalance(t *testing.T) {
	b := ledger.NewBook()
	b.Seed(model.ModeDemo, "USD", d(100))

	// A settlement loss larger than the remaining balance is legal.
	b.Apply(model.ModeDemo, "USD", d(-150))
	if got := b.Balance(model.ModeDemo, "USD"); !got.Equal(d(-50)) {
		t.Errorf("balance = %s, want -50", got)
	}
}

func TestBook_NegativeCreditRejected(t *testing.T) {
	b := ledger.NewBook()
	if err := b.Credit(model.ModeDemo, "USD", d(-1)); !errors.Is(err, reject.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBook_SetMode(t *testing.T) {
	b := ledger.NewBook()
	if b.Mode() != model.ModeDemo {
		t.Fatalf("initial mode = %s, want demo", b.Mode())
	}
	if err := b.SetMode(model.ModeLive); err != nil {
		t.Fatalf("SetMode(live) failed: %v", err)
	}
	if b.Mode() != model.ModeLive {
		t.Errorf("mode = %s, want live", b.Mode())
	}
	if err := b.SetMode("paper"); !errors.Is(err, reject.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown mode, got %v", err)
	}
}

// --- Conversion tests ---

func TestQuoteToUSD_USDIsIdentity(t *testing.T) {
	r := testRegistry()
	got := r.QuoteToUSD(d(42.5), "USD")
	if !got.Equal(d(42.5)) {
		t.Errorf("QuoteToUSD(42.5, USD) = %s, want 42.5", got)
	}
}

func TestQuoteToUSD_ConvertsThroughRate(t *testing.T) {
	r := testRegistry()
	// 100 JPY at 0.0064 USD/JPY.
	got := r.QuoteToUSD(d(100), "JPY")
	if !got.Equal(d(0.64)) {
		t.Errorf("QuoteToUSD(100, JPY) = %s, want 0.64", got)
	}
}

func TestQuoteToUSD_MissingRateDegradesToZero(t *testing.T) {
	r := testRegistry()
	if got := r.QuoteToUSD(d(100), "BRK"); !got.IsZero() {
		t.Errorf("missing rate should report zero, got %s", got)
	}
	if got := r.QuoteToUSD(d(100), "NOPE"); !got.IsZero() {
		t.Errorf("unknown currency should report zero, got %s", got)
	}
}

func TestUSDToFunding_MissingRateFallsBackToOne(t *testing.T) {
	r := testRegistry()
	if got := r.USDToFunding(d(75), "BRK"); !got.Equal(d(75)) {
		t.Errorf("missing funding rate should pass USD through, got %s", got)
	}
	// Normal path: 6800.05 USD in BTC at 68000.50.
	got := r.USDToFunding(d(6800.05), "BTC")
	if !got.Equal(d(0.1)) {
		t.Errorf("USDToFunding = %s, want 0.1", got)
	}
}

func TestConvert_Strict(t *testing.T) {
	r := testRegistry()

	got, err := r.Convert(d(1), "BTC", "EUR")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	want := d(68000.50).Div(d(1.08))
	if !got.Sub(want).Abs().LessThan(d(0.000001)) {
		t.Errorf("Convert(1 BTC → EUR) = %s, want %s", got, want)
	}

	if _, err := r.Convert(d(1), "BRK", "USD"); !errors.Is(err, reject.ErrConversionUnavailable) {
		t.Errorf("expected ErrConversionUnavailable for zero-rate source, got %v", err)
	}
	if _, err := r.Convert(d(1), "USD", "NOPE"); !errors.Is(err, reject.ErrConversionUnavailable) {
		t.Errorf("expected ErrConversionUnavailable for unknown target, got %v", err)
	}
}

func TestConvert_SameCurrencyIdentity(t *testing.T) {
	r := testRegistry()
	got, err := r.Convert(d(5), "BRK", "BRK")
	if err != nil || !got.Equal(d(5)) {
		t.Errorf("same-currency convert = %s, %v; want 5, nil", got, err)
	}
}

// --- Journal ---

func TestJournal_RecordsLiveOnly(t *testing.T) {
	st := store.NewMemoryStore()
	j := ledger.NewJournal(st)

	j.Record(model.ModeDemo, model.TxDeposit, "demo top-up", d(100), "USD")
	j.Record(model.ModeLive, model.TxDeposit, "wallet funding", d(250), "USD")
	j.Record(model.ModeLive, model.TxTradeMargin, "Buy EUR/USD", d(-50), "USD")

	txs, err := j.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("journal length = %d, want 2 (demo activity is never recorded)", len(txs))
	}
	// Newest first.
	if txs[0].Type != model.TxTradeMargin || !txs[0].Amount.Equal(d(-50)) {
		t.Errorf("txs[0] = %+v", txs[0])
	}
	if txs[1].Type != model.TxDeposit || !txs[1].Amount.Equal(d(250)) {
		t.Errorf("txs[1] = %+v", txs[1])
	}
	for _, tx := range txs {
		if tx.ID == "" || tx.Timestamp.IsZero() {
			t.Errorf("journal entry missing id or timestamp: %+v", tx)
		}
	}
}

// --- Demo seeding ---

func TestSeedDemo(t *testing.T) {
	b := ledger.NewBook()
	r := testRegistry()
	ledger.SeedDemo(b, r)

	if got := b.Balance(model.ModeDemo, "USD"); !got.Equal(d(10000)) {
		t.Errorf("demo USD = %s, want 10000", got)
	}
	if got := b.Balance(model.ModeDemo, "UT"); !got.Equal(d(10000)) {
		t.Errorf("demo UT = %s, want 10000", got)
	}
	wantBTC := d(10000).Div(d(68000.50))
	if got := b.Balance(model.ModeDemo, "BTC"); !got.Equal(wantBTC) {
		t.Errorf("demo BTC = %s, want %s", got, wantBTC)
	}
	if got := b.Balance(model.ModeDemo, "BRK"); !got.IsZero() {
		t.Errorf("zero-rate asset should seed 0, got %s", got)
	}
	// Live book stays empty.
	if got := b.Balance(model.ModeLive, "USD"); !got.IsZero() {
		t.Errorf("live USD should be 0 after demo seed, got %s", got)
	}
}
