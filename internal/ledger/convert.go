package ledger

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/reject"
)

// QuoteToUSD converts a quote-currency P/L amount to its USD reporting
// value. USD converts 1:1. When the registry has no positive rate for the
// quote currency the USD value degrades to zero with a warning rather than
// failing the settlement; the funding-currency credit is what the account
// actually receives.
func (r *Registry) QuoteToUSD(amount decimal.Decimal, quoteCurrency string) decimal.Decimal {
	if quoteCurrency == "USD" {
		return amount
	}
	rate := r.USDPrice(quoteCurrency)
	if rate.LessThanOrEqual(decimal.Zero) {
		slog.Warn("no USD rate for quote currency, reporting zero",
			"currency", quoteCurrency, "amount", amount)
		return decimal.Zero
	}
	return amount.Mul(rate)
}

// USDToFunding converts a USD amount into the trade's funding currency.
// A missing or non-positive funding rate falls back to a divisor of 1, so
// the USD figure passes through unchanged.
func (r *Registry) USDToFunding(amount decimal.Decimal, fundingCurrency string) decimal.Decimal {
	rate := r.USDPrice(fundingCurrency)
	if rate.LessThanOrEqual(decimal.Zero) {
		rate = decimal.NewFromInt(1)
	}
	return amount.Div(rate)
}

// Convert strictly converts between two wallet currencies via their USD
// rates. Unlike the settlement path, a missing or non-positive rate on
// either side is a hard rejection; callers use this where silently wrong
// amounts would move funds (swaps, lottery ticket pricing).
func (r *Registry) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	fromRate := r.USDPrice(from)
	if fromRate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: no USD rate for %s", reject.ErrConversionUnavailable, from)
	}
	toRate := r.USDPrice(to)
	if toRate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: no USD rate for %s", reject.ErrConversionUnavailable, to)
	}
	return amount.Mul(fromRate).Div(toRate), nil
}
