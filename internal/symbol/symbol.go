// Package symbol handles trading-pair parsing, classification, and the
// mapping between platform pairs and upstream feed tickers.
package symbol

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Asset classes for tradable pairs.
const (
	ClassForex     = "FOREX"
	ClassCrypto    = "CRYPTO"
	ClassEquity    = "EQUITY"
	ClassCommodity = "COMMODITY"
)

// pairRegex matches: {BASE}/{QUOTE}
// Example: EUR/USD, BTC/USD, US100/USD
var pairRegex = regexp.MustCompile(`^([A-Z0-9]{2,6})/([A-Z]{3})$`)

var (
	ErrInvalidPair = errors.New("symbol: invalid pair format")
	ErrUnknownPair = errors.New("symbol: pair not in tradable universe")
)

// Pair is a parsed, validated tradable pair.
type Pair struct {
	Value string `json:"value"` // "EUR/USD"
	Label string `json:"label"`
	Base  string `json:"base"`
	Quote string `json:"quote"`
	Class string `json:"class"`
}

// universe is the full tradable set, grouped by class.
var universe = []Pair{
	// Major forex pairs.
	{Value: "EUR/USD", Label: "EUR/USD", Class: ClassForex},
	{Value: "GBP/USD", Label: "GBP/USD", Class: ClassForex},
	{Value: "USD/JPY", Label: "USD/JPY", Class: ClassForex},
	{Value: "USD/CHF", Label: "USD/CHF", Class: ClassForex},
	{Value: "USD/CAD", Label: "USD/CAD", Class: ClassForex},
	{Value: "AUD/USD", Label: "AUD/USD", Class: ClassForex},
	{Value: "NZD/USD", Label: "NZD/USD", Class: ClassForex},
	// Exotics with reliable data coverage.
	{Value: "USD/CNH", Label: "USD/CNH", Class: ClassForex},
	{Value: "USD/HKD", Label: "USD/HKD", Class: ClassForex},
	{Value: "USD/SGD", Label: "USD/SGD", Class: ClassForex},
	{Value: "USD/MXN", Label: "USD/MXN", Class: ClassForex},
	{Value: "USD/TRY", Label: "USD/TRY", Class: ClassForex},

	{Value: "BTC/USD", Label: "Bitcoin", Class: ClassCrypto},
	{Value: "ETH/USD", Label: "Ethereum", Class: ClassCrypto},
	{Value: "BNB/USD", Label: "Binance Coin", Class: ClassCrypto},
	{Value: "SOL/USD", Label: "Solana", Class: ClassCrypto},
	{Value: "XRP/USD", Label: "Ripple", Class: ClassCrypto},
	{Value: "DOGE/USD", Label: "Dogecoin", Class: ClassCrypto},
	{Value: "ADA/USD", Label: "Cardano", Class: ClassCrypto},
	{Value: "TRX/USD", Label: "Tron", Class: ClassCrypto},

	{Value: "US100/USD", Label: "NASDAQ 100", Class: ClassEquity},
	{Value: "US500/USD", Label: "S&P 500", Class: ClassEquity},
	{Value: "US30/USD", Label: "Dow Jones 30", Class: ClassEquity},
	{Value: "AAPL/USD", Label: "Apple Inc.", Class: ClassEquity},
	{Value: "GOOGL/USD", Label: "Alphabet Inc. (Google)", Class: ClassEquity},
	{Value: "TSLA/USD", Label: "Tesla, Inc.", Class: ClassEquity},
	{Value: "AMZN/USD", Label: "Amazon.com, Inc.", Class: ClassEquity},

	{Value: "XAU/USD", Label: "Gold", Class: ClassCommodity},
	{Value: "XAG/USD", Label: "Silver", Class: ClassCommodity},
}

// indexProxies maps equity-index pairs to the ETF tickers the equities feed
// actually quotes. Index symbols themselves have no reliable live stream.
var indexProxies = map[string]string{
	"US100/USD": "QQQ", // Invesco QQQ Trust (NASDAQ 100)
	"US500/USD": "SPY", // SPDR S&P 500 ETF Trust
	"US30/USD":  "DIA", // SPDR Dow Jones Industrial Average ETF
}

var byValue = func() map[string]Pair {
	m := make(map[string]Pair, len(universe))
	for _, p := range universe {
		parts := strings.SplitN(p.Value, "/", 2)
		p.Base, p.Quote = parts[0], parts[1]
		m[p.Value] = p
	}
	return m
}()

// Parse parses and validates a pair string against the tradable universe.
func Parse(value string) (Pair, error) {
	if !pairRegex.MatchString(value) {
		return Pair{}, fmt.Errorf("%w: %s (expected BASE/QUOTE)", ErrInvalidPair, value)
	}
	p, ok := byValue[value]
	if !ok {
		return Pair{}, fmt.Errorf("%w: %s", ErrUnknownPair, value)
	}
	return p, nil
}

// All returns the tradable universe in listing order.
func All() []Pair {
	out := make([]Pair, 0, len(universe))
	for _, p := range universe {
		out = append(out, byValue[p.Value])
	}
	return out
}

// EquityPairs returns the pairs routed to the equities feed.
func EquityPairs() []Pair {
	var out []Pair
	for _, p := range All() {
		if p.Class == ClassEquity {
			out = append(out, p)
		}
	}
	return out
}

// StreamPairs returns the pairs routed to the fx/crypto streaming feed
// (everything that is not an equity).
func StreamPairs() []Pair {
	var out []Pair
	for _, p := range All() {
		if p.Class != ClassEquity {
			out = append(out, p)
		}
	}
	return out
}

// EquityFeedSymbol maps a pair to the ticker subscribed on the equities
// feed. Index pairs use their ETF proxies; plain equities use the base
// symbol.
func EquityFeedSymbol(pair string) string {
	if proxy, ok := indexProxies[pair]; ok {
		return proxy
	}
	p, ok := byValue[pair]
	if !ok {
		return ""
	}
	return p.Base
}

// FromEquityFeedSymbol reverses EquityFeedSymbol for inbound ticks.
func FromEquityFeedSymbol(ticker string) (string, bool) {
	for pair, proxy := range indexProxies {
		if proxy == ticker {
			return pair, true
		}
	}
	for _, p := range EquityPairs() {
		if _, proxied := indexProxies[p.Value]; proxied {
			continue
		}
		if p.Base == ticker {
			return p.Value, true
		}
	}
	return "", false
}
