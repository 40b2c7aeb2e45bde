package oracle

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/tradedesk/sim-engine/internal/metrics"
	"github.com/tradedesk/sim-engine/internal/symbol"
)

const (
	reconnectDelay = 5 * time.Second
	readDeadline   = 90 * time.Second
)

// subscribeLimiter throttles outbound subscribe messages so a reconnect
// burst does not trip the upstream's rate limits.
func subscribeLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(100*time.Millisecond), 5)
}

// EquityFeed streams equity ticks (stocks and index ETF proxies). The wire
// protocol is trade batches plus an application-level ping the client must
// answer with a pong.
type EquityFeed struct {
	url     string
	board   *Board
	limiter *rate.Limiter
}

// NewEquityFeed creates a worker connecting to the equities feed URL.
func NewEquityFeed(url string, board *Board) *EquityFeed {
	return &EquityFeed{url: url, board: board, limiter: subscribeLimiter()}
}

// Run connects, subscribes, and pumps ticks into the board until ctx is
// cancelled, reconnecting after any failure.
func (f *EquityFeed) Run(ctx context.Context) {
	for {
		if err := f.runOnce(ctx); err != nil {
			slog.Error("equity feed disconnected", "error", err)
			metrics.FeedReconnects.WithLabelValues("equity").Inc()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (f *EquityFeed) runOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, p := range symbol.EquityPairs() {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}
		sub := map[string]string{"type": "subscribe", "symbol": symbol.EquityFeedSymbol(p.Value)}
		if err := conn.WriteJSON(sub); err != nil {
			return err
		}
	}
	slog.Info("equity feed subscribed", "pairs", len(symbol.EquityPairs()))

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg struct {
			Type string `json:"type"`
			Data []struct {
				Symbol string  `json:"s"`
				Price  float64 `json:"p"`
			} `json:"data"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("equity feed: unparseable message", "error", err)
			continue
		}

		switch msg.Type {
		case "ping":
			if err := conn.WriteJSON(map[string]string{"type": "pong"}); err != nil {
				return err
			}
		case "trade":
			for _, t := range msg.Data {
				pair, ok := symbol.FromEquityFeedSymbol(t.Symbol)
				if !ok {
					continue
				}
				f.board.Set(pair, decimal.NewFromFloat(t.Price))
				metrics.FeedTicks.WithLabelValues("equity").Inc()
			}
		}
	}
}

// StreamFeed streams forex, crypto, and commodity quotes. One subscribe
// message carries the whole symbol list; each inbound event is a single
// price update.
type StreamFeed struct {
	url     string
	board   *Board
	limiter *rate.Limiter
}

// NewStreamFeed creates a worker connecting to the fx/crypto feed URL.
func NewStreamFeed(url string, board *Board) *StreamFeed {
	return &StreamFeed{url: url, board: board, limiter: subscribeLimiter()}
}

// Run connects, subscribes, and pumps quotes into the board until ctx is
// cancelled, reconnecting after any failure.
func (f *StreamFeed) Run(ctx context.Context) {
	for {
		if err := f.runOnce(ctx); err != nil {
			slog.Error("stream feed disconnected", "error", err)
			metrics.FeedReconnects.WithLabelValues("stream").Inc()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (f *StreamFeed) runOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	pairs := symbol.StreamPairs()
	symbols := make([]string, 0, len(pairs))
	for _, p := range pairs {
		symbols = append(symbols, p.Value)
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}
	sub := map[string]any{
		"action": "subscribe",
		"params": map[string]string{"symbols": strings.Join(symbols, ",")},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}
	slog.Info("stream feed subscribed", "pairs", len(symbols))

	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg struct {
			Event  string  `json:"event"`
			Symbol string  `json:"symbol"`
			Price  float64 `json:"price"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("stream feed: unparseable message", "error", err)
			continue
		}
		if msg.Event != "price" || msg.Symbol == "" {
			continue
		}
		f.board.Set(msg.Symbol, decimal.NewFromFloat(msg.Price))
		metrics.FeedTicks.WithLabelValues("stream").Inc()
	}
}
