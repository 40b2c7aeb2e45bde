// Package api exposes the settlement engine over HTTP. Handlers decode,
// delegate to the engines, and map rejection sentinels to status codes.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tradedesk/sim-engine/internal/engine"
	"github.com/tradedesk/sim-engine/internal/ledger"
	"github.com/tradedesk/sim-engine/internal/lottery"
	"github.com/tradedesk/sim-engine/internal/notify"
	"github.com/tradedesk/sim-engine/internal/oracle"
	"github.com/tradedesk/sim-engine/internal/reject"
	"github.com/tradedesk/sim-engine/internal/staking"
	"github.com/tradedesk/sim-engine/internal/wallet"
)

// Server binds every engine to the HTTP surface.
type Server struct {
	Book    *ledger.Book
	Assets  *ledger.Registry
	Board   *oracle.Board
	Journal *ledger.Journal
	Engine  *engine.Engine
	Staking *staking.Service
	Lottery *lottery.Service
	Wallet  *wallet.Service
	Hub     *notify.Hub
}

// Routes mounts all API routes under /api/v1 on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ws", s.Hub.HandleWS)

		r.Get("/pairs", s.ListPairs)
		r.Get("/prices", s.ListPrices)
		r.Get("/price", s.GetPrice)
		r.Get("/assets", s.ListAssets)
		r.Get("/balances", s.GetBalances)

		r.Get("/mode", s.GetMode)
		r.Put("/mode", s.SetMode)

		r.Route("/wallet", func(r chi.Router) {
			r.Post("/connect", s.ConnectWallet)
			r.Post("/disconnect", s.DisconnectWallet)
			r.Post("/fund", s.FundWallet)
			r.Post("/swap", s.SwapAssets)
			r.Get("/total", s.WalletTotal)
			r.Get("/transactions", s.ListTransactions)
		})

		r.Get("/profile", s.GetProfile)
		r.Put("/profile", s.UpdateProfile)

		r.Route("/trades", func(r chi.Router) {
			r.Post("/quote", s.QuoteTrade)
			r.Post("/{quoteID}/confirm", s.ConfirmTrade)
			r.Post("/{tradeID}/close", s.CloseTrade)
			r.Get("/open", s.ListOpenTrades)
			r.Get("/history", s.ListTradeHistory)
		})

		r.Route("/options", func(r chi.Router) {
			r.Post("/quote", s.QuoteOption)
			r.Post("/{quoteID}/confirm", s.ConfirmOption)
			r.Get("/active", s.ListActiveOptions)
			r.Get("/history", s.ListOptionHistory)
		})

		r.Route("/staking", func(r chi.Router) {
			r.Get("/pools", s.ListStakingPools)
			r.Get("/stakes", s.ListStakes)
			r.Post("/stake", s.Stake)
			r.Post("/stakes/{stakeID}/withdraw", s.WithdrawAll)
			r.Post("/stakes/{stakeID}/withdraw-profit", s.WithdrawProfit)
		})

		r.Route("/lottery", func(r chi.Router) {
			r.Get("/pools", s.ListLotteryPools)
			r.Get("/tickets", s.ListTickets)
			r.Post("/{poolID}/tickets", s.BuyTickets)
		})
	})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeReject maps a rejection sentinel to its HTTP status. Malformed
// input is the caller's fault (400), a missing target is 404, and every
// state-dependent rejection is a conflict (409).
func writeReject(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, reject.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, reject.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, reject.ErrInsufficientFunds),
		errors.Is(err, reject.ErrPriceUnavailable),
		errors.Is(err, reject.ErrCapacityExceeded),
		errors.Is(err, reject.ErrWindowClosed),
		errors.Is(err, reject.ErrConversionUnavailable):
		status = http.StatusConflict
	}
	writeError(w, err.Error(), status)
}

// writeJSON writes a JSON success response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
