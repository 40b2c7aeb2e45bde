package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/engine"
	"github.com/tradedesk/sim-engine/internal/model"
	"github.com/tradedesk/sim-engine/internal/symbol"
)

// --- Market data ---

// ListPairs handles GET /api/v1/pairs
func (s *Server) ListPairs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, symbol.All())
}

// ListPrices handles GET /api/v1/prices
func (s *Server) ListPrices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Board.Snapshot())
}

// GetPrice handles GET /api/v1/price?pair=EUR/USD
func (s *Server) GetPrice(w http.ResponseWriter, r *http.Request) {
	pair := r.URL.Query().Get("pair")
	if _, err := symbol.Parse(pair); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	price, ok := s.Board.Get(pair)
	if !ok {
		writeError(w, "no live price for "+pair, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"price": price})
}

// ListAssets handles GET /api/v1/assets
func (s *Server) ListAssets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Assets.List())
}

// GetBalances handles GET /api/v1/balances?mode=demo|live
// Defaults to the active mode.
func (s *Server) GetBalances(w http.ResponseWriter, r *http.Request) {
	mode := s.Book.Mode()
	if m := r.URL.Query().Get("mode"); m != "" {
		mode = model.Mode(m)
		if !mode.Valid() {
			writeError(w, "mode must be demo or live", http.StatusBadRequest)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":     mode,
		"balances": s.Book.Balances(mode),
	})
}

// --- Account mode ---

// GetMode handles GET /api/v1/mode
func (s *Server) GetMode(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":             s.Book.Mode(),
		"wallet_connected": s.Wallet.Connected(),
	})
}

// SetMode handles PUT /api/v1/mode
func (s *Server) SetMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode model.Mode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.Wallet.SetMode(req.Mode); err != nil {
		writeReject(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.Mode{"mode": s.Book.Mode()})
}

// --- Wallet ---

// ConnectWallet handles POST /api/v1/wallet/connect
func (s *Server) ConnectWallet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account string `json:"account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Account == "" {
		writeError(w, "account is required", http.StatusBadRequest)
		return
	}
	s.Wallet.Connect(req.Account)
	writeJSON(w, http.StatusOK, map[string]any{"connected": true, "mode": s.Book.Mode()})
}

// DisconnectWallet handles POST /api/v1/wallet/disconnect
func (s *Server) DisconnectWallet(w http.ResponseWriter, _ *http.Request) {
	s.Wallet.Disconnect()
	writeJSON(w, http.StatusOK, map[string]any{"connected": false, "mode": s.Book.Mode()})
}

// FundWallet handles POST /api/v1/wallet/fund
func (s *Server) FundWallet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.Wallet.Fund(req.Amount); err != nil {
		writeReject(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"balances": s.Book.Balances(model.ModeLive),
	})
}

// SwapAssets handles POST /api/v1/wallet/swap
func (s *Server) SwapAssets(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From   string          `json:"from"`
		To     string          `json:"to"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	received, err := s.Wallet.Swap(req.From, req.To, req.Amount)
	if err != nil {
		writeReject(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"received": received,
		"currency": req.To,
	})
}

// WalletTotal handles GET /api/v1/wallet/total
func (s *Server) WalletTotal(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"total_usd": s.Wallet.TotalUSD()})
}

// ListTransactions handles GET /api/v1/wallet/transactions
func (s *Server) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.Journal.List(r.Context())
	if err != nil {
		writeError(w, "failed to list transactions", http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []model.WalletTransaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// --- Profile ---

// GetProfile handles GET /api/v1/profile
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.Wallet.Profile(r.Context())
	if err != nil {
		writeError(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProfile handles PUT /api/v1/profile
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p model.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.Wallet.UpdateProfile(r.Context(), &p); err != nil {
		writeError(w, "failed to save profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- Margin trades ---

// QuoteTrade handles POST /api/v1/trades/quote
func (s *Server) QuoteTrade(w http.ResponseWriter, r *http.Request) {
	var req engine.TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	q, err := s.Engine.PlaceTrade(req)
	if err != nil {
		writeReject(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// ConfirmTrade handles POST /api/v1/trades/{quoteID}/confirm
func (s *Server) ConfirmTrade(w http.ResponseWriter, r *http.Request) {
	trade, err := s.Engine.ConfirmTrade(chi.URLParam(r, "quoteID"))
	if err != nil {
		writeReject(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trade)
}

// CloseTrade handles POST /api/v1/trades/{tradeID}/close
func (s *Server) CloseTrade(w http.ResponseWriter, r *http.Request) {
	trade, err := s.Engine.CloseTrade(chi.URLParam(r, "tradeID"))
	if err != nil {
		writeReject(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

// ListOpenTrades handles GET /api/v1/trades/open
func (s *Server) ListOpenTrades(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.OpenTrades(s.Book.Mode()))
}

// ListTradeHistory handles GET /api/v1/trades/history
func (s *Server) ListTradeHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.TradeHistory(s.Book.Mode()))
}

// --- Binary options ---

// QuoteOption handles POST /api/v1/options/quote
func (s *Server) QuoteOption(w http.ResponseWriter, r *http.Request) {
	var req struct {
		engine.OptionRequest
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	q, err := s.Engine.PlaceOption(req.OptionRequest, req.Currency)
	if err != nil {
		writeReject(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// ConfirmOption handles POST /api/v1/options/{quoteID}/confirm
func (s *Server) ConfirmOption(w http.ResponseWriter, r *http.Request) {
	opt, err := s.Engine.ConfirmOption(chi.URLParam(r, "quoteID"))
	if err != nil {
		writeReject(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, opt)
}

// ListActiveOptions handles GET /api/v1/options/active
func (s *Server) ListActiveOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.ActiveOptions(s.Book.Mode()))
}

// ListOptionHistory handles GET /api/v1/options/history
func (s *Server) ListOptionHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.OptionHistory(s.Book.Mode()))
}

// --- Staking ---

// ListStakingPools handles GET /api/v1/staking/pools
func (s *Server) ListStakingPools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Staking.Pools())
}

// ListStakes handles GET /api/v1/staking/stakes
func (s *Server) ListStakes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Staking.Stakes())
}

// Stake handles POST /api/v1/staking/stake
func (s *Server) Stake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PoolID   string          `json:"pool_id"`
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	stake, err := s.Staking.Stake(req.PoolID, req.Amount, req.Currency)
	if err != nil {
		writeReject(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stake)
}

// WithdrawAll handles POST /api/v1/staking/stakes/{stakeID}/withdraw
func (s *Server) WithdrawAll(w http.ResponseWriter, r *http.Request) {
	res, err := s.Staking.WithdrawAll(chi.URLParam(r, "stakeID"))
	if err != nil {
		writeReject(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// WithdrawProfit handles POST /api/v1/staking/stakes/{stakeID}/withdraw-profit
func (s *Server) WithdrawProfit(w http.ResponseWriter, r *http.Request) {
	res, err := s.Staking.WithdrawProfit(chi.URLParam(r, "stakeID"))
	if err != nil {
		writeReject(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- Lottery ---

// ListLotteryPools handles GET /api/v1/lottery/pools
func (s *Server) ListLotteryPools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Lottery.Pools())
}

// ListTickets handles GET /api/v1/lottery/tickets
func (s *Server) ListTickets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Lottery.Tickets())
}

// BuyTickets handles POST /api/v1/lottery/{poolID}/tickets
func (s *Server) BuyTickets(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count    int64  `json:"count"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "ticket count must be a whole number", http.StatusBadRequest)
		return
	}
	cost, err := s.Lottery.BuyTickets(chi.URLParam(r, "poolID"), req.Count, req.Currency)
	if err != nil {
		writeReject(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"cost":     cost,
		"currency": req.Currency,
	})
}
