package main

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/model"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// seedAssets is the wallet asset universe with reference USD rates.
func seedAssets() []model.Asset {
	return []model.Asset{
		{Name: "UT", Symbol: "UT", PriceUSD: d(1.00), AccountNumber: "0x9a8b7c6d5e4f3a2b1c0d9e8f7a6b5c4d3e2f1a0b"},
		{Name: "Bitcoin", Symbol: "BTC", PriceUSD: d(68000.50), AccountNumber: "bc1q09g7w4g45sl55h0w88279ph48ge2z2t8gqs9k6"},
		{Name: "Ethereum", Symbol: "ETH", PriceUSD: d(3500.75), AccountNumber: "0x1f9090aaE28b8a3dCeaDf281B0F12828e676c326"},
		{Name: "Dogecoin", Symbol: "DOGE", PriceUSD: d(0.15), AccountNumber: "DBark7iU3X4v5N6p7q8R9sAtBuCvDwExFz"},
		{Name: "Euro", Symbol: "EUR", PriceUSD: d(1.08), AccountNumber: "DE89 3704 0044 0532 0130 00"},
		{Name: "US Dollar", Symbol: "USD", PriceUSD: d(1.00), AccountNumber: "021000021 987654321"},
		{Name: "Japanese Yen", Symbol: "JPY", PriceUSD: d(0.0064), AccountNumber: "JP40 0005 0000 0001 2345 6789"},
		{Name: "British Pound", Symbol: "GBP", PriceUSD: d(1.27), AccountNumber: "GB33 BUKB 2020 1555 5555 55"},
		{Name: "Gold", Symbol: "XAU", PriceUSD: d(2300.00), AccountNumber: "GLD-ACC-9821-B47-C01"},
		{Name: "Silver", Symbol: "XAG", PriceUSD: d(29.50), AccountNumber: "SLV-ACC-1109-A12-D99"},
	}
}

// seedStakingPools returns the launch staking pools, including one that has
// already ended so the expired-pool withdrawal path is reachable.
func seedStakingPools(now time.Time) []model.StakingPool {
	day := 24 * time.Hour
	return []model.StakingPool{
		{
			ID:            "sp-1",
			Title:         "High-Yield BTC-ETH Liquidity Pool",
			Assets:        []string{"BTC", "ETH"},
			Description:   "Provide liquidity to a premier decentralized exchange and earn rewards from trading fees. A stable and high-volume pool.",
			TotalGoal:     d(10000000),
			CurrentAmount: d(2500000),
			StartDate:     "2024-07-01",
			EndDate:       now.Add(300 * day),
			DailyROI:      d(0.05),
			TotalAPY:      d(18.25),
		},
		{
			ID:            "sp-2",
			Title:         "Forex Growth Fund",
			Assets:        []string{"EUR", "USD", "GBP"},
			Description:   "Invest in a diversified portfolio of major forex pairs. Managed by algorithmic trading bots for optimized returns.",
			TotalGoal:     d(5000000),
			CurrentAmount: d(4800000),
			StartDate:     "2024-06-15",
			EndDate:       now.Add(5 * day),
			DailyROI:      d(0.1),
			TotalAPY:      d(36.5),
		},
		{
			ID:            "sp-3",
			Title:         "Stablecoin Savings Vault",
			Assets:        []string{"USD"},
			Description:   "A low-risk staking option. Earn a consistent, predictable yield on your stablecoin holdings. Your capital is used for low-leverage lending.",
			TotalGoal:     d(25000000),
			CurrentAmount: d(25000000),
			StartDate:     "2024-05-01",
			EndDate:       now.Add(240 * day),
			DailyROI:      d(0.02),
			TotalAPY:      d(7.3),
		},
		{
			ID:            "sp-4",
			Title:         "Doge Coin Speculation Pool",
			Assets:        []string{"DOGE"},
			Description:   "High-risk, high-reward. This pool speculates on the volatility of popular meme coins. For the adventurous investor.",
			TotalGoal:     d(1000000),
			CurrentAmount: d(150000),
			StartDate:     "2024-07-20",
			EndDate:       now.Add(90 * day),
			DailyROI:      d(0.5),
			TotalAPY:      d(45),
		},
		{
			ID:            "sp-5",
			Title:         "Legacy Crypto Fund",
			Assets:        []string{"BTC"},
			Description:   "This staking pool has already ended. Withdrawals for existing stakes are still available if applicable.",
			TotalGoal:     d(500000),
			CurrentAmount: d(450000),
			StartDate:     "2024-01-01",
			EndDate:       now.Add(-10 * day),
			DailyROI:      d(0.08),
			TotalAPY:      d(29.2),
		},
	}
}

// seedLotteryPools returns the launch lottery pools: one time-based, one
// ticket-based, one already sold out (drawn on startup), and one finished.
func seedLotteryPools(now time.Time) []model.LotteryPool {
	day := 24 * time.Hour
	futureDraw := now.Add(15 * day)
	pastDraw := now.Add(-2 * day)
	return []model.LotteryPool{
		{
			ID:           "lp-1",
			Title:        "Bitcoin Jackpot (Time-Based)",
			PrizeIcon:    "BTC",
			Type:         model.LotteryTimed,
			Winners:      10,
			TicketPrice:  d(25),
			Currency:     "USD",
			TotalTickets: 1000000,
			TicketsSold:  250000,
			DrawDate:     &futureDraw,
			Status:       model.LotteryActive,
		},
		{
			ID:           "lp-2",
			Title:        "Doge Meme Madness (Ticket-Based)",
			PrizeIcon:    "DOGE",
			Type:         model.LotteryTicket,
			Winners:      100,
			TicketPrice:  d(1),
			Currency:     "USD",
			TotalTickets: 1000000,
			TicketsSold:  950000,
			Status:       model.LotteryActive,
		},
		{
			// Sold out: the scheduler draws this pool on its first pass.
			ID:           "lp-3",
			Title:        "Stablecoin Grand Prize (Sold Out)",
			PrizeIcon:    "USD",
			Type:         model.LotteryTicket,
			Winners:      1,
			TicketPrice:  d(10),
			Currency:     "USD",
			TotalTickets: 50000,
			TicketsSold:  50000,
			Status:       model.LotteryActive,
		},
		{
			ID:             "lp-4",
			Title:          "ETH Community Draw (Finished)",
			PrizeIcon:      "ETH",
			Type:           model.LotteryTimed,
			Winners:        5,
			TicketPrice:    d(50),
			Currency:       "USD",
			TotalTickets:   40000,
			TicketsSold:    12000,
			DrawDate:       &pastDraw,
			Status:         model.LotteryCompleted,
			TotalPrizePool: d(300000),
			PrizePerWinner: d(60000),
		},
	}
}
