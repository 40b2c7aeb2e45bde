package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tradedesk/sim-engine/internal/api"
	"github.com/tradedesk/sim-engine/internal/engine"
	"github.com/tradedesk/sim-engine/internal/ledger"
	"github.com/tradedesk/sim-engine/internal/lottery"
	"github.com/tradedesk/sim-engine/internal/metrics"
	"github.com/tradedesk/sim-engine/internal/notify"
	"github.com/tradedesk/sim-engine/internal/oracle"
	"github.com/tradedesk/sim-engine/internal/staking"
	"github.com/tradedesk/sim-engine/internal/store"
	"github.com/tradedesk/sim-engine/internal/wallet"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
			opt, err := redis.ParseURL(redisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, 30*time.Second)
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Books, assets, journal ---
	book := ledger.NewBook()
	assets := ledger.NewRegistry(seedAssets())
	ledger.SeedDemo(book, assets)
	journal := ledger.NewJournal(st)

	// --- Price board and upstream feeds ---
	board := oracle.NewBoard()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if url := os.Getenv("FEED_EQUITY_URL"); url != "" {
		go oracle.NewEquityFeed(url, board).Run(ctx)
	} else {
		slog.Warn("FEED_EQUITY_URL not set, equity pairs will have no live prices")
	}
	if url := os.Getenv("FEED_STREAM_URL"); url != "" {
		go oracle.NewStreamFeed(url, board).Run(ctx)
	} else {
		slog.Warn("FEED_STREAM_URL not set, fx/crypto pairs will have no live prices")
	}

	// --- Notification hub ---
	hub := notify.NewHub()
	go hub.Run()
	notifier := notify.Multi{notify.LogNotifier{}, hub}

	// --- Engines ---
	now := time.Now()
	eng := engine.New(book, assets, board, journal, notifier)
	if ms := os.Getenv("SETTLE_DELAY_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v >= 0 {
			eng.SetSettleDelay(time.Duration(v) * time.Millisecond)
		}
	}
	stakingSvc := staking.New(book, journal, notifier, seedStakingPools(now))
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	lotterySvc := lottery.New(book, assets, journal, notifier, seedLotteryPools(now), rng)
	walletSvc := wallet.New(book, assets, journal, notifier, st)

	// Settle any pool that was already due at startup (the seeded sold-out
	// lottery), then poll.
	lotterySvc.DrawDue()
	go lotterySvc.Run(ctx)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"sim-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	srv := &api.Server{
		Book:    book,
		Assets:  assets,
		Board:   board,
		Journal: journal,
		Engine:  eng,
		Staking: stakingSvc,
		Lottery: lotterySvc,
		Wallet:  walletSvc,
		Hub:     hub,
	}
	srv.Routes(r)

	// --- Server ---
	httpSrv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("sim-engine listening", "port", port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	slog.Info("shutting down sim-engine...")
	cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("sim-engine stopped")
}
