// Package wallet handles the live wallet: funding, swaps, connection
// state, account-mode switching, and the persisted user profile.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tradedesk/sim-engine/internal/ledger"
	"github.com/tradedesk/sim-engine/internal/model"
	"github.com/tradedesk/sim-engine/internal/notify"
	"github.com/tradedesk/sim-engine/internal/reject"
	"github.com/tradedesk/sim-engine/internal/store"
)

// Service owns the wallet-level operations. Funding and swaps always act on
// the live book; the demo book only ever receives its seed grant.
type Service struct {
	book     *ledger.Book
	assets   *ledger.Registry
	journal  *ledger.Journal
	notifier notify.Notifier
	st       store.Store

	mu        sync.Mutex
	connected bool
}

// New creates a wallet service.
func New(book *ledger.Book, assets *ledger.Registry, journal *ledger.Journal, notifier notify.Notifier, st store.Store) *Service {
	return &Service{
		book:     book,
		assets:   assets,
		journal:  journal,
		notifier: notifier,
		st:       st,
	}
}

// Connected reports whether a wallet is connected.
func (s *Service) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Connect marks the wallet connected and switches a demo account to live.
func (s *Service) Connect(account string) {
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()

	if s.book.Mode() == model.ModeDemo {
		s.book.SetMode(model.ModeLive)
	}

	short := account
	if len(account) > 10 {
		short = account[:6] + "..." + account[len(account)-4:]
	}
	slog.Info("wallet connected", "account", short)
	s.notifier.Notify(notify.KindWallet, fmt.Sprintf("Connected to wallet. Account: %s", short))
}

// Disconnect clears the connection and reverts to demo for safety.
func (s *Service) Disconnect() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	s.book.SetMode(model.ModeDemo)
	slog.Info("wallet disconnected")
}

// SetMode switches the account mode. Live requires a connected wallet.
func (s *Service) SetMode(mode model.Mode) error {
	if mode == model.ModeLive && !s.Connected() {
		return fmt.Errorf("%w: connect your wallet to use live trading", reject.ErrInvalidInput)
	}
	return s.book.SetMode(mode)
}

// Fund credits USD into the live wallet and audits a deposit.
func (s *Service) Fund(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: deposit amount must be positive", reject.ErrInvalidInput)
	}
	if err := s.book.Credit(model.ModeLive, "USD", amount); err != nil {
		return err
	}
	s.journal.Record(s.book.Mode(), model.TxDeposit, "Funds added to wallet", amount, "USD")
	slog.Info("wallet funded", "amount", amount.String())
	s.notifier.Notify(notify.KindWallet,
		fmt.Sprintf("%s USD has been successfully added to your wallet.", amount.StringFixed(2)))
	return nil
}

// Swap converts between two wallet assets at their USD reference rates.
// Both legs settle on the live book.
func (s *Service) Swap(from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: swap amount must be positive", reject.ErrInvalidInput)
	}
	if from == to {
		return decimal.Zero, fmt.Errorf("%w: cannot swap %s for itself", reject.ErrInvalidInput, from)
	}

	received, err := s.assets.Convert(amount, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.book.Debit(model.ModeLive, from, amount); err != nil {
		return decimal.Zero, err
	}
	s.book.Credit(model.ModeLive, to, received)

	s.journal.Record(s.book.Mode(), model.TxSwap,
		fmt.Sprintf("Swapped %s %s for %s %s",
			amount.StringFixed(4), from, received.StringFixed(4), to),
		received, to)

	slog.Info("assets swapped",
		"from", from, "to", to,
		"amount", amount.String(), "received", received.String(),
	)
	s.notifier.Notify(notify.KindWallet,
		fmt.Sprintf("Successfully swapped %s %s for %s %s!",
			amount.StringFixed(4), from, received.StringFixed(4), to))
	return received, nil
}

// TotalUSD values the live wallet at the registry's reference rates.
func (s *Service) TotalUSD() decimal.Decimal {
	total := decimal.Zero
	for currency, balance := range s.book.Balances(model.ModeLive) {
		total = total.Add(balance.Mul(s.assets.USDPrice(currency)))
	}
	return total
}

// Profile returns the persisted profile, or an empty one before the first
// save.
func (s *Service) Profile(ctx context.Context) (*model.UserProfile, error) {
	p, err := s.st.GetProfile(ctx)
	if errors.Is(err, store.ErrProfileNotFound) {
		return &model.UserProfile{}, nil
	}
	return p, err
}

// UpdateProfile persists the profile.
func (s *Service) UpdateProfile(ctx context.Context, p *model.UserProfile) error {
	if err := s.st.SaveProfile(ctx, p); err != nil {
		return err
	}
	slog.Info("profile updated", "username", p.Username)
	s.notifier.Notify(notify.KindWallet, "Your profile information has been successfully saved.")
	return nil
}
