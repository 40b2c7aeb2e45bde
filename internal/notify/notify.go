// Package notify delivers user-facing event notifications. The engine
// emits them on settlements, resolutions, and draws; delivery is
// best-effort and never blocks settlement.
package notify

import (
	"log/slog"
	"time"
)

// Kind classifies a notification for client rendering.
type Kind string

const (
	KindTrade   Kind = "trade"
	KindOption  Kind = "option"
	KindStaking Kind = "staking"
	KindLottery Kind = "lottery"
	KindWallet  Kind = "wallet"
)

// Notification is one user-facing event.
type Notification struct {
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier receives engine notifications.
type Notifier interface {
	Notify(kind Kind, message string)
}

// LogNotifier writes notifications to the process log. Used standalone in
// tests and as the fallback when no hub is wired.
type LogNotifier struct{}

func (LogNotifier) Notify(kind Kind, message string) {
	slog.Info("notification", "kind", kind, "message", message)
}

// Multi fans one notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(kind Kind, message string) {
	for _, n := range m {
		n.Notify(kind, message)
	}
}
