// Package reject defines the rejection taxonomy shared by every engine.
// Business rejections are ordinary error returns, never panics; callers
// classify them with errors.Is and the HTTP layer maps each class to a
// status code.
package reject

import "errors"

var (
	// ErrInvalidInput covers malformed or out-of-range request fields:
	// non-positive amounts, below-minimum amounts, unknown pairs or
	// directions, non-integer ticket counts.
	ErrInvalidInput = errors.New("reject: invalid input")

	// ErrInsufficientFunds is returned when a debit would exceed the
	// available balance in the relevant currency and mode.
	ErrInsufficientFunds = errors.New("reject: insufficient funds")

	// ErrPriceUnavailable is returned when the price board has no quote
	// for the requested pair. Absence of a price is never treated as zero.
	ErrPriceUnavailable = errors.New("reject: price unavailable")

	// ErrCapacityExceeded is returned when a stake would overflow a pool's
	// remaining capacity or a purchase exceeds remaining ticket inventory.
	ErrCapacityExceeded = errors.New("reject: capacity exceeded")

	// ErrWindowClosed is returned when the target is outside its active
	// window: an ended staking pool, a completed lottery, a stake still
	// inside its lock period, an already-closed trade.
	ErrWindowClosed = errors.New("reject: window closed")

	// ErrConversionUnavailable is returned when a cross-currency
	// conversion cannot be priced (missing or non-positive USD rate).
	ErrConversionUnavailable = errors.New("reject: conversion unavailable")

	// ErrNotFound is returned when the referenced trade, stake, or pool
	// does not exist.
	ErrNotFound = errors.New("reject: not found")
)
