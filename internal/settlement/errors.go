package settlement

import (
	"errors"
	"fmt"

	"consultpay/internal/booking"
)

var (
	ErrConsultantNotFound = errors.New("consultant not found or inactive")
	ErrPricingMismatch    = errors.New("pricing does not match consultant")
	ErrSlotUnavailable    = errors.New("time slot is not available")
	ErrSlotInPast         = errors.New("time slot is in the past")
	ErrInvalidSlot        = errors.New("invalid booking date, time or timezone")
	ErrAlreadyTerminal    = errors.New("booking is already in a terminal state")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidAction      = errors.New("action must be confirm or reject")
	ErrCurrencyMismatch   = errors.New("currency does not match wallet currency")
)

// InvalidStateError is returned when an operation is not allowed from the
// booking's current status.
type InvalidStateError struct {
	BookingID     int64
	Op            string
	Status        booking.Status
	PaymentStatus booking.PaymentStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("booking %d: cannot %s in status %s (payment %s)", e.BookingID, e.Op, e.Status, e.PaymentStatus)
}

type InsufficientBalanceError struct {
	WalletID  int64
	Available int64
	Requested int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("wallet %d: insufficient balance: available %d, requested %d", e.WalletID, e.Available, e.Requested)
}

// LedgerConsistencyError means the wallet snapshot and its ledger disagree.
// The surrounding transaction is always rolled back.
type LedgerConsistencyError struct {
	WalletID  int64
	BookingID int64
	Expected  int64
	Recorded  int64
	Reason    string
}

func (e *LedgerConsistencyError) Error() string {
	return fmt.Sprintf("ledger inconsistency on wallet %d: %s (expected %d, recorded %d)", e.WalletID, e.Reason, e.Expected, e.Recorded)
}
