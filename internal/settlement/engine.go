package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"consultpay/internal/availability"
	"consultpay/internal/booking"
	"consultpay/internal/consultant"
	"consultpay/internal/logger"
	"consultpay/internal/metrics"
	"consultpay/internal/payment"
	"consultpay/internal/wallet"
)

// TxRunner runs fn inside one database transaction, committing when fn
// returns nil and rolling back otherwise.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error)
	CreateTransfer(ctx context.Context, req payment.TransferRequest) (string, error)
}

type Outcome string

const (
	OutcomePaid          Outcome = "paid and is awaiting the consultant's confirmation"
	OutcomePaymentFailed Outcome = "cancelled because the payment failed"
	OutcomeConfirmed     Outcome = "confirmed"
	OutcomeRejected      Outcome = "rejected and refunded"
	OutcomeCancelled     Outcome = "cancelled"
	OutcomeCompleted     Outcome = "completed"
)

// Notifier is told about committed changes. Errors are logged and never
// affect the operation that triggered them.
type Notifier interface {
	NotifyBookingOutcome(ctx context.Context, b *booking.Booking, outcome Outcome) error
	NotifyWithdrawal(ctx context.Context, consultantID int64, tx *wallet.Transaction) error
}

type Options struct {
	DefaultCurrency    string
	CheckoutSuccessURL string
	CheckoutCancelURL  string
}

type Deps struct {
	DB           sqlx.ExtContext
	Tx           TxRunner
	Bookings     booking.Repository
	Wallets      wallet.Repository
	Consultants  consultant.Repository
	Availability availability.Checker
	Gateway      Gateway
	Notifier     Notifier
}

// Engine owns every state change that moves money between a booking and a
// consultant's wallet. It keeps no state of its own; all coordination
// happens through row locks, always taken booking first, wallet second.
type Engine struct {
	db           sqlx.ExtContext
	tx           TxRunner
	bookings     booking.Repository
	wallets      wallet.Repository
	consultants  consultant.Repository
	availability availability.Checker
	gateway      Gateway
	notifier     Notifier
	opts         Options
	now          func() time.Time
}

func NewEngine(deps Deps, opts Options) *Engine {
	return &Engine{
		db:           deps.DB,
		tx:           deps.Tx,
		bookings:     deps.Bookings,
		wallets:      deps.Wallets,
		consultants:  deps.Consultants,
		availability: deps.Availability,
		gateway:      deps.Gateway,
		notifier:     deps.Notifier,
		opts:         opts,
		now:          time.Now,
	}
}

func (e *Engine) lockBooking(ctx context.Context, q sqlx.ExtContext, id int64) (*booking.Booking, error) {
	b, err := e.bookings.GetForUpdate(ctx, q, id)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("lock booking: %w", err)
	}
	return b, nil
}

func (e *Engine) lockWallet(ctx context.Context, q sqlx.ExtContext, consultantID int64) (*wallet.Wallet, error) {
	w, err := e.wallets.GetForUpdate(ctx, q, consultantID)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	return w, nil
}

// verifyChain compares the locked wallet balance with the snapshot of the
// last applied ledger row. It must run before every balance mutation.
func (e *Engine) verifyChain(ctx context.Context, q sqlx.ExtContext, w *wallet.Wallet) error {
	last, err := e.wallets.LastBalanceAfter(ctx, q, w.ID)
	if err != nil {
		return fmt.Errorf("read last balance snapshot: %w", err)
	}
	if last != w.Balance {
		return e.inconsistent(&LedgerConsistencyError{
			WalletID: w.ID,
			Expected: w.Balance,
			Recorded: last,
			Reason:   "wallet balance differs from last ledger snapshot",
		})
	}
	return nil
}

func (e *Engine) inconsistent(err *LedgerConsistencyError) error {
	metrics.RecordLedgerConsistencyFailure()
	logger.Error("Ledger consistency check failed",
		"wallet_id", err.WalletID,
		"booking_id", err.BookingID,
		"expected", err.Expected,
		"recorded", err.Recorded,
		"reason", err.Reason,
	)
	return err
}

func (e *Engine) appendTx(ctx context.Context, q sqlx.ExtContext, t *wallet.Transaction) error {
	if err := e.wallets.Append(ctx, q, t); err != nil {
		return fmt.Errorf("append %s/%s ledger row: %w", t.Type, t.Source, err)
	}
	return nil
}

func (e *Engine) saveWallet(ctx context.Context, q sqlx.ExtContext, w *wallet.Wallet) error {
	if w.Balance < 0 || w.PendingBalance < 0 {
		return e.inconsistent(&LedgerConsistencyError{
			WalletID: w.ID,
			Expected: 0,
			Recorded: min(w.Balance, w.PendingBalance),
			Reason:   "wallet balance would become negative",
		})
	}
	if err := e.wallets.SaveBalances(ctx, q, w); err != nil {
		return fmt.Errorf("save wallet balances: %w", err)
	}
	return nil
}

func (e *Engine) patch(ctx context.Context, q sqlx.ExtContext, id int64, p booking.Patch) (*booking.Booking, error) {
	b, err := e.bookings.Update(ctx, q, id, p)
	if err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	return b, nil
}

func (e *Engine) notify(ctx context.Context, b *booking.Booking, outcome Outcome) {
	if e.notifier == nil || b == nil {
		return
	}
	if err := e.notifier.NotifyBookingOutcome(context.WithoutCancel(ctx), b, outcome); err != nil {
		logger.Warn("Booking notification failed", "booking_id", b.ID, "error", err)
	}
}

func (e *Engine) transitioned(from, to booking.Status) {
	metrics.RecordTransition(string(from), string(to))
}

func ptr[T any](v T) *T {
	return &v
}
