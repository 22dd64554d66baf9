package settlement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"consultpay/internal/booking"
	"consultpay/internal/consultant"
	"consultpay/internal/logger"
	"consultpay/internal/metrics"
	"consultpay/internal/money"
	"consultpay/internal/payment"
	"consultpay/internal/wallet"
)

type CreateBookingInput struct {
	ClientName   string
	ClientEmail  string
	ClientPhone  *string
	ConsultantID int64
	PricingID    *int64
	Date         string
	Time         string
	Timezone     string
	// Amount and Currency may be left empty when PricingID is set.
	Amount   int64
	Currency string
}

// CreateBooking reserves a slot and records the expected payment as pending
// in the consultant's wallet. Nothing is charged yet.
func (e *Engine) CreateBooking(ctx context.Context, in CreateBookingInput) (*booking.Booking, error) {
	nb, err := e.prepareBooking(ctx, in)
	if err != nil {
		metrics.RecordBookingCreated(createResult(err))
		return nil, err
	}

	var created *booking.Booking
	err = e.tx.InTx(ctx, func(q sqlx.ExtContext) error {
		b, err := e.bookings.Create(ctx, q, *nb)
		if err != nil {
			if errors.Is(err, booking.ErrSlotTaken) {
				return ErrSlotUnavailable
			}
			return fmt.Errorf("insert booking: %w", err)
		}

		w, err := e.wallets.LockForConsultant(ctx, q, b.ConsultantID, b.Currency)
		if err != nil {
			return fmt.Errorf("lock wallet: %w", err)
		}
		if w.Currency != b.Currency {
			return ErrCurrencyMismatch
		}

		w.PendingBalance += b.Amount
		if err := e.saveWallet(ctx, q, w); err != nil {
			return err
		}

		err = e.appendTx(ctx, q, &wallet.Transaction{
			WalletID:     w.ID,
			BookingID:    &b.ID,
			Type:         wallet.TypePending,
			Source:       wallet.SourceBooking,
			Amount:       b.Amount,
			BalanceAfter: w.Balance,
			Currency:     b.Currency,
			Metadata:     wallet.Metadata(map[string]interface{}{"slot": b.Date() + " " + b.BookingTime}),
		})
		if err != nil {
			return err
		}

		created = b
		return nil
	})
	metrics.RecordBookingCreated(createResult(err))
	if err != nil {
		return nil, err
	}

	metrics.RecordLedgerAmount(string(wallet.TypePending), string(wallet.SourceBooking), created.Currency, created.Amount)
	logger.Info("Booking created",
		"booking_id", created.ID,
		"consultant_id", created.ConsultantID,
		"slot", created.Date()+" "+created.BookingTime,
		"amount", created.Amount,
		"currency", created.Currency,
	)
	return created, nil
}

func (e *Engine) prepareBooking(ctx context.Context, in CreateBookingInput) (*booking.NewBooking, error) {
	startsAt, err := booking.ParseSlot(in.Date, in.Time, in.Timezone)
	if err != nil {
		return nil, ErrInvalidSlot
	}
	if !startsAt.After(e.now()) {
		return nil, ErrSlotInPast
	}
	// Slots are compared as strings downstream; "9:00" and "09:00" are one slot.
	in.Date = startsAt.Format(booking.DateLayout)
	in.Time = startsAt.Format(booking.TimeLayout)

	c, err := e.consultants.GetByID(ctx, in.ConsultantID)
	if err != nil {
		if errors.Is(err, consultant.ErrNotFound) {
			return nil, ErrConsultantNotFound
		}
		return nil, fmt.Errorf("load consultant: %w", err)
	}
	if !c.IsActive {
		return nil, ErrConsultantNotFound
	}

	amount, currency := in.Amount, in.Currency
	if in.PricingID != nil {
		p, err := e.consultants.GetPricing(ctx, *in.PricingID)
		if err != nil {
			if errors.Is(err, consultant.ErrPricingNotFound) {
				return nil, ErrPricingMismatch
			}
			return nil, fmt.Errorf("load pricing: %w", err)
		}
		if p.ConsultantID != c.ID {
			return nil, ErrPricingMismatch
		}
		if amount != 0 && amount != p.Amount {
			return nil, ErrPricingMismatch
		}
		if currency != "" && !strings.EqualFold(currency, p.Currency) {
			return nil, ErrPricingMismatch
		}
		amount, currency = p.Amount, p.Currency
	}

	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if currency == "" {
		currency = e.opts.DefaultCurrency
	}
	currency, err = money.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	blocked, err := e.availability.IsSlotBlocked(ctx, c.ID, in.Date, in.Time)
	if err != nil {
		return nil, fmt.Errorf("check blocked slots: %w", err)
	}
	if blocked {
		return nil, ErrSlotUnavailable
	}

	taken, err := e.availability.HasConflictingBooking(ctx, c.ID, in.Date, in.Time)
	if err != nil {
		return nil, fmt.Errorf("check conflicting bookings: %w", err)
	}
	if taken {
		return nil, ErrSlotUnavailable
	}

	return &booking.NewBooking{
		ClientName:   strings.TrimSpace(in.ClientName),
		ClientEmail:  strings.ToLower(strings.TrimSpace(in.ClientEmail)),
		ClientPhone:  in.ClientPhone,
		ConsultantID: c.ID,
		PricingID:    in.PricingID,
		BookingDate:  in.Date,
		BookingTime:  in.Time,
		Timezone:     in.Timezone,
		Amount:       amount,
		Currency:     currency,
	}, nil
}

func createResult(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrConsultantNotFound), errors.Is(err, ErrPricingMismatch):
		return "rejected"
	default:
		return "error"
	}
}

// StartCheckout opens a hosted checkout session for an unpaid booking and
// stores the session id on it. The booking already exists, so a gateway
// failure leaves it unpaid and PENDING.
func (e *Engine) StartCheckout(ctx context.Context, bookingID int64) (*payment.CheckoutSession, error) {
	b, err := e.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != booking.StatusPending || b.PaymentStatus != booking.PaymentPending {
		return nil, &InvalidStateError{BookingID: b.ID, Op: "start checkout", Status: b.Status, PaymentStatus: b.PaymentStatus}
	}

	session, err := e.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		BookingID:     b.ID,
		Amount:        b.Amount,
		Currency:      b.Currency,
		Description:   fmt.Sprintf("Consultation on %s at %s (%s)", b.Date(), b.BookingTime, b.Timezone),
		CustomerEmail: b.ClientEmail,
		SuccessURL:    e.opts.CheckoutSuccessURL,
		CancelURL:     e.opts.CheckoutCancelURL,
		Metadata:      map[string]string{"booking_id": strconv.FormatInt(b.ID, 10)},
	})
	if err != nil {
		logger.Error("Checkout session creation failed", "booking_id", b.ID, "error", err)
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	if _, err := e.RecordCheckoutSession(ctx, b.ID, session.ID); err != nil {
		return nil, err
	}

	logger.Info("Checkout started", "booking_id", b.ID, "session_id", session.ID)
	return session, nil
}

// RecordCheckoutSession stores the gateway session id while the booking is
// still awaiting payment. Later states are returned unchanged.
func (e *Engine) RecordCheckoutSession(ctx context.Context, bookingID int64, sessionID string) (*booking.Booking, error) {
	var result *booking.Booking
	err := e.tx.InTx(ctx, func(q sqlx.ExtContext) error {
		b, err := e.lockBooking(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if b.Status != booking.StatusPending || (b.GatewaySessionID != nil && *b.GatewaySessionID == sessionID) {
			result = b
			return nil
		}

		result, err = e.patch(ctx, q, b.ID, booking.Patch{GatewaySessionID: &sessionID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ConfirmBookingPayment settles a successful payment: the pending amount
// moves into the available balance and the booking waits for the
// consultant. Repeated calls return the booking unchanged.
func (e *Engine) ConfirmBookingPayment(ctx context.Context, bookingID int64, chargeRef string) (*booking.Booking, error) {
	var (
		result  *booking.Booking
		applied bool
	)

	err := e.tx.InTx(ctx, func(q sqlx.ExtContext) error {
		b, err := e.lockBooking(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if b.Status != booking.StatusPending || b.PaymentStatus != booking.PaymentPending {
			if b.Status == booking.StatusCancelled {
				logger.Warn("Payment succeeded for a cancelled booking", "booking_id", b.ID, "charge_id", chargeRef)
			}
			result = b
			return nil
		}

		pending, err := e.wallets.PendingForBooking(ctx, q, b.ID)
		if err != nil {
			if errors.Is(err, wallet.ErrTransactionNotFound) {
				return e.inconsistent(&LedgerConsistencyError{
					BookingID: b.ID,
					Expected:  b.Amount,
					Reason:    "pending reservation row missing for unpaid booking",
				})
			}
			return fmt.Errorf("lock pending row: %w", err)
		}

		w, err := e.lockWallet(ctx, q, b.ConsultantID)
		if err != nil {
			return err
		}
		if err := e.verifyChain(ctx, q, w); err != nil {
			return err
		}

		w.PendingBalance -= pending.Amount
		w.Balance += pending.Amount
		w.TotalEarnings += pending.Amount
		if err := e.saveWallet(ctx, q, w); err != nil {
			return err
		}

		if _, err := e.wallets.Promote(ctx, q, pending.ID, w.Balance); err != nil {
			return fmt.Errorf("promote pending row: %w", err)
		}

		p := booking.Patch{
			Status:        ptr(booking.StatusAwaitingValidation),
			PaymentStatus: ptr(booking.PaymentPaid),
		}
		if chargeRef != "" {
			p.GatewayChargeID = &chargeRef
		}
		result, err = e.patch(ctx, q, b.ID, p)
		applied = err == nil
		return err
	})
	if err != nil {
		return nil, err
	}

	if applied {
		e.transitioned(booking.StatusPending, booking.StatusAwaitingValidation)
		metrics.RecordLedgerAmount(string(wallet.TypeCredit), string(wallet.SourceBooking), result.Currency, result.Amount)
		logger.Info("Booking payment settled", "booking_id", result.ID, "charge_id", chargeRef, "amount", result.Amount)
		e.notify(ctx, result, OutcomePaid)
	}
	return result, nil
}

// FailBookingPayment cancels an unpaid booking after the gateway reports a
// failed charge and releases its pending amount.
func (e *Engine) FailBookingPayment(ctx context.Context, bookingID int64) (*booking.Booking, error) {
	var (
		result  *booking.Booking
		applied bool
	)

	err := e.tx.InTx(ctx, func(q sqlx.ExtContext) error {
		b, err := e.lockBooking(ctx, q, bookingID)
		if err != nil {
			return err
		}

		switch {
		case b.Status == booking.StatusPending && b.PaymentStatus == booking.PaymentPending:
		case b.Status == booking.StatusCancelled && b.PaymentStatus != booking.PaymentRefunded:
			result = b
			return nil
		default:
			return &InvalidStateError{BookingID: b.ID, Op: "fail payment", Status: b.Status, PaymentStatus: b.PaymentStatus}
		}

		if err := e.releasePending(ctx, q, b); err != nil {
			return err
		}

		result, err = e.patch(ctx, q, b.ID, booking.Patch{
			Status:        ptr(booking.StatusCancelled),
			PaymentStatus: ptr(booking.PaymentFailed),
			CancelReason:  ptr("payment failed"),
		})
		applied = err == nil
		return err
	})
	if err != nil {
		return nil, err
	}

	if applied {
		e.transitioned(booking.StatusPending, booking.StatusCancelled)
		logger.Info("Booking payment failed", "booking_id", result.ID)
		e.notify(ctx, result, OutcomePaymentFailed)
	}
	return result, nil
}

// releasePending returns an unpaid booking's amount out of the pending
// balance with a negative PENDING row. The available balance is untouched.
func (e *Engine) releasePending(ctx context.Context, q sqlx.ExtContext, b *booking.Booking) error {
	w, err := e.lockWallet(ctx, q, b.ConsultantID)
	if err != nil {
		return err
	}
	if w.PendingBalance < b.Amount {
		return e.inconsistent(&LedgerConsistencyError{
			WalletID:  w.ID,
			BookingID: b.ID,
			Expected:  b.Amount,
			Recorded:  w.PendingBalance,
			Reason:    "pending balance lower than booking amount",
		})
	}

	w.PendingBalance -= b.Amount
	if err := e.saveWallet(ctx, q, w); err != nil {
		return err
	}

	return e.appendTx(ctx, q, &wallet.Transaction{
		WalletID:     w.ID,
		BookingID:    &b.ID,
		Type:         wallet.TypePending,
		Source:       wallet.SourceBooking,
		Amount:       -b.Amount,
		BalanceAfter: w.Balance,
		Currency:     b.Currency,
		Metadata:     wallet.Metadata(map[string]interface{}{"released": true}),
	})
}

// reverseCredit takes a settled booking's amount back out of the available
// balance and the lifetime earnings.
func (e *Engine) reverseCredit(ctx context.Context, q sqlx.ExtContext, b *booking.Booking, reason string) error {
	w, err := e.lockWallet(ctx, q, b.ConsultantID)
	if err != nil {
		return err
	}
	if err := e.verifyChain(ctx, q, w); err != nil {
		return err
	}
	if w.Balance < b.Amount {
		return &InsufficientBalanceError{WalletID: w.ID, Available: w.Balance, Requested: b.Amount}
	}

	w.Balance -= b.Amount
	w.TotalEarnings -= b.Amount
	if err := e.saveWallet(ctx, q, w); err != nil {
		return err
	}

	return e.appendTx(ctx, q, &wallet.Transaction{
		WalletID:     w.ID,
		BookingID:    &b.ID,
		Type:         wallet.TypeCancelled,
		Source:       wallet.SourceRefund,
		Amount:       -b.Amount,
		BalanceAfter: w.Balance,
		Currency:     b.Currency,
		Metadata:     wallet.Metadata(map[string]interface{}{"reason": reason}),
	})
}

const (
	ActionConfirm = "confirm"
	ActionReject  = "reject"
)

// ValidateBooking records the consultant's decision on a paid booking. A
// rejection refunds the client out of the consultant's balance.
func (e *Engine) ValidateBooking(ctx context.Context, bookingID int64, action, note string) (*booking.Booking, error) {
	if action != ActionConfirm && action != ActionReject {
		return nil, ErrInvalidAction
	}

	var result *booking.Booking
	err := e.tx.InTx(ctx, func(q sqlx.ExtContext) error {
		b, err := e.lockBooking(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if b.Status != booking.StatusAwaitingValidation {
			return &InvalidStateError{BookingID: b.ID, Op: action, Status: b.Status, PaymentStatus: b.PaymentStatus}
		}

		p := booking.Patch{Status: ptr(booking.StatusConfirmed)}
		if note != "" {
			p.ValidationNote = &note
		}

		if action == ActionReject {
			if err := e.reverseCredit(ctx, q, b, "rejected by consultant"); err != nil {
				return err
			}
			p.Status = ptr(booking.StatusRejected)
			p.PaymentStatus = ptr(booking.PaymentRefunded)
		}

		result, err = e.patch(ctx, q, b.ID, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.transitioned(booking.StatusAwaitingValidation, result.Status)
	if action == ActionReject {
		metrics.RecordLedgerAmount(string(wallet.TypeCancelled), string(wallet.SourceRefund), result.Currency, result.Amount)
		e.notify(ctx, result, OutcomeRejected)
	} else {
		e.notify(ctx, result, OutcomeConfirmed)
	}
	logger.Info("Booking validated", "booking_id", result.ID, "action", action)
	return result, nil
}

// CancelBooking cancels a booking that has not reached a terminal state. A
// paid booking is refunded; an unpaid one only releases its pending amount.
func (e *Engine) CancelBooking(ctx context.Context, bookingID int64, reason string) (*booking.Booking, error) {
	var (
		result *booking.Booking
		from   booking.Status
		paid   bool
	)

	err := e.tx.InTx(ctx, func(q sqlx.ExtContext) error {
		b, err := e.lockBooking(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if b.Status.IsTerminal() {
			return ErrAlreadyTerminal
		}
		from = b.Status

		p := booking.Patch{Status: ptr(booking.StatusCancelled)}
		if reason != "" {
			p.CancelReason = &reason
		}

		switch b.PaymentStatus {
		case booking.PaymentPaid:
			if err := e.reverseCredit(ctx, q, b, "cancelled"); err != nil {
				return err
			}
			p.PaymentStatus = ptr(booking.PaymentRefunded)
			paid = true
		case booking.PaymentPending:
			if err := e.releasePending(ctx, q, b); err != nil {
				return err
			}
		default:
			return &InvalidStateError{BookingID: b.ID, Op: "cancel", Status: b.Status, PaymentStatus: b.PaymentStatus}
		}

		result, err = e.patch(ctx, q, b.ID, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.transitioned(from, booking.StatusCancelled)
	if paid {
		metrics.RecordLedgerAmount(string(wallet.TypeCancelled), string(wallet.SourceRefund), result.Currency, result.Amount)
	}
	logger.Info("Booking cancelled", "booking_id", result.ID, "refunded", paid, "reason", reason)
	e.notify(ctx, result, OutcomeCancelled)
	return result, nil
}

// CompleteBooking marks a confirmed session as delivered. No money moves.
func (e *Engine) CompleteBooking(ctx context.Context, bookingID int64) (*booking.Booking, error) {
	var result *booking.Booking
	err := e.tx.InTx(ctx, func(q sqlx.ExtContext) error {
		b, err := e.lockBooking(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if b.Status != booking.StatusConfirmed {
			return &InvalidStateError{BookingID: b.ID, Op: "complete", Status: b.Status, PaymentStatus: b.PaymentStatus}
		}

		result, err = e.patch(ctx, q, b.ID, booking.Patch{Status: ptr(booking.StatusCompleted)})
		return err
	})
	if err != nil {
		return nil, err
	}

	e.transitioned(booking.StatusConfirmed, booking.StatusCompleted)
	e.notify(ctx, result, OutcomeCompleted)
	return result, nil
}

func (e *Engine) GetBooking(ctx context.Context, id int64) (*booking.Booking, error) {
	b, err := e.bookings.GetByID(ctx, e.db, id)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (e *Engine) ListBookings(ctx context.Context, f booking.ListFilter) ([]booking.Booking, error) {
	return e.bookings.List(ctx, e.db, f)
}
