package settlement

import (
	"context"
	"fmt"
	"time"

	"consultpay/internal/booking"
	"consultpay/internal/consultant"
	"consultpay/internal/money"
	"consultpay/internal/wallet"
)

// Mailer is the part of the email service the notifier needs.
type Mailer interface {
	SendBookingOutcome(ctx context.Context, to, name, outcome, details string, when time.Time) error
	SendWithdrawalReceipt(ctx context.Context, to, name, amount, status string) error
}

type EmailNotifier struct {
	mail        Mailer
	consultants consultant.Repository
}

func NewEmailNotifier(mail Mailer, consultants consultant.Repository) *EmailNotifier {
	return &EmailNotifier{mail: mail, consultants: consultants}
}

func (n *EmailNotifier) NotifyBookingOutcome(ctx context.Context, b *booking.Booking, outcome Outcome) error {
	when, err := b.StartsAt()
	if err != nil {
		when = b.BookingDate
	}
	details := fmt.Sprintf("%s %s, %s", money.FromMinor(b.Amount, b.Currency), b.Currency, b.Timezone)
	return n.mail.SendBookingOutcome(ctx, b.ClientEmail, b.ClientName, string(outcome), details, when)
}

func (n *EmailNotifier) NotifyWithdrawal(ctx context.Context, consultantID int64, tx *wallet.Transaction) error {
	c, err := n.consultants.GetByID(ctx, consultantID)
	if err != nil {
		return err
	}

	status := tx.MetadataValue("status")
	if status == "" {
		status = "transferred"
	}
	amount := money.FromMinor(-tx.Amount, tx.Currency) + " " + tx.Currency
	return n.mail.SendWithdrawalReceipt(ctx, c.Email, c.Name, amount, status)
}
