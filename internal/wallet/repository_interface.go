package wallet

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Repository methods take the executor explicitly; the locking reads are only
// meaningful inside a transaction.
type Repository interface {
	LockForConsultant(ctx context.Context, q sqlx.ExtContext, consultantID int64, currency string) (*Wallet, error)
	GetForUpdate(ctx context.Context, q sqlx.ExtContext, consultantID int64) (*Wallet, error)
	GetByConsultant(ctx context.Context, q sqlx.ExtContext, consultantID int64) (*Wallet, error)
	SaveBalances(ctx context.Context, q sqlx.ExtContext, w *Wallet) error

	Append(ctx context.Context, q sqlx.ExtContext, t *Transaction) error
	PendingForBooking(ctx context.Context, q sqlx.ExtContext, bookingID int64) (*Transaction, error)
	Promote(ctx context.Context, q sqlx.ExtContext, id, balanceAfter int64) (*Transaction, error)
	LastBalanceAfter(ctx context.Context, q sqlx.ExtContext, walletID int64) (int64, error)

	ListTransactions(ctx context.Context, q sqlx.ExtContext, walletID int64, limit, offset int) ([]Transaction, error)
	Ledger(ctx context.Context, q sqlx.ExtContext, walletID int64) ([]Transaction, error)
	ConsultantIDs(ctx context.Context, q sqlx.ExtContext) ([]int64, error)
}
