package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound            = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("wallet transaction not found")
	ErrAlreadyPromoted     = errors.New("pending transaction already promoted")
)

const (
	walletColumns      = `id, consultant_id, balance, pending_balance, total_earnings, currency, is_active, created_at, updated_at`
	transactionColumns = `id, wallet_id, booking_id, type, source, amount, balance_after, currency, reference, metadata, applied_seq, created_at`
)

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

// LockForConsultant loads the consultant's wallet with a row lock, creating
// it first when this is the consultant's first booking.
func (r *repository) LockForConsultant(ctx context.Context, q sqlx.ExtContext, consultantID int64, currency string) (*Wallet, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO wallets (consultant_id, currency)
		VALUES ($1, $2)
		ON CONFLICT (consultant_id) DO NOTHING
	`, consultantID, currency)
	if err != nil {
		return nil, err
	}

	return r.GetForUpdate(ctx, q, consultantID)
}

func (r *repository) GetForUpdate(ctx context.Context, q sqlx.ExtContext, consultantID int64) (*Wallet, error) {
	return r.getWallet(ctx, q, `SELECT `+walletColumns+` FROM wallets WHERE consultant_id = $1 FOR UPDATE`, consultantID)
}

func (r *repository) GetByConsultant(ctx context.Context, q sqlx.ExtContext, consultantID int64) (*Wallet, error) {
	return r.getWallet(ctx, q, `SELECT `+walletColumns+` FROM wallets WHERE consultant_id = $1`, consultantID)
}

func (r *repository) getWallet(ctx context.Context, q sqlx.ExtContext, query string, consultantID int64) (*Wallet, error) {
	w := &Wallet{}
	err := sqlx.GetContext(ctx, q, w, query, consultantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

func (r *repository) SaveBalances(ctx context.Context, q sqlx.ExtContext, w *Wallet) error {
	err := sqlx.GetContext(ctx, q, &w.UpdatedAt, `
		UPDATE wallets
		SET balance = $1, pending_balance = $2, total_earnings = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`, w.Balance, w.PendingBalance, w.TotalEarnings, w.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Append inserts a ledger row. Rows that move the available balance draw an
// applied_seq while the caller holds the wallet lock, which fixes their
// replay order.
func (r *repository) Append(ctx context.Context, q sqlx.ExtContext, t *Transaction) error {
	if len(t.Metadata) == 0 {
		t.Metadata = Metadata(nil)
	}

	return sqlx.GetContext(ctx, q, t, `
		INSERT INTO wallet_transactions (wallet_id, booking_id, type, source, amount, balance_after, currency, reference, metadata, applied_seq)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
			CASE WHEN $10 THEN nextval('wallet_transactions_applied_seq') END)
		RETURNING `+transactionColumns,
		t.WalletID, t.BookingID, t.Type, t.Source, t.Amount, t.BalanceAfter, t.Currency, t.Reference, t.Metadata,
		t.Type.TouchesBalance(),
	)
}

// PendingForBooking locks the reservation row written when the booking was
// created. Pending releases carry a negative amount and are never returned.
func (r *repository) PendingForBooking(ctx context.Context, q sqlx.ExtContext, bookingID int64) (*Transaction, error) {
	var t Transaction
	err := sqlx.GetContext(ctx, q, &t, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE booking_id = $1 AND type = 'PENDING' AND amount > 0
		ORDER BY id ASC
		LIMIT 1
		FOR UPDATE
	`, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Promote turns a PENDING row into a CREDIT in place. It is the only update
// ever issued against wallet_transactions.
func (r *repository) Promote(ctx context.Context, q sqlx.ExtContext, id, balanceAfter int64) (*Transaction, error) {
	var t Transaction
	err := sqlx.GetContext(ctx, q, &t, `
		UPDATE wallet_transactions
		SET type = 'CREDIT', balance_after = $2, applied_seq = nextval('wallet_transactions_applied_seq')
		WHERE id = $1 AND type = 'PENDING'
		RETURNING `+transactionColumns,
		id, balanceAfter,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlreadyPromoted
		}
		return nil, err
	}
	return &t, nil
}

// LastBalanceAfter returns the balance snapshot of the most recently applied
// balance-moving row, or zero for a wallet with none.
func (r *repository) LastBalanceAfter(ctx context.Context, q sqlx.ExtContext, walletID int64) (int64, error) {
	var balance int64
	err := sqlx.GetContext(ctx, q, &balance, `
		SELECT balance_after
		FROM wallet_transactions
		WHERE wallet_id = $1 AND applied_seq IS NOT NULL
		ORDER BY applied_seq DESC
		LIMIT 1
	`, walletID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return balance, err
}

func (r *repository) ListTransactions(ctx context.Context, q sqlx.ExtContext, walletID int64, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	txs := []Transaction{}
	err := sqlx.SelectContext(ctx, q, &txs, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

// Ledger returns every row of the wallet in replay order.
func (r *repository) Ledger(ctx context.Context, q sqlx.ExtContext, walletID int64) ([]Transaction, error) {
	txs := []Transaction{}
	err := sqlx.SelectContext(ctx, q, &txs, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY applied_seq ASC NULLS LAST, created_at ASC, id ASC
	`, walletID)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *repository) ConsultantIDs(ctx context.Context, q sqlx.ExtContext) ([]int64, error) {
	ids := []int64{}
	err := sqlx.SelectContext(ctx, q, &ids, `SELECT consultant_id FROM wallets ORDER BY consultant_id ASC`)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
