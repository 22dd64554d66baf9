package wallet

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var (
	walletCols = []string{"id", "consultant_id", "balance", "pending_balance", "total_earnings", "currency", "is_active", "created_at", "updated_at"}
	txCols     = []string{"id", "wallet_id", "booking_id", "type", "source", "amount", "balance_after", "currency", "reference", "metadata", "applied_seq", "created_at"}
)

func setupMock(t *testing.T) (*sqlx.DB, Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return sqlxDB, NewRepository(), mock, func() { sqlxDB.Close() }
}

func walletRow(balance, pending, earnings int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(walletCols).AddRow(1, 7, balance, pending, earnings, "EUR", true, now, now)
}

func TestLockForConsultantCreatesThenLocks(t *testing.T) {
	sqlxDB, repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (consultant_id) DO NOTHING")).
		WithArgs(int64(7), "EUR").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE consultant_id = $1 FOR UPDATE")).
		WithArgs(int64(7)).
		WillReturnRows(walletRow(0, 0, 0))

	w, err := repo.LockForConsultant(context.Background(), sqlxDB, 7, "EUR")
	require.NoError(t, err)
	require.Equal(t, int64(1), w.ID)
	require.Equal(t, "EUR", w.Currency)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUpdateNotFound(t *testing.T) {
	sqlxDB, repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE consultant_id = $1 FOR UPDATE")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetForUpdate(context.Background(), sqlxDB, 99)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveBalances(t *testing.T) {
	sqlxDB, repo, mock, close := setupMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SET balance = $1, pending_balance = $2, total_earnings = $3, updated_at = NOW()")).
		WithArgs(int64(5000), int64(0), int64(5000), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	w := &Wallet{ID: 1, Balance: 5000, TotalEarnings: 5000}
	require.NoError(t, repo.SaveBalances(context.Background(), sqlxDB, w))
	require.Equal(t, now, w.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendDrawsSequenceOnlyForBalanceRows(t *testing.T) {
	sqlxDB, repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()
	bookingID := int64(10)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallet_transactions")).
		WithArgs(int64(1), bookingID, "PENDING", "BOOKING", int64(5000), int64(0), "EUR", nil, sqlmock.AnyArg(), false).
		WillReturnRows(sqlmock.NewRows(txCols).AddRow(1, 1, bookingID, "PENDING", "BOOKING", 5000, 0, "EUR", nil, []byte("{}"), nil, now))

	pending := &Transaction{WalletID: 1, BookingID: &bookingID, Type: TypePending, Source: SourceBooking, Amount: 5000, Currency: "EUR"}
	require.NoError(t, repo.Append(ctx, sqlxDB, pending))
	require.Equal(t, int64(1), pending.ID)
	require.Nil(t, pending.AppliedSeq)

	mock.ExpectQuery(regexp.QuoteMeta("CASE WHEN $10 THEN nextval('wallet_transactions_applied_seq') END")).
		WithArgs(int64(1), nil, "DEBIT", "WITHDRAWAL", int64(-2000), int64(3000), "EUR", "tr_123", sqlmock.AnyArg(), true).
		WillReturnRows(sqlmock.NewRows(txCols).AddRow(2, 1, nil, "DEBIT", "WITHDRAWAL", -2000, 3000, "EUR", "tr_123", []byte("{}"), 4, now))

	ref := "tr_123"
	debit := &Transaction{WalletID: 1, Type: TypeDebit, Source: SourceWithdrawal, Amount: -2000, BalanceAfter: 3000, Currency: "EUR", Reference: &ref}
	require.NoError(t, repo.Append(ctx, sqlxDB, debit))
	require.NotNil(t, debit.AppliedSeq)
	require.Equal(t, int64(4), *debit.AppliedSeq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingForBooking(t *testing.T) {
	sqlxDB, repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE booking_id = $1 AND type = 'PENDING' AND amount > 0")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(txCols).AddRow(3, 1, 10, "PENDING", "BOOKING", 5000, 0, "EUR", nil, []byte("{}"), nil, now))

	tx, err := repo.PendingForBooking(ctx, sqlxDB, 10)
	require.NoError(t, err)
	require.Equal(t, int64(3), tx.ID)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE booking_id = $1 AND type = 'PENDING' AND amount > 0")).
		WithArgs(int64(11)).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.PendingForBooking(ctx, sqlxDB, 11)
	require.ErrorIs(t, err, ErrTransactionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPromote(t *testing.T) {
	sqlxDB, repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SET type = 'CREDIT', balance_after = $2, applied_seq = nextval('wallet_transactions_applied_seq')")).
		WithArgs(int64(3), int64(5000)).
		WillReturnRows(sqlmock.NewRows(txCols).AddRow(3, 1, 10, "CREDIT", "BOOKING", 5000, 5000, "EUR", nil, []byte("{}"), 1, now))

	tx, err := repo.Promote(ctx, sqlxDB, 3, 5000)
	require.NoError(t, err)
	require.Equal(t, TypeCredit, tx.Type)
	require.Equal(t, int64(5000), tx.BalanceAfter)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND type = 'PENDING'")).
		WithArgs(int64(3), int64(5000)).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.Promote(ctx, sqlxDB, 3, 5000)
	require.ErrorIs(t, err, ErrAlreadyPromoted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLastBalanceAfter(t *testing.T) {
	sqlxDB, repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY applied_seq DESC")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"balance_after"}).AddRow(3000))

	balance, err := repo.LastBalanceAfter(ctx, sqlxDB, 1)
	require.NoError(t, err)
	require.Equal(t, int64(3000), balance)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY applied_seq DESC")).
		WithArgs(int64(2)).
		WillReturnError(sql.ErrNoRows)

	balance, err = repo.LastBalanceAfter(ctx, sqlxDB, 2)
	require.NoError(t, err)
	require.Zero(t, balance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTransactionsDefaultsLimit(t *testing.T) {
	sqlxDB, repo, mock, close := setupMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2 OFFSET $3")).
		WithArgs(int64(1), 50, 0).
		WillReturnRows(sqlmock.NewRows(txCols).
			AddRow(2, 1, nil, "DEBIT", "WITHDRAWAL", -2000, 3000, "EUR", "tr_1", []byte(`{"transfer":"ok"}`), 2, now).
			AddRow(1, 1, 10, "CREDIT", "BOOKING", 5000, 5000, "EUR", nil, []byte("{}"), 1, now))

	txs, err := repo.ListTransactions(context.Background(), sqlxDB, 1, 0, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.Equal(t, "ok", txs[0].MetadataValue("transfer"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultantIDs(t *testing.T) {
	sqlxDB, repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT consultant_id FROM wallets")).
		WillReturnRows(sqlmock.NewRows([]string{"consultant_id"}).AddRow(3).AddRow(7))

	ids, err := repo.ConsultantIDs(context.Background(), sqlxDB)
	require.NoError(t, err)
	require.Equal(t, []int64{3, 7}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
