package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"consultpay/internal/availability"
	"consultpay/internal/consultant"
	"consultpay/internal/logger"
	"consultpay/internal/metrics"
	"consultpay/internal/payment"
	"consultpay/internal/wallet"
)

const ManualProcessingStatus = "pending_manual_processing"

type WithdrawalRequest struct {
	ConsultantID int64
	Amount       int64
	// Currency is optional; when set it must match the wallet.
	Currency string
}

// RequestWithdrawal debits the consultant's balance and asks the gateway to
// pay it out. The debit is recorded even when the transfer fails; such rows
// are flagged for manual processing.
func (e *Engine) RequestWithdrawal(ctx context.Context, req WithdrawalRequest) (*wallet.Transaction, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	c, err := e.consultants.GetByID(ctx, req.ConsultantID)
	if err != nil {
		if errors.Is(err, consultant.ErrNotFound) {
			return nil, ErrConsultantNotFound
		}
		return nil, fmt.Errorf("load consultant: %w", err)
	}

	var (
		row        *wallet.Transaction
		transferID string
		key        = uuid.NewString()
	)
	err = e.tx.InTx(ctx, func(q sqlx.ExtContext) error {
		w, err := e.lockWallet(ctx, q, req.ConsultantID)
		if err != nil {
			return err
		}
		if req.Currency != "" && req.Currency != w.Currency {
			return ErrCurrencyMismatch
		}
		if w.Balance < req.Amount {
			return &InsufficientBalanceError{WalletID: w.ID, Available: w.Balance, Requested: req.Amount}
		}
		if err := e.verifyChain(ctx, q, w); err != nil {
			return err
		}

		// The debit is saved before any payout is sent.
		w.Balance -= req.Amount
		if err := e.saveWallet(ctx, q, w); err != nil {
			return err
		}

		meta := map[string]interface{}{"idempotency_key": key}
		var reference *string

		switch {
		case c.PayoutAccount == nil || *c.PayoutAccount == "":
			meta["status"] = ManualProcessingStatus
			meta["gateway_error"] = "no payout account on file"
		default:
			id, err := e.gateway.CreateTransfer(ctx, payment.TransferRequest{
				Amount:         req.Amount,
				Currency:       w.Currency,
				Destination:    *c.PayoutAccount,
				Description:    fmt.Sprintf("Withdrawal for consultant %d", c.ID),
				IdempotencyKey: key,
			})
			if err != nil {
				logger.Warn("Transfer failed, withdrawal queued for manual processing",
					"consultant_id", c.ID, "amount", req.Amount, "error", err)
				meta["status"] = ManualProcessingStatus
				meta["gateway_error"] = err.Error()
			} else {
				transferID = id
				reference = &transferID
				meta["status"] = "transferred"
			}
		}

		row = &wallet.Transaction{
			WalletID:     w.ID,
			Type:         wallet.TypeDebit,
			Source:       wallet.SourceWithdrawal,
			Amount:       -req.Amount,
			BalanceAfter: w.Balance,
			Currency:     w.Currency,
			Reference:    reference,
			Metadata:     wallet.Metadata(meta),
		}
		return e.appendTx(ctx, q, row)
	})
	if err != nil {
		if transferID != "" {
			logger.Error("Withdrawal rolled back after gateway transfer succeeded",
				"consultant_id", req.ConsultantID, "transfer_id", transferID, "idempotency_key", key,
				"amount", req.Amount, "error", err)
		}
		var insufficient *InsufficientBalanceError
		if errors.As(err, &insufficient) {
			metrics.RecordWithdrawal("insufficient_balance")
		} else {
			metrics.RecordWithdrawal("error")
		}
		return nil, err
	}

	result := "transferred"
	if row.Reference == nil {
		result = "manual"
	}
	metrics.RecordWithdrawal(result)
	metrics.RecordLedgerAmount(string(wallet.TypeDebit), string(wallet.SourceWithdrawal), row.Currency, row.Amount)
	logger.Info("Withdrawal recorded", "consultant_id", req.ConsultantID, "transaction_id", row.ID, "result", result)

	if e.notifier != nil {
		if err := e.notifier.NotifyWithdrawal(context.WithoutCancel(ctx), req.ConsultantID, row); err != nil {
			logger.Warn("Withdrawal notification failed", "consultant_id", req.ConsultantID, "error", err)
		}
	}
	return row, nil
}

type Adjustment struct {
	ConsultantID int64
	// Amount is signed: positive credits, negative debits.
	Amount int64
	Reason string
}

// AdjustBalance applies an operator correction that is not tied to any
// booking. Credits count towards lifetime earnings.
func (e *Engine) AdjustBalance(ctx context.Context, adj Adjustment) (*wallet.Transaction, error) {
	if adj.Amount == 0 {
		return nil, ErrInvalidAmount
	}

	var row *wallet.Transaction
	err := e.tx.InTx(ctx, func(q sqlx.ExtContext) error {
		w, err := e.lockWallet(ctx, q, adj.ConsultantID)
		if err != nil {
			return err
		}
		if err := e.verifyChain(ctx, q, w); err != nil {
			return err
		}

		txType := wallet.TypeCredit
		if adj.Amount < 0 {
			if w.Balance < -adj.Amount {
				return &InsufficientBalanceError{WalletID: w.ID, Available: w.Balance, Requested: -adj.Amount}
			}
			txType = wallet.TypeDebit
		} else {
			w.TotalEarnings += adj.Amount
		}
		w.Balance += adj.Amount

		if err := e.saveWallet(ctx, q, w); err != nil {
			return err
		}

		row = &wallet.Transaction{
			WalletID:     w.ID,
			Type:         txType,
			Source:       wallet.SourceAdjustment,
			Amount:       adj.Amount,
			BalanceAfter: w.Balance,
			Currency:     w.Currency,
			Metadata:     wallet.Metadata(map[string]interface{}{"reason": adj.Reason}),
		}
		return e.appendTx(ctx, q, row)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordLedgerAmount(string(row.Type), string(row.Source), row.Currency, row.Amount)
	logger.Info("Wallet adjusted", "consultant_id", adj.ConsultantID, "amount", adj.Amount, "reason", adj.Reason)
	return row, nil
}

// ReconcileWallet replays the wallet's ledger under the wallet lock and
// reports any drift between the rows and the stored totals.
func (e *Engine) ReconcileWallet(ctx context.Context, consultantID int64) (*wallet.Audit, error) {
	var audit *wallet.Audit
	err := e.tx.InTx(ctx, func(q sqlx.ExtContext) error {
		w, err := e.lockWallet(ctx, q, consultantID)
		if err != nil {
			return err
		}

		txs, err := e.wallets.Ledger(ctx, q, w.ID)
		if err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}

		audit = wallet.Replay(w, txs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !audit.Consistent {
		logger.Error("Wallet ledger drift detected", "consultant_id", consultantID, "wallet_id", audit.WalletID, "drifts", len(audit.Drifts))
	}
	return audit, nil
}

// ReconcileAll audits every wallet. It stops at the first read error.
func (e *Engine) ReconcileAll(ctx context.Context) ([]*wallet.Audit, error) {
	ids, err := e.wallets.ConsultantIDs(ctx, e.db)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}

	audits := make([]*wallet.Audit, 0, len(ids))
	for _, id := range ids {
		a, err := e.ReconcileWallet(ctx, id)
		if err != nil {
			return audits, fmt.Errorf("reconcile consultant %d: %w", id, err)
		}
		audits = append(audits, a)
	}
	return audits, nil
}

func (e *Engine) GetWallet(ctx context.Context, consultantID int64) (*wallet.Wallet, error) {
	w, err := e.wallets.GetByConsultant(ctx, e.db, consultantID)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return w, nil
}

func (e *Engine) ListTransactions(ctx context.Context, consultantID int64, limit, offset int) ([]wallet.Transaction, error) {
	w, err := e.GetWallet(ctx, consultantID)
	if err != nil {
		return nil, err
	}
	return e.wallets.ListTransactions(ctx, e.db, w.ID, limit, offset)
}

func (e *Engine) Availability(ctx context.Context, consultantID int64, date string) (*availability.DayAvailability, error) {
	c, err := e.consultants.GetByID(ctx, consultantID)
	if err != nil {
		if errors.Is(err, consultant.ErrNotFound) {
			return nil, ErrConsultantNotFound
		}
		return nil, err
	}
	if !c.IsActive {
		return nil, ErrConsultantNotFound
	}
	return e.availability.GetDay(ctx, consultantID, date)
}
