package wallet

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

type Wallet struct {
	ID             int64     `db:"id" json:"id"`
	ConsultantID   int64     `db:"consultant_id" json:"consultant_id"`
	Balance        int64     `db:"balance" json:"balance"`
	PendingBalance int64     `db:"pending_balance" json:"pending_balance"`
	TotalEarnings  int64     `db:"total_earnings" json:"total_earnings"`
	Currency       string    `db:"currency" json:"currency"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type TransactionType string

const (
	TypePending   TransactionType = "PENDING"
	TypeCredit    TransactionType = "CREDIT"
	TypeDebit     TransactionType = "DEBIT"
	TypeCancelled TransactionType = "CANCELLED"
)

// TouchesBalance reports whether rows of this type move the available
// balance. PENDING rows only move the pending balance.
func (t TransactionType) TouchesBalance() bool {
	return t == TypeCredit || t == TypeDebit || t == TypeCancelled
}

type TransactionSource string

const (
	SourceBooking    TransactionSource = "BOOKING"
	SourceWithdrawal TransactionSource = "WITHDRAWAL"
	SourceRefund     TransactionSource = "REFUND"
	SourceAdjustment TransactionSource = "ADJUSTMENT"
)

// Transaction is one append-only ledger row. Amount is signed: positive
// increases the balance it applies to, negative decreases it.
type Transaction struct {
	ID           int64             `db:"id" json:"id"`
	WalletID     int64             `db:"wallet_id" json:"wallet_id"`
	BookingID    *int64            `db:"booking_id" json:"booking_id,omitempty"`
	Type         TransactionType   `db:"type" json:"type"`
	Source       TransactionSource `db:"source" json:"source"`
	Amount       int64             `db:"amount" json:"amount"`
	BalanceAfter int64             `db:"balance_after" json:"balance_after"`
	Currency     string            `db:"currency" json:"currency"`
	Reference    *string           `db:"reference" json:"reference,omitempty"`
	Metadata     types.JSONText    `db:"metadata" json:"metadata"`
	AppliedSeq   *int64            `db:"applied_seq" json:"applied_seq,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
}

// Metadata encodes m as a JSON object, falling back to "{}".
func Metadata(m map[string]interface{}) types.JSONText {
	if len(m) == 0 {
		return types.JSONText("{}")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return types.JSONText("{}")
	}
	return types.JSONText(data)
}

// MetadataValue returns the string stored under key, if any.
func (t *Transaction) MetadataValue(key string) string {
	var m map[string]interface{}
	if err := t.Metadata.Unmarshal(&m); err != nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
