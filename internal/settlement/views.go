package settlement

import (
	"consultpay/internal/booking"
	"consultpay/internal/money"
	"consultpay/internal/wallet"
)

type CreateBookingRequest struct {
	ClientName   string  `json:"client_name" binding:"required,max=255" example:"Ana Client"`
	ClientEmail  string  `json:"client_email" binding:"required,email" example:"ana@example.com"`
	ClientPhone  *string `json:"client_phone" binding:"omitempty,max=50"`
	ConsultantID int64   `json:"consultant_id" binding:"required,gt=0" example:"3"`
	PricingID    *int64  `json:"pricing_id" binding:"omitempty,gt=0"`
	BookingDate  string  `json:"booking_date" binding:"required" example:"2026-11-02"`
	BookingTime  string  `json:"booking_time" binding:"required" example:"10:00"`
	Timezone     string  `json:"timezone" binding:"required" example:"Europe/Berlin"`
	Amount       string  `json:"amount" example:"150.00"`
	Currency     string  `json:"currency" example:"EUR"`
}

type ValidateBookingRequest struct {
	Action string `json:"action" binding:"required,oneof=confirm reject" example:"confirm"`
	Note   string `json:"note" binding:"max=1000"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=1000" example:"schedule conflict"`
}

type WithdrawalBody struct {
	Amount   string `json:"amount" binding:"required" example:"50.00"`
	Currency string `json:"currency" example:"EUR"`
}

type AdjustmentBody struct {
	Amount string `json:"amount" binding:"required" example:"-10.00"`
	Reason string `json:"reason" binding:"required,max=500" example:"chargeback fee"`
}

type CheckoutResponse struct {
	BookingID int64  `json:"booking_id"`
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type BookingResponse struct {
	*booking.Booking
	BookingDate string `json:"booking_date" example:"2026-11-02"`
	Amount      string `json:"amount" example:"150.00"`
	AmountMinor int64  `json:"amount_minor" example:"15000"`
}

func bookingView(b *booking.Booking) BookingResponse {
	return BookingResponse{
		Booking:     b,
		BookingDate: b.Date(),
		Amount:      money.FromMinor(b.Amount, b.Currency),
		AmountMinor: b.Amount,
	}
}

func bookingViews(bs []booking.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bs))
	for i := range bs {
		out = append(out, bookingView(&bs[i]))
	}
	return out
}

type WalletResponse struct {
	*wallet.Wallet
	Balance        string `json:"balance" example:"100.00"`
	PendingBalance string `json:"pending_balance" example:"0.00"`
	TotalEarnings  string `json:"total_earnings" example:"150.00"`
}

func walletView(w *wallet.Wallet) WalletResponse {
	return WalletResponse{
		Wallet:         w,
		Balance:        money.FromMinor(w.Balance, w.Currency),
		PendingBalance: money.FromMinor(w.PendingBalance, w.Currency),
		TotalEarnings:  money.FromMinor(w.TotalEarnings, w.Currency),
	}
}

type TransactionResponse struct {
	*wallet.Transaction
	Amount       string `json:"amount" example:"-50.00"`
	BalanceAfter string `json:"balance_after" example:"100.00"`
}

func transactionView(t *wallet.Transaction) TransactionResponse {
	return TransactionResponse{
		Transaction:  t,
		Amount:       money.FromMinor(t.Amount, t.Currency),
		BalanceAfter: money.FromMinor(t.BalanceAfter, t.Currency),
	}
}

func transactionViews(ts []wallet.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(ts))
	for i := range ts {
		out = append(out, transactionView(&ts[i]))
	}
	return out
}
