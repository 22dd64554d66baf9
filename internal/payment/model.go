package payment

import "time"

// CheckoutRequest asks the gateway for a hosted checkout page for one booking.
type CheckoutRequest struct {
	BookingID     int64             `json:"booking_id"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Description   string            `json:"description"`
	CustomerEmail string            `json:"customer_email"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type CheckoutSession struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TransferRequest moves funds from the platform to a consultant's payout
// account. IdempotencyKey lets the gateway collapse retried requests.
type TransferRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Destination    string `json:"destination"`
	Description    string `json:"description"`
	IdempotencyKey string `json:"-"`
}

type transferResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
