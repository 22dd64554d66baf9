package booking

import "time"

type Status string

const (
	StatusPending            Status = "PENDING"
	StatusAwaitingValidation Status = "AWAITING_VALIDATION"
	StatusConfirmed          Status = "CONFIRMED"
	StatusRejected           Status = "REJECTED"
	StatusCancelled          Status = "CANCELLED"
	StatusCompleted          Status = "COMPLETED"
)

// IsTerminal reports whether no further payment-relevant transition may
// leave this status. CONFIRMED may still move to COMPLETED.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Booking struct {
	ID               int64         `db:"id" json:"id"`
	ClientName       string        `db:"client_name" json:"client_name"`
	ClientEmail      string        `db:"client_email" json:"client_email"`
	ClientPhone      *string       `db:"client_phone" json:"client_phone,omitempty"`
	ConsultantID     int64         `db:"consultant_id" json:"consultant_id"`
	PricingID        *int64        `db:"pricing_id" json:"pricing_id,omitempty"`
	BookingDate      time.Time     `db:"booking_date" json:"booking_date"`
	BookingTime      string        `db:"booking_time" json:"booking_time"`
	Timezone         string        `db:"timezone" json:"timezone"`
	Amount           int64         `db:"amount" json:"amount"`
	Currency         string        `db:"currency" json:"currency"`
	Status           Status        `db:"status" json:"status"`
	PaymentStatus    PaymentStatus `db:"payment_status" json:"payment_status"`
	GatewaySessionID *string       `db:"gateway_session_id" json:"gateway_session_id,omitempty"`
	GatewayChargeID  *string       `db:"gateway_charge_id" json:"gateway_charge_id,omitempty"`
	ValidationNote   *string       `db:"validation_note" json:"validation_note,omitempty"`
	CancelReason     *string       `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// Date returns the booking date in DateLayout.
func (b *Booking) Date() string {
	return b.BookingDate.Format(DateLayout)
}

// StartsAt resolves the booked slot in the booking's timezone.
func (b *Booking) StartsAt() (time.Time, error) {
	return ParseSlot(b.Date(), b.BookingTime, b.Timezone)
}

// ParseSlot parses a date, a time of day and an IANA zone into an instant.
func ParseSlot(date, slotTime, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+slotTime, loc)
}

// NewBooking carries the fields persisted when a booking is created. Status
// and payment status always start as PENDING.
type NewBooking struct {
	ClientName   string
	ClientEmail  string
	ClientPhone  *string
	ConsultantID int64
	PricingID    *int64
	BookingDate  string
	BookingTime  string
	Timezone     string
	Amount       int64
	Currency     string
}

// Patch names every booking field the settlement engine may change. Nil
// fields are left untouched.
type Patch struct {
	Status           *Status
	PaymentStatus    *PaymentStatus
	GatewaySessionID *string
	GatewayChargeID  *string
	ValidationNote   *string
	CancelReason     *string
}

func (p Patch) IsEmpty() bool {
	return p.Status == nil && p.PaymentStatus == nil && p.GatewaySessionID == nil &&
		p.GatewayChargeID == nil && p.ValidationNote == nil && p.CancelReason == nil
}

type ListFilter struct {
	ConsultantID int64
	Status       *Status
	Limit        int
	Offset       int
}
