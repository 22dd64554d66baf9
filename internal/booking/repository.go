package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"consultpay/internal/db"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound   = errors.New("booking not found")
	ErrSlotTaken  = errors.New("slot already held by another booking")
	ErrEmptyPatch = errors.New("booking patch has no fields")
)

const (
	activeSlotKey  = "bookings_active_slot_key"
	bookingColumns = `id, client_name, client_email, client_phone, consultant_id, pricing_id,
		booking_date, booking_time, timezone, amount, currency, status, payment_status,
		gateway_session_id, gateway_charge_id, validation_note, cancel_reason,
		created_at, updated_at`
)

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, q sqlx.ExtContext, nb NewBooking) (*Booking, error) {
	query := `
		INSERT INTO bookings (client_name, client_email, client_phone, consultant_id, pricing_id,
			booking_date, booking_time, timezone, amount, currency, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'PENDING', 'PENDING')
		RETURNING ` + bookingColumns

	var b Booking
	err := sqlx.GetContext(ctx, q, &b, query,
		nb.ClientName, nb.ClientEmail, nb.ClientPhone, nb.ConsultantID, nb.PricingID,
		nb.BookingDate, nb.BookingTime, nb.Timezone, nb.Amount, nb.Currency,
	)
	if err != nil {
		if db.IsUniqueViolation(err, activeSlotKey) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	return &b, nil
}

func (r *repository) GetByID(ctx context.Context, q sqlx.ExtContext, id int64) (*Booking, error) {
	return r.get(ctx, q, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *repository) GetForUpdate(ctx context.Context, q sqlx.ExtContext, id int64) (*Booking, error) {
	return r.get(ctx, q, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) get(ctx context.Context, q sqlx.ExtContext, query string, id int64) (*Booking, error) {
	var b Booking
	err := sqlx.GetContext(ctx, q, &b, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &b, nil
}

func (r *repository) Update(ctx context.Context, q sqlx.ExtContext, id int64, p Patch) (*Booking, error) {
	if p.IsEmpty() {
		return nil, ErrEmptyPatch
	}

	sets := make([]string, 0, 7)
	args := make([]interface{}, 0, 7)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.PaymentStatus != nil {
		add("payment_status", *p.PaymentStatus)
	}
	if p.GatewaySessionID != nil {
		add("gateway_session_id", *p.GatewaySessionID)
	}
	if p.GatewayChargeID != nil {
		add("gateway_charge_id", *p.GatewayChargeID)
	}
	if p.ValidationNote != nil {
		add("validation_note", *p.ValidationNote)
	}
	if p.CancelReason != nil {
		add("cancel_reason", *p.CancelReason)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE bookings SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), bookingColumns,
	)

	var b Booking
	err := sqlx.GetContext(ctx, q, &b, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &b, nil
}

func (r *repository) List(ctx context.Context, q sqlx.ExtContext, f ListFilter) ([]Booking, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE consultant_id = $1`
	args := []interface{}{f.ConsultantID}

	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY booking_date DESC, booking_time DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	bookings := []Booking{}
	err := sqlx.SelectContext(ctx, q, &bookings, query, args...)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}
