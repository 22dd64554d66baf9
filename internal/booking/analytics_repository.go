package booking

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type StatsByDay struct {
	Bucket            string `db:"bucket" json:"bucket"`
	BookingsCreated   int    `db:"bookings_created" json:"bookings_created"`
	BookingsPaid      int    `db:"bookings_paid" json:"bookings_paid"`
	BookingsConfirmed int    `db:"bookings_confirmed" json:"bookings_confirmed"`
	BookingsRejected  int    `db:"bookings_rejected" json:"bookings_rejected"`
	BookingsCancelled int    `db:"bookings_cancelled" json:"bookings_cancelled"`
	GrossPaidAmount   int64  `db:"gross_paid_amount" json:"gross_paid_amount"`
}

type StatsByConsultant struct {
	ConsultantID      int64  `db:"consultant_id" json:"consultant_id"`
	ConsultantName    string `db:"consultant_name" json:"consultant_name"`
	BookingsCreated   int    `db:"bookings_created" json:"bookings_created"`
	BookingsConfirmed int    `db:"bookings_confirmed" json:"bookings_confirmed"`
	BookingsCancelled int    `db:"bookings_cancelled" json:"bookings_cancelled"`
}

type AnalyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) StatsByDay(ctx context.Context, from, to time.Time) ([]StatsByDay, error) {
	query := `
SELECT
  TO_CHAR(DATE(created_at), 'YYYY-MM-DD') AS bucket,
  COUNT(*)                                                          AS bookings_created,
  COUNT(*) FILTER (WHERE payment_status IN ('PAID', 'REFUNDED'))    AS bookings_paid,
  COUNT(*) FILTER (WHERE status IN ('CONFIRMED', 'COMPLETED'))      AS bookings_confirmed,
  COUNT(*) FILTER (WHERE status = 'REJECTED')                       AS bookings_rejected,
  COUNT(*) FILTER (WHERE status = 'CANCELLED')                      AS bookings_cancelled,
  COALESCE(SUM(amount) FILTER (WHERE payment_status = 'PAID'), 0)   AS gross_paid_amount
FROM bookings
WHERE created_at BETWEEN $1 AND $2
GROUP BY DATE(created_at)
ORDER BY bucket;
`
	stats := []StatsByDay{}
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *AnalyticsRepository) StatsByConsultant(ctx context.Context, from, to time.Time) ([]StatsByConsultant, error) {
	query := `
SELECT
  c.id   AS consultant_id,
  c.name AS consultant_name,
  COUNT(b.id)                                                        AS bookings_created,
  COUNT(b.id) FILTER (WHERE b.status IN ('CONFIRMED', 'COMPLETED'))  AS bookings_confirmed,
  COUNT(b.id) FILTER (WHERE b.status = 'CANCELLED')                  AS bookings_cancelled
FROM consultants c
JOIN bookings b ON b.consultant_id = c.id
WHERE b.created_at BETWEEN $1 AND $2
GROUP BY c.id, c.name
ORDER BY c.id;
`
	stats := []StatsByConsultant{}
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}
