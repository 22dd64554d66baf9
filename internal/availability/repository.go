package availability

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"consultpay/internal/db"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Checker {
	return &repository{db: db}
}

func (r *repository) IsSlotBlocked(ctx context.Context, consultantID int64, date, slotTime string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM blocked_dates
			WHERE consultant_id = $1 AND blocked_date = $2
		) OR EXISTS(
			SELECT 1 FROM blocked_time_slots
			WHERE consultant_id = $1 AND blocked_date = $2
			  AND start_time <= $3 AND end_time > $3
		)
	`

	return db.Exists(ctx, r.db, query, consultantID, date, slotTime)
}

func (r *repository) HasConflictingBooking(ctx context.Context, consultantID int64, date, slotTime string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE consultant_id = $1 AND booking_date = $2 AND booking_time = $3
			  AND status = ANY($4)
		)
	`

	return db.Exists(ctx, r.db, query, consultantID, date, slotTime, pq.Array(BlockingStatuses))
}

func (r *repository) GetDay(ctx context.Context, consultantID int64, date string) (*DayAvailability, error) {
	day := &DayAvailability{
		ConsultantID: consultantID,
		Date:         date,
		BlockedSlots: []BlockedSlot{},
		TakenTimes:   []string{},
	}

	var err error
	day.DayBlocked, err = db.Exists(ctx, r.db, `
		SELECT EXISTS(
			SELECT 1 FROM blocked_dates
			WHERE consultant_id = $1 AND blocked_date = $2
		)
	`, consultantID, date)
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &day.BlockedSlots, `
		SELECT start_time, end_time, reason
		FROM blocked_time_slots
		WHERE consultant_id = $1 AND blocked_date = $2
		ORDER BY start_time ASC
	`, consultantID, date)
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &day.TakenTimes, `
		SELECT booking_time
		FROM bookings
		WHERE consultant_id = $1 AND booking_date = $2
		  AND status = ANY($3)
		ORDER BY booking_time ASC
	`, consultantID, date, pq.Array(BlockingStatuses))
	if err != nil {
		return nil, err
	}

	return day, nil
}
