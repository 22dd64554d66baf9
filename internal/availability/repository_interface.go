package availability

import "context"

// Checker answers whether a consultant's slot can still be booked.
// Dates are "2006-01-02", times are "15:04".
type Checker interface {
	IsSlotBlocked(ctx context.Context, consultantID int64, date, slotTime string) (bool, error)
	HasConflictingBooking(ctx context.Context, consultantID int64, date, slotTime string) (bool, error)
	GetDay(ctx context.Context, consultantID int64, date string) (*DayAvailability, error)
}
