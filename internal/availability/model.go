package availability

// BlockingStatuses are the booking statuses that hold a slot. Unpaid PENDING
// bookings hold the slot too so it is not sold twice during the payment window.
var BlockingStatuses = []string{"PENDING", "AWAITING_VALIDATION", "CONFIRMED"}

type BlockedSlot struct {
	StartTime string  `db:"start_time" json:"start_time"`
	EndTime   string  `db:"end_time" json:"end_time"`
	Reason    *string `db:"reason" json:"reason,omitempty"`
}

type DayAvailability struct {
	ConsultantID int64         `json:"consultant_id"`
	Date         string        `json:"date"`
	DayBlocked   bool          `json:"day_blocked"`
	BlockedSlots []BlockedSlot `json:"blocked_slots"`
	TakenTimes   []string      `json:"taken_times"`
}
