package consultant

import "time"

type Consultant struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	PayoutAccount *string   `db:"payout_account" json:"payout_account,omitempty"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type Pricing struct {
	ID              int64     `db:"id" json:"id"`
	ConsultantID    int64     `db:"consultant_id" json:"consultant_id"`
	Title           string    `db:"title" json:"title"`
	Amount          int64     `db:"amount" json:"amount"`
	Currency        string    `db:"currency" json:"currency"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
