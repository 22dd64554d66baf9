package consultant

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound        = errors.New("consultant not found")
	ErrPricingNotFound = errors.New("pricing not found")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Consultant, error) {
	query := `
		SELECT id, name, email, payout_account, is_active, created_at
		FROM consultants
		WHERE id = $1
	`

	var c Consultant
	err := r.db.GetContext(ctx, &c, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &c, nil
}

func (r *repository) GetPricing(ctx context.Context, id int64) (*Pricing, error) {
	query := `
		SELECT id, consultant_id, title, amount, currency, duration_minutes, created_at
		FROM consultant_pricings
		WHERE id = $1
	`

	var p Pricing
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPricingNotFound
		}
		return nil, err
	}

	return &p, nil
}
