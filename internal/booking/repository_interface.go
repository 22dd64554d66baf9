package booking

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Repository methods take the executor explicitly so callers can run them on
// the pool or inside a transaction.
type Repository interface {
	Create(ctx context.Context, q sqlx.ExtContext, nb NewBooking) (*Booking, error)
	GetByID(ctx context.Context, q sqlx.ExtContext, id int64) (*Booking, error)
	GetForUpdate(ctx context.Context, q sqlx.ExtContext, id int64) (*Booking, error)
	Update(ctx context.Context, q sqlx.ExtContext, id int64, p Patch) (*Booking, error)
	List(ctx context.Context, q sqlx.ExtContext, f ListFilter) ([]Booking, error)
}
