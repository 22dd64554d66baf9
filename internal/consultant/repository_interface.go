package consultant

import "context"

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Consultant, error)
	GetPricing(ctx context.Context, id int64) (*Pricing, error)
}
