package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        int64
	Name      string
	Price     decimal.Decimal
	InStock   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateInput struct {
	Name    string
	Price   decimal.Decimal
	InStock *bool
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name    *string
	Price   *decimal.Decimal
	InStock *bool
}

func (in UpdateInput) Empty() bool {
	return in.Name == nil && in.Price == nil && in.InStock == nil
}

// ListFilter fields are independently optional and combined with AND.
type ListFilter struct {
	InStock  *bool
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}
