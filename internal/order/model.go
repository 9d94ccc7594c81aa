package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusCreated   OrderStatus = "CREATED"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	ID              int64
	UserID          int64
	DeliveryAddress string
	// TotalPrice is derived from Items and only written by recalculateTotal.
	TotalPrice decimal.Decimal
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Items      []*OrderItem
}

// ProductSnapshot is the catalog row an item points at, read at query time.
type ProductSnapshot struct {
	ID      int64
	Name    string
	Price   decimal.Decimal
	InStock bool
}

type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	// Price is the captured line total: Quantity * product price at the last recompute.
	Price   decimal.Decimal
	Product ProductSnapshot
}

type ItemInput struct {
	ProductID int64
	Quantity  int
}

type CreateInput struct {
	DeliveryAddress string
	Items           []ItemInput
}

func linePrice(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}
