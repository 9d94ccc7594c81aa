package order

import "marketplace-be/internal/apperr"

var (
	// -- Validation & Input --
	ErrEmptyItems      = apperr.New(apperr.InvalidState, "order must contain at least one item")
	ErrInvalidQuantity = apperr.New(apperr.InvalidState, "quantity must be greater than zero")
	ErrInvalidAddress  = apperr.New(apperr.InvalidState, "delivery address must be between 10 and 255 characters")
	ErrInvalidStatus   = apperr.New(apperr.InvalidState, "unknown order status")
	ErrOutOfStock      = apperr.New(apperr.InvalidState, "products are out of stock")
	ErrQuantityTooBig  = apperr.New(apperr.InvalidState, "quantity is too large")
	ErrAmountTooBig    = apperr.New(apperr.InvalidState, "order amount exceeds 9999999999.99")

	// -- Lookup --
	ErrOrderNotFound    = apperr.New(apperr.NotFound, "order not found")
	ErrItemNotFound     = apperr.New(apperr.NotFound, "order item not found")
	ErrProductsNotFound = apperr.New(apperr.NotFound, "products not found")

	// -- Lifecycle --
	ErrOrderNotEditable   = apperr.New(apperr.PreconditionFailed, "order can only be modified in CREATED status")
	ErrOrderNotDeletable  = apperr.New(apperr.Forbidden, "only orders in CREATED status can be deleted")
	ErrTransitionRejected = apperr.New(apperr.InvalidState, "status transition not allowed")
)
