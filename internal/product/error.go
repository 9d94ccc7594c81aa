package product

import "marketplace-be/internal/apperr"

var (
	// -- Validation & Input --
	ErrInvalidName     = apperr.New(apperr.InvalidState, "product name must be between 3 and 100 characters")
	ErrPriceRequired   = apperr.New(apperr.InvalidState, "product price is required")
	ErrNegativePrice   = apperr.New(apperr.InvalidState, "product price must not be negative")
	ErrNoFieldsToPatch = apperr.New(apperr.InvalidState, "no fields to update")
	ErrInvalidRange    = apperr.New(apperr.InvalidState, "min_price must not exceed max_price")

	// -- Lookup --
	ErrProductNotFound = apperr.New(apperr.NotFound, "product not found")

	// -- Integrity --
	ErrProductInUse = apperr.New(apperr.Conflict, "product is referenced by existing orders")
)
