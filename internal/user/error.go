package user

import "marketplace-be/internal/apperr"

var (
	// -- Validation & Input --
	ErrInvalidEmail    = apperr.New(apperr.InvalidState, "invalid email address")
	ErrPasswordTooWeak = apperr.New(apperr.InvalidState, "password must be at least 8 characters")
	ErrInvalidRole     = apperr.New(apperr.InvalidState, "invalid role")

	// -- Lookup --
	ErrUserNotFound = apperr.New(apperr.NotFound, "user not found")

	// -- Conflicts --
	ErrEmailExists = apperr.New(apperr.Conflict, "email already registered")

	// -- Access --
	ErrInvalidCredentials    = apperr.New(apperr.Unauthenticated, "invalid email or password")
	ErrInactiveUser          = apperr.New(apperr.Unauthenticated, "inactive user")
	ErrForbidden             = apperr.New(apperr.Forbidden, "not enough permissions")
	ErrCannotAssignSuperuser = apperr.New(apperr.Forbidden, "cannot assign SUPERADMIN role")
	ErrCannotModifySuperuser = apperr.New(apperr.Forbidden, "cannot change role of a SUPERADMIN")
)
