package user

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxEmailLength    = 100
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// RequireRole fails with ErrForbidden unless u holds one of allowed.
func RequireRole(u *User, allowed ...Role) error {
	if u == nil {
		return ErrForbidden
	}
	for _, r := range allowed {
		if u.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

func validateEmail(email string) error {
	if email == "" || utf8.RuneCountInString(email) > maxEmailLength {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return ErrPasswordTooWeak
	}
	return nil
}
