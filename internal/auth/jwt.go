package auth

import (
	"errors"
	"strconv"
	"time"

	"marketplace-be/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken   = apperr.New(apperr.Unauthenticated, "invalid or expired token")
	ErrWrongTokenType = apperr.New(apperr.Unauthenticated, "wrong token type")
)

type Claims struct {
	UserID int64     `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Role   string    `json:"role,omitempty"`
	Type   TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access and refresh tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

func (m *TokenManager) IssueAccess(userID int64, email, role string) (string, error) {
	return m.sign(Claims{UserID: userID, Email: email, Role: role, Type: TokenAccess}, m.accessTTL)
}

func (m *TokenManager) IssueRefresh(userID int64) (string, error) {
	return m.sign(Claims{UserID: userID, Type: TokenRefresh}, m.refreshTTL)
}

func (m *TokenManager) sign(claims Claims, ttl time.Duration) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("jwt secret is not set")
	}
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(claims.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies signature, expiry and token type.
func (m *TokenManager) Parse(tokenStr string, want TokenType) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return m.secret, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthenticated, ErrInvalidToken.Msg, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
