package middleware

import (
	"context"
	"errors"
	"net/http"

	"marketplace-be/internal/apperr"
	"marketplace-be/internal/auth"
	"marketplace-be/internal/logger"
	"marketplace-be/internal/user"
	"marketplace-be/internal/utils"

	"go.uber.org/zap"
)

type contextKey string

const currentUserKey contextKey = "currentUser"

// UserLookup resolves the subject of a verified access token.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Authenticator turns an access token into the current user.
type Authenticator struct {
	tokens *auth.TokenManager
	users  UserLookup
}

func NewAuthenticator(tokens *auth.TokenManager, users UserLookup) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Resolve validates the token and loads an active user.
func (a *Authenticator) Resolve(ctx context.Context, token string) (*user.User, error) {
	claims, err := a.tokens.Parse(token, auth.TokenAccess)
	if err != nil {
		return nil, err
	}

	u, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, user.ErrInactiveUser
	}
	return u, nil
}

// Authenticate rejects the request with 401 unless it carries a valid
// access token for an active user.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		u, err := a.Resolve(ctx, auth.ExtractAccessToken(r))
		if err != nil {
			if apperr.Is(err, apperr.Unauthenticated) {
				logger.FromCtx(ctx).Debug("authentication failed", zap.Error(err))
				utils.WriteJSONError(w, "could not validate credentials", http.StatusUnauthorized)
				return
			}
			logger.FromCtx(ctx).Error("failed to resolve current user", zap.Error(err))
			utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		ctx = utils.SetUserContext(ctx, u.ID)
		ctx = logger.WithUserID(ctx, u.ID)
		ctx = context.WithValue(ctx, currentUserKey, u)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentUser returns the user stored by Authenticate.
func CurrentUser(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(currentUserKey).(*user.User)
	return u, ok
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r.Context())
			if !ok {
				utils.WriteJSONError(w, "could not validate credentials", http.StatusUnauthorized)
				return
			}
			if err := user.RequireRole(u, roles...); err != nil {
				utils.WriteJSONError(w, err.Error(), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
