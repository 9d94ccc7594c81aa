package utils

import "context"

// SetUserContext stores the authenticated user's id (called by middleware).
func SetUserContext(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

// GetUserIDFromContext retrieves userID safely
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}
