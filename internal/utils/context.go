package utils

import "context"

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	AuthErrorKey contextKey = "auth_error"
)

type ctxKey string

const internalRequestKey ctxKey = "internal_request"

// SetUserContext stores the authenticated user id (called by middleware).
func SetUserContext(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

// GetUserIDFromContext retrieves userID safely
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

// SetAuthError records why a presented bearer token was rejected, so protected
// routes can report the precise reason.
func SetAuthError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, AuthErrorKey, err)
}

func AuthErrorFrom(ctx context.Context) error {
	err, _ := ctx.Value(AuthErrorKey).(error)
	return err
}

func WithInternalRequest(ctx context.Context) context.Context {
	return context.WithValue(ctx, internalRequestKey, true)
}

func IsInternalRequest(ctx context.Context) bool {
	v, _ := ctx.Value(internalRequestKey).(bool)
	return v
}
