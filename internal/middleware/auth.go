package middleware

import (
	"net/http"

	"pizzeria-be/internal/auth"
	"pizzeria-be/internal/logger"
	"pizzeria-be/internal/utils"

	"go.uber.org/zap"
)

type TokenVerifier interface {
	VerifyAccessToken(tokenStr string) (int64, error)
}

// Auth resolves the bearer access token into the request context. It never
// rejects a request: a bad token is recorded with utils.SetAuthError and
// protected routes decide what to do with it.
func Auth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			userID, err := tokens.VerifyAccessToken(tokenStr)
			if err != nil {
				logger.FromCtx(ctx).Debug("bearer token rejected", zap.Error(err))
				ctx = utils.SetAuthError(ctx, err)
			} else {
				ctx = utils.SetUserContext(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
