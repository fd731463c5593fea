package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/webutil"
)

type userCtxKey struct{}

// Authenticator resolves a bearer token to the authenticated user. The auth
// service implements this; tests can substitute a stub.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// Auth verifies the Authorization header and stores the authenticated user
// in the request context.
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				appErr := model.NewAppError("UNAUTHORIZED", "مطلوب تسجيل الدخول.", "", model.ErrUnauthorized)
				webutil.HandleError(w, logger, appErr)
				return
			}

			user, err := authenticator.Authenticate(r.Context(), strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.Warn("Authentication failed", "error", err)
				appErr := model.NewAppError("UNAUTHORIZED", "جلسة غير صالحة أو منتهية.", "", model.ErrUnauthorized)
				webutil.HandleError(w, logger, appErr)
				return
			}

			ctx := context.WithValue(r.Context(), userCtxKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose authenticated user is not a superuser.
// Must run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := GetLogger(r.Context())

		user, err := GetUser(r.Context())
		if err != nil || !user.IsSuperuser {
			appErr := model.NewAppError("FORBIDDEN", "Admin access required", "", model.ErrForbidden)
			webutil.HandleError(w, logger, appErr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUser returns the authenticated user stored by Auth.
func GetUser(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userCtxKey{}).(*model.User)
	if !ok || user == nil {
		return nil, model.ErrUnauthorized
	}
	return user, nil
}

// WithUser returns a context carrying the given user. Used by tests.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}
