package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/bearer/internal/auth/domain"
	"github.com/aussiebroadwan/bearer/pkg/authsdk"
	"github.com/aussiebroadwan/bearer/pkg/httpx"
	"github.com/aussiebroadwan/bearer/pkg/slogx"
)

// SessionResolver turns a bearer token into the current user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (domain.User, error)
}

type ctxKeyUser struct{}

// SessionMiddleware resolves the bearer token once and hands the user to the
// rest of the chain through the request context.
func SessionMiddleware(resolver SessionResolver) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := httpx.BearerToken(r)
			if !ok {
				authsdk.ErrInvalidCredentials.WriteError(w)
				return
			}

			user, err := resolver.ResolveSession(r.Context(), token)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser{}, user)
			ctx = httpx.WithSubject(ctx, user.Username)
			ctx = slogx.With(ctx, "subject", user.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user resolved by SessionMiddleware.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(ctxKeyUser{}).(domain.User)
	return u, ok
}
