package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/velvetcart/secauth"
	"github.com/velvetcart/secauth/token"
)

type principalContextKey struct{}

// PrincipalFromContext returns the authenticated principal injected by
// Authenticate.
func PrincipalFromContext(ctx context.Context) (*secauth.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*secauth.Principal)
	return p, ok
}

// Authenticate extracts the session token from the request, validates
// it against the engine, and injects the principal into the context.
// Requests without a valid session are rejected with 401.
func Authenticate(engine *secauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				reject(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			raw, ok := token.FromRequest(r)
			if !ok {
				reject(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			principal, err := engine.Validate(r.Context(), raw)
			if err != nil {
				if errors.Is(err, secauth.ErrSessionExpired) {
					reject(w, http.StatusUnauthorized, "Session expired, please login again")
					return
				}
				reject(w, http.StatusUnauthorized, "Invalid session")
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a subtree on the principal's role. It must run
// after Authenticate.
func RequireRole(role secauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				reject(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if principal.Role != role {
				reject(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
