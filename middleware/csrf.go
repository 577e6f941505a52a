package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/velvetcart/secauth/token"
)

const (
	// CSRFCookieName is the readable cookie carrying the CSRF token.
	CSRFCookieName = "csrf_token"
	// CSRFHeaderName is the header the client must echo the cookie
	// value into on state-changing requests.
	CSRFHeaderName = "X-CSRF-Token"
)

// CSRFConfig tunes the CSRF guard.
type CSRFConfig struct {
	// SkipPath reports whether a path is exempt. Session-establishing
	// endpoints must be exempt: the client has no CSRF cookie yet.
	SkipPath func(path string) bool
}

// CSRF enforces the double-submit cookie pattern: on state-changing
// requests carrying a session cookie, the CSRF header must match the
// CSRF cookie. Requests without a session cookie pass through; they
// cannot ride an ambient session.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if cfg.SkipPath != nil && cfg.SkipPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if _, err := r.Cookie(token.CookieName); err != nil {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(CSRFCookieName)
			if err != nil || cookie.Value == "" {
				reject(w, http.StatusForbidden, "CSRF validation failed")
				return
			}
			header := r.Header.Get(CSRFHeaderName)
			if header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) != 1 {
				reject(w, http.StatusForbidden, "CSRF validation failed")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
