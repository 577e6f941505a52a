package token

import (
	"net/http"
	"strings"
)

const (
	// HeaderName is the raw token header checked first during
	// extraction.
	HeaderName = "token"
	// CookieName is the session cookie checked last during extraction.
	CookieName = "access_token"

	bearerPrefix = "Bearer "
)

// FromRequest extracts the raw token from the request, checking the
// "token" header, then an Authorization bearer value, then the
// access_token cookie. The first source present wins even if a later
// source would carry a valid token.
func FromRequest(r *http.Request) (string, bool) {
	if raw := strings.TrimSpace(r.Header.Get(HeaderName)); raw != "" {
		return raw, true
	}

	if authz := r.Header.Get("Authorization"); len(authz) > len(bearerPrefix) &&
		strings.EqualFold(authz[:len(bearerPrefix)], bearerPrefix) {
		if raw := strings.TrimSpace(authz[len(bearerPrefix):]); raw != "" {
			return raw, true
		}
	}

	if cookie, err := r.Cookie(CookieName); err == nil {
		if raw := strings.TrimSpace(cookie.Value); raw != "" {
			return raw, true
		}
	}

	return "", false
}
