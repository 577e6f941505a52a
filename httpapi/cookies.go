package httpapi

import (
	"net/http"

	"github.com/velvetcart/secauth"
	"github.com/velvetcart/secauth/middleware"
	"github.com/velvetcart/secauth/token"
)

// setSessionCookies writes the HttpOnly session cookie and the
// script-readable CSRF cookie. Both expire with the session.
func (s *Server) setSessionCookies(w http.ResponseWriter, result *secauth.AuthResult) {
	maxAge := int(s.engine.TokenTTL().Seconds())
	http.SetCookie(w, &http.Cookie{
		Name:     token.CookieName,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CSRFCookieName,
		Value:    result.CSRFToken,
		Path:     "/",
		Expires:  result.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{token.CookieName, middleware.CSRFCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name == token.CookieName,
			Secure:   s.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
