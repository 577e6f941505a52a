package token

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFromRequestPrecedence(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderName, "from-header")
	r.Header.Set("Authorization", "Bearer from-bearer")
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "from-cookie"})

	if raw, ok := FromRequest(r); !ok || raw != "from-header" {
		t.Fatalf("expected header token, got %q (%v)", raw, ok)
	}

	r.Header.Del(HeaderName)
	if raw, ok := FromRequest(r); !ok || raw != "from-bearer" {
		t.Fatalf("expected bearer token, got %q (%v)", raw, ok)
	}

	r.Header.Del("Authorization")
	if raw, ok := FromRequest(r); !ok || raw != "from-cookie" {
		t.Fatalf("expected cookie token, got %q (%v)", raw, ok)
	}
}

func TestFromRequestBearerCaseInsensitive(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "bearer lower-case")

	if raw, ok := FromRequest(r); !ok || raw != "lower-case" {
		t.Fatalf("expected bearer token, got %q (%v)", raw, ok)
	}
}

func TestFromRequestAbsent(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := FromRequest(r); ok {
		t.Fatal("expected no token")
	}

	// Blank sources do not count as present.
	r.Header.Set(HeaderName, "   ")
	r.Header.Set("Authorization", "Bearer ")
	r.AddCookie(&http.Cookie{Name: CookieName, Value: ""})
	if _, ok := FromRequest(r); ok {
		t.Fatal("expected blank sources to be skipped")
	}
}
