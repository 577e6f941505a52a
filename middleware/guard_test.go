package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/velvetcart/secauth"
	"github.com/velvetcart/secauth/privacy"
	"github.com/velvetcart/secauth/store"
	"github.com/velvetcart/secauth/throttle"
	"github.com/velvetcart/secauth/token"
)

func newTestEngine(t *testing.T) *secauth.Engine {
	t.Helper()

	cfg := secauth.FromEnv()
	cfg.Privacy.MasterSecret = "0123456789abcdef0123456789abcdef"
	cfg.Privacy.Iterations = 1000
	cfg.Token.Secret = []byte("fedcba9876543210fedcba9876543210")
	cfg.Password.BcryptCost = bcrypt.MinCost

	codec, err := privacy.NewCodec(privacy.Config{
		MasterSecret: cfg.Privacy.MasterSecret,
		Iterations:   cfg.Privacy.Iterations,
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	engine, err := secauth.New().
		WithConfig(cfg).
		WithStore(store.NewMemory(codec)).
		WithThrottleStore(throttle.NewMemoryStore()).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func loginTestUser(t *testing.T, e *secauth.Engine) *secauth.AuthResult {
	t.Helper()
	result, err := e.Register(context.Background(), secauth.RegisterInput{
		Name:     "Guard User",
		Email:    "guard@example.com",
		Password: "Str0ng!Pass",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return result
}

func okHandler(t *testing.T, sawPrincipal **secauth.Principal) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := PrincipalFromContext(r.Context()); ok {
			*sawPrincipal = p
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateAcceptsCookieSession(t *testing.T) {
	engine := newTestEngine(t)
	session := loginTestUser(t, engine)

	var principal *secauth.Principal
	handler := Authenticate(engine)(okHandler(t, &principal))

	r := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	r.AddCookie(&http.Cookie{Name: token.CookieName, Value: session.Token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if principal == nil || principal.IdentityID != session.IdentityID {
		t.Fatalf("principal not injected: %+v", principal)
	}
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	handler := Authenticate(newTestEngine(t))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler reached without a session")
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}

func TestAuthenticateDistinguishesExpiredSession(t *testing.T) {
	engine := newTestEngine(t)
	session := loginTestUser(t, engine)
	if err := engine.Logout(context.Background(), session.IdentityID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	handler := Authenticate(engine)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler reached with orphaned token")
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	r.Header.Set(token.HeaderName, session.Token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Session expired") {
		t.Fatalf("expected session-expired message, got %q", w.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	engine := newTestEngine(t)
	session := loginTestUser(t, engine)

	handler := Authenticate(engine)(RequireRole(secauth.RoleAdmin)(http.HandlerFunc(
		func(http.ResponseWriter, *http.Request) {
			t.Fatal("customer reached admin handler")
		})))

	r := httptest.NewRequest(http.MethodPost, "/api/admin/thing", nil)
	r.Header.Set(token.HeaderName, session.Token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestMetadataExtractsForwardedIP(t *testing.T) {
	var gotIP, gotUA string
	handler := Metadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = secauth.ClientIPFromContext(r.Context())
		gotUA = secauth.UserAgentFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:4444"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	r.Header.Set("User-Agent", "test-agent/1.0")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if gotIP != "203.0.113.9" {
		t.Fatalf("expected forwarded IP, got %q", gotIP)
	}
	if gotUA != "test-agent/1.0" {
		t.Fatalf("expected user agent, got %q", gotUA)
	}
}

func TestMetadataFallsBackToRemoteAddr(t *testing.T) {
	var gotIP string
	handler := Metadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = secauth.ClientIPFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:4444"
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if gotIP != "10.0.0.1" {
		t.Fatalf("expected remote host, got %q", gotIP)
	}
}
