package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	if cfg.Secret == nil {
		cfg.Secret = testSecret
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	if _, err := NewManager(Config{Secret: []byte("short")}); err == nil {
		t.Fatal("expected error for short secret")
	}
	if _, err := NewManager(Config{Secret: testSecret, TTL: -time.Minute}); err == nil {
		t.Fatal("expected error for negative TTL")
	}
	if _, err := NewManager(Config{Secret: testSecret, Leeway: time.Hour}); err == nil {
		t.Fatal("expected error for excessive leeway")
	}
}

func TestIssueParseRoundTrip(t *testing.T) {
	m := newTestManager(t, Config{Issuer: "velvetcart"})

	issued, err := m.Issue("user-1", "customer", 3)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if issued.SessionID == "" {
		t.Fatal("issued token has empty session id")
	}

	claims, err := m.Parse(issued.Token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.IdentityID() != "user-1" {
		t.Fatalf("unexpected identity id %q", claims.IdentityID())
	}
	if claims.Role != "customer" {
		t.Fatalf("unexpected role %q", claims.Role)
	}
	if claims.TokenVersion != 3 {
		t.Fatalf("unexpected token version %d", claims.TokenVersion)
	}
	if claims.Schema != SchemaVersion {
		t.Fatalf("unexpected schema %d", claims.Schema)
	}
	if claims.SessionID() != issued.SessionID {
		t.Fatalf("session id mismatch: %q vs %q", claims.SessionID(), issued.SessionID)
	}
}

func TestIssueGeneratesUniqueSessionIDs(t *testing.T) {
	m := newTestManager(t, Config{})

	a, err := m.Issue("user-1", "customer", 1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	b, err := m.Issue("user-1", "customer", 1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if a.SessionID == b.SessionID {
		t.Fatal("two issued tokens share a session id")
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	m := newTestManager(t, Config{})

	issued, err := m.Issue("user-1", "customer", 1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(issued.Token, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xx"
	if _, err := m.Parse(strings.Join(parts, ".")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := newTestManager(t, Config{})
	other := newTestManager(t, Config{Secret: []byte("ffffffffffffffffffffffffffffffff")})

	issued, err := issuer.Issue("user-1", "customer", 1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := other.Parse(issued.Token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParseRejectsForeignAlgorithm(t *testing.T) {
	m := newTestManager(t, Config{})

	claims := Claims{
		Role:   "customer",
		Schema: SchemaVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "sid-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Parse(signed); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParseRejectsUnknownSchema(t *testing.T) {
	m := newTestManager(t, Config{})

	claims := Claims{
		Role:   "customer",
		Schema: SchemaVersion + 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "sid-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Parse(signed); !errors.Is(err, ErrSchemaUnknown) {
		t.Fatalf("expected ErrSchemaUnknown, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := newTestManager(t, Config{TTL: time.Nanosecond})

	issued, err := m.Issue("user-1", "customer", 1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := m.Parse(issued.Token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestParseRejectsMissingSubject(t *testing.T) {
	m := newTestManager(t, Config{})

	claims := Claims{
		Schema: SchemaVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "sid-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Parse(signed); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
