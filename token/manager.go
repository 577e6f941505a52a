package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SchemaVersion is the claim layout version stamped into every issued
// token. Parse rejects any other value.
const SchemaVersion = 1

// DefaultTTL is the session token lifetime applied when Config.TTL is
// zero.
const DefaultTTL = time.Hour

const minSecretLength = 32

var (
	// ErrInvalid is returned when a token fails signature, structure,
	// or claim checks.
	ErrInvalid = errors.New("token: invalid")
	// ErrExpired is returned when a token is past its expiry.
	ErrExpired = errors.New("token: expired")
	// ErrSchemaUnknown is returned when the ver claim is not the
	// supported schema version.
	ErrSchemaUnknown = errors.New("token: unknown schema version")
)

// Config holds the signing parameters for a Manager. Configure once at
// startup and treat as immutable afterwards.
type Config struct {
	// Secret is the HS256 signing key. At least 32 bytes.
	Secret []byte
	// TTL is the token lifetime. Zero selects DefaultTTL.
	TTL time.Duration
	// Issuer, when set, is stamped into and required from every token.
	Issuer string
	// Leeway is the clock skew tolerance applied during validation.
	Leeway time.Duration
}

// Claims is the session token claim set.
type Claims struct {
	Role         string `json:"role"`
	TokenVersion int64  `json:"tv"`
	Schema       int    `json:"ver"`
	jwt.RegisteredClaims
}

// IdentityID returns the subject claim.
func (c *Claims) IdentityID() string { return c.Subject }

// SessionID returns the jti claim.
func (c *Claims) SessionID() string { return c.ID }

// Issued describes a freshly signed token.
type Issued struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
}

// Manager signs and validates session tokens. Safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("token: secret must be at least %d bytes", minSecretLength)
	}
	if cfg.TTL < 0 {
		return nil, errors.New("token: negative TTL")
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("token: invalid leeway")
	}
	return &Manager{config: cfg}, nil
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration { return m.config.TTL }

// Issue signs a token for the identity with a fresh random session ID.
func (m *Manager) Issue(identityID, role string, tokenVersion int64) (*Issued, error) {
	if identityID == "" {
		return nil, errors.New("token: empty identity id")
	}

	now := time.Now()
	expiresAt := now.Add(m.config.TTL)
	claims := Claims{
		Role:         role,
		TokenVersion: tokenVersion,
		Schema:       SchemaVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    m.config.Issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
	if err != nil {
		return nil, fmt.Errorf("token: sign: %w", err)
	}

	return &Issued{Token: signed, SessionID: claims.ID, ExpiresAt: expiresAt}, nil
}

// Parse validates the signature and registered claims and returns the
// claim set. The signing algorithm is pinned to HS256; tokens carrying
// any other alg header fail before key lookup.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.Schema != SchemaVersion {
		return nil, ErrSchemaUnknown
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalid
	}

	return claims, nil
}
