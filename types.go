package secauth

import (
	"context"
	"time"

	"github.com/velvetcart/secauth/password"
)

// Role is the closed set of identity roles.
type Role string

const (
	// RoleCustomer is the default role assigned at registration.
	RoleCustomer Role = "customer"
	// RoleAdmin marks identities allowed through the admin surface.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// IdentityRecord is the stored account state. Email and Name are held
// encrypted at rest by the store; EmailHash is the only lookup key for
// email-based queries.
type IdentityRecord struct {
	ID        string
	Email     string
	EmailHash string
	Name      string
	Role      Role

	PasswordHash      string
	PasswordChangedAt time.Time
	PasswordExpiresAt time.Time
	PasswordHistory   []password.HistoryEntry

	// TokenVersion invalidates all outstanding tokens when bumped.
	TokenVersion int64
	// SessionHash is the hash of the single active session ID, empty
	// when logged out.
	SessionHash string

	ResetTokenHash   string
	ResetTokenExpiry time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy so callers can mutate freely.
func (r *IdentityRecord) Clone() *IdentityRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.PasswordHistory = append([]password.HistoryEntry(nil), r.PasswordHistory...)
	return &out
}

// IdentityStore is the credential store contract the engine runs
// against. Implementations must treat EmailHash as the unique key for
// email lookups and return ErrIdentityNotFound / ErrIdentityExists for
// the corresponding conditions.
type IdentityStore interface {
	// Create persists a new record. The record's EmailHash must be
	// unique.
	Create(ctx context.Context, record *IdentityRecord) error
	// FindByEmailHash returns the record for a normalized-email hash.
	FindByEmailHash(ctx context.Context, emailHash string) (*IdentityRecord, error)
	// FindByID returns the record for an identity ID.
	FindByID(ctx context.Context, id string) (*IdentityRecord, error)
	// FindByResetTokenHash returns the record holding an outstanding
	// reset token hash.
	FindByResetTokenHash(ctx context.Context, tokenHash string) (*IdentityRecord, error)
	// AtomicUpdate loads the record for id, applies mutate to it, and
	// persists the result as a single step. Implementations must hold
	// their write lock, or run a transaction, across the whole
	// read-mutate-write so concurrent updates to one identity never
	// interleave. An error from mutate aborts the update without
	// persisting anything and is returned unchanged.
	AtomicUpdate(ctx context.Context, id string, mutate func(*IdentityRecord) error) error
}

// Principal is the authenticated caller attached to a validated
// session token.
type Principal struct {
	IdentityID   string
	Role         Role
	SessionID    string
	TokenVersion int64
}

// AuthResult is returned by the operations that establish a session.
type AuthResult struct {
	IdentityID string
	Email      string
	Name       string
	Role       Role

	Token     string
	SessionID string
	ExpiresAt time.Time

	// CSRFToken is rotated on every new session and must be sent back
	// on state-changing requests.
	CSRFToken string
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}
