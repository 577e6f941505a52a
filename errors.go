package secauth

import "errors"

var (
	// ErrInvalidCredentials covers unknown emails and wrong passwords
	// alike so login failures never reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountExists is returned when registration targets an email
	// that already has an account.
	ErrAccountExists = errors.New("account already exists")
	// ErrPasswordExpired is returned when the password is correct but
	// past its expiry; the caller must complete a password change
	// before a session is issued.
	ErrPasswordExpired = errors.New("password expired")
	// ErrSessionExpired is returned when a token is past expiry or its
	// token version no longer matches the stored one.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionInvalid is returned when a token fails structural or
	// signature checks, or does not match the stored session.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrPasswordReuse is returned when a new password matches the
	// current one or a recent historical one.
	ErrPasswordReuse = errors.New("password was used recently")
	// ErrResetInvalid is returned when a password reset token is
	// unknown or past its expiry.
	ErrResetInvalid = errors.New("password reset token invalid")
	// ErrForbidden is returned when an authenticated identity lacks
	// the role an operation requires.
	ErrForbidden = errors.New("forbidden")
	// ErrIdentityNotFound is returned by IdentityStore lookups that
	// match no record.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIdentityExists is returned by IdentityStore.Create when the
	// email hash is already taken.
	ErrIdentityExists = errors.New("identity already exists")
	// ErrEngineNotReady indicates a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not ready")
)
