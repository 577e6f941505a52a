package secauth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/velvetcart/secauth/privacy"
	"github.com/velvetcart/secauth/throttle"
	"github.com/velvetcart/secauth/token"
)

// normalizeEmail lowercases and trims so the same address always maps
// to the same email hash and throttle key.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login authenticates an email/password pair and establishes a fresh
// session. An unknown email and a wrong password are indistinguishable
// to the caller; both count against the brute-force budget.
func (e *Engine) Login(ctx context.Context, email, pass string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return e.login(ctx, scopeLogin, email, pass, false)
}

func (e *Engine) login(ctx context.Context, scope, email, pass string, adminOnly bool) (*AuthResult, error) {
	norm := normalizeEmail(email)
	ip := ClientIPFromContext(ctx)

	if err := e.limiter.Check(ctx, scope, ip, norm); err != nil {
		if errors.Is(err, throttle.ErrThrottled) {
			e.metricInc(MetricLoginThrottled)
			e.emit(ctx, AuditEvent{EventType: auditEventLoginRateLimited, Error: errString(err)})
		}
		return nil, err
	}

	record, err := e.store.FindByEmailHash(ctx, privacy.Hash(norm))
	if err != nil {
		if !errors.Is(err, ErrIdentityNotFound) {
			return nil, err
		}
		if adminOnly {
			boot, bootErr := e.bootstrapAdmin(ctx, norm, pass)
			if bootErr != nil {
				return nil, bootErr
			}
			if boot != nil {
				if err := e.limiter.RecordSuccess(ctx, scope, ip, norm); err != nil {
					return nil, err
				}
				result, err := e.establishSession(ctx, boot.ID, auditEventLoginSuccess)
				if err != nil {
					return nil, err
				}
				e.metricInc(MetricLoginSuccess)
				return result, nil
			}
		}
		return nil, e.failLogin(ctx, scope, ip, norm)
	}

	if adminOnly && record.Role != RoleAdmin {
		return nil, e.failLogin(ctx, scope, ip, norm)
	}
	if !e.hasher.Verify(pass, record.PasswordHash) {
		return nil, e.failLogin(ctx, scope, ip, norm)
	}

	// Verified credentials clear the attempt counter entirely, even
	// when the login is then refused for an expired password.
	if err := e.limiter.RecordSuccess(ctx, scope, ip, norm); err != nil {
		return nil, err
	}

	if !record.PasswordExpiresAt.IsZero() && !e.now().Before(record.PasswordExpiresAt) {
		e.metricInc(MetricLoginPasswordExpired)
		e.emit(ctx, AuditEvent{
			EventType:  auditEventLoginPasswordExpired,
			IdentityID: record.ID,
		})
		return nil, ErrPasswordExpired
	}

	result, err := e.establishSession(ctx, record.ID, auditEventLoginSuccess)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricLoginSuccess)
	return result, nil
}

// failLogin records one failed attempt and folds the outcome into the
// caller-facing error: a lockout triggered by this attempt surfaces as
// the throttle error, anything else as invalid credentials.
func (e *Engine) failLogin(ctx context.Context, scope, ip, norm string) error {
	err := e.limiter.RecordFailure(ctx, scope, ip, norm)
	if errors.Is(err, throttle.ErrThrottled) {
		e.metricInc(MetricLoginThrottled)
		e.emit(ctx, AuditEvent{EventType: auditEventLoginRateLimited, Error: errString(err)})
		return err
	}

	e.metricInc(MetricLoginFailure)
	e.emit(ctx, AuditEvent{EventType: auditEventLoginFailure, Error: ErrInvalidCredentials.Error()})
	return ErrInvalidCredentials
}

// establishSession issues a token, binds the stored session hash to it,
// and rotates the CSRF token. Any previously active session for the
// identity is displaced. The token version is read and the session
// hash written under the store's update lock, so a logout or password
// change landing mid-login is never overwritten: the issued token
// carries whatever version the record holds at write time.
func (e *Engine) establishSession(ctx context.Context, identityID, eventType string) (*AuthResult, error) {
	var issued *token.Issued
	var snap *IdentityRecord

	err := e.store.AtomicUpdate(ctx, identityID, func(record *IdentityRecord) error {
		var err error
		issued, err = e.tokens.Issue(record.ID, string(record.Role), record.TokenVersion)
		if err != nil {
			return err
		}
		record.SessionHash = privacy.Hash(issued.SessionID)
		record.UpdatedAt = e.now()
		snap = record.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, AuditEvent{
		EventType:  eventType,
		IdentityID: snap.ID,
		SessionID:  issued.SessionID,
		Success:    true,
	})

	return &AuthResult{
		IdentityID: snap.ID,
		Email:      snap.Email,
		Name:       snap.Name,
		Role:       snap.Role,
		Token:      issued.Token,
		SessionID:  issued.SessionID,
		ExpiresAt:  issued.ExpiresAt,
		CSRFToken:  uuid.NewString(),
	}, nil
}
