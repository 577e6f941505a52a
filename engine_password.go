package secauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/velvetcart/secauth/privacy"
	"github.com/velvetcart/secauth/throttle"
)

// resetTokenTTL bounds how long a password reset token stays valid.
const resetTokenTTL = 30 * time.Minute

// ChangePassword rotates the identity's password after verifying the
// current one. The retired hash joins the reuse history, and every
// outstanding session token is orphaned: the caller must log in again.
func (e *Engine) ChangePassword(ctx context.Context, identityID, current, next string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	err := e.store.AtomicUpdate(ctx, identityID, func(record *IdentityRecord) error {
		if !e.hasher.Verify(current, record.PasswordHash) {
			return ErrInvalidCredentials
		}
		return e.applyNewPassword(record, next)
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidCredentials):
		e.emit(ctx, AuditEvent{
			EventType:  auditEventPasswordChangeFailure,
			IdentityID: identityID,
			Error:      err.Error(),
		})
		return err
	case errors.Is(err, ErrPasswordReuse):
		e.metricInc(MetricPasswordChangeReuseRejected)
		e.emit(ctx, AuditEvent{
			EventType:  auditEventPasswordChangeReuse,
			IdentityID: identityID,
			Error:      err.Error(),
		})
		return err
	default:
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emit(ctx, AuditEvent{
		EventType:  auditEventPasswordChangeSuccess,
		IdentityID: identityID,
		Success:    true,
	})
	return nil
}

// RequestPasswordReset mints a single-use reset token for the email's
// identity. An unknown email returns an empty token without error so
// the HTTP surface can answer identically either way; the attempt still
// counts against the reset throttle budget.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	norm := normalizeEmail(email)
	ip := ClientIPFromContext(ctx)

	if err := e.limiter.Check(ctx, scopeReset, ip, norm); err != nil {
		return "", err
	}

	record, err := e.store.FindByEmailHash(ctx, privacy.Hash(norm))
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			if err := e.limiter.RecordFailure(ctx, scopeReset, ip, norm); err != nil && !errors.Is(err, throttle.ErrThrottled) {
				return "", err
			}
			return "", nil
		}
		return "", err
	}

	raw := uuid.NewString()
	err = e.store.AtomicUpdate(ctx, record.ID, func(rec *IdentityRecord) error {
		rec.ResetTokenHash = privacy.Hash(raw)
		rec.ResetTokenExpiry = e.now().Add(resetTokenTTL)
		rec.UpdatedAt = e.now()
		return nil
	})
	if err != nil {
		return "", err
	}

	e.metricInc(MetricResetRequested)
	e.emit(ctx, AuditEvent{
		EventType:  auditEventPasswordResetRequest,
		IdentityID: record.ID,
		Success:    true,
	})
	return raw, nil
}

// ResetPassword redeems a reset token and sets a new password. The
// token is single-use: redeeming clears it, and all outstanding session
// tokens are orphaned.
func (e *Engine) ResetPassword(ctx context.Context, rawToken, next string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if rawToken == "" {
		return ErrResetInvalid
	}

	record, err := e.store.FindByResetTokenHash(ctx, privacy.Hash(rawToken))
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.metricInc(MetricResetFailure)
			return ErrResetInvalid
		}
		return err
	}
	if record.ResetTokenExpiry.IsZero() || e.now().After(record.ResetTokenExpiry) {
		e.metricInc(MetricResetFailure)
		e.emit(ctx, AuditEvent{
			EventType:  auditEventPasswordResetInvalid,
			IdentityID: record.ID,
			Error:      ErrResetInvalid.Error(),
		})
		return ErrResetInvalid
	}

	tokenHash := privacy.Hash(rawToken)
	err = e.store.AtomicUpdate(ctx, record.ID, func(rec *IdentityRecord) error {
		// Re-checked under the lock: another redemption may have spent
		// the token since the lookup.
		if rec.ResetTokenHash != tokenHash {
			return ErrResetInvalid
		}
		if rec.ResetTokenExpiry.IsZero() || e.now().After(rec.ResetTokenExpiry) {
			return ErrResetInvalid
		}
		rec.ResetTokenHash = ""
		rec.ResetTokenExpiry = time.Time{}
		return e.applyNewPassword(rec, next)
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrResetInvalid):
		e.metricInc(MetricResetFailure)
		e.emit(ctx, AuditEvent{
			EventType:  auditEventPasswordResetInvalid,
			IdentityID: record.ID,
			Error:      err.Error(),
		})
		return err
	case errors.Is(err, ErrPasswordReuse):
		e.metricInc(MetricPasswordChangeReuseRejected)
		e.emit(ctx, AuditEvent{
			EventType:  auditEventPasswordChangeReuse,
			IdentityID: record.ID,
			Error:      err.Error(),
		})
		return err
	default:
		return err
	}

	e.metricInc(MetricResetSuccess)
	e.emit(ctx, AuditEvent{
		EventType:  auditEventPasswordResetConfirm,
		IdentityID: record.ID,
		Success:    true,
	})
	return nil
}

// applyNewPassword enforces complexity and reuse policy, rotates the
// hash and expiry, and invalidates all outstanding tokens. It runs
// inside an AtomicUpdate; a non-nil return leaves the stored record
// untouched, which is what keeps a rejected replacement from
// consuming a reset token.
func (e *Engine) applyNewPassword(record *IdentityRecord, next string) error {
	if err := e.policy.ValidateComplexity(next); err != nil {
		return err
	}
	if e.policy.IsReused(e.hasher, next, record.PasswordHash, record.PasswordHistory) {
		return ErrPasswordReuse
	}

	hash, err := e.hasher.Hash(next)
	if err != nil {
		return err
	}

	now := e.now()
	record.PasswordHistory = e.policy.AppendHistory(record.PasswordHistory, record.PasswordHash, now)
	record.PasswordHash = hash
	record.PasswordChangedAt = now
	record.PasswordExpiresAt = e.policy.ComputeExpiry(now)
	record.TokenVersion++
	record.SessionHash = ""
	record.UpdatedAt = now
	return nil
}
