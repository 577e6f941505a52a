package secauth

import (
	"context"
	"errors"
	"time"

	"github.com/velvetcart/secauth/password"
	"github.com/velvetcart/secauth/privacy"
	"github.com/velvetcart/secauth/throttle"
	"github.com/velvetcart/secauth/token"
)

// Throttle key scopes. Keys combine scope, client IP, and normalized
// email, so the same address failing against login and reset is tracked
// separately.
const (
	scopeLogin      = "login"
	scopeAdminLogin = "admin-login"
	scopeReset      = "reset"
)

// Engine is the authentication core. Build one through the Builder and
// share it; all methods are safe for concurrent use.
type Engine struct {
	config  Config
	store   IdentityStore
	hasher  *password.Hasher
	policy  password.Policy
	tokens  *token.Manager
	limiter *throttle.Limiter
	audit   *auditDispatcher
	metrics *Metrics
	now     func() time.Time
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were dropped because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// TokenTTL returns the configured session lifetime, for cookie Max-Age.
func (e *Engine) TokenTTL() time.Duration {
	if e == nil || e.tokens == nil {
		return token.DefaultTTL
	}
	return e.tokens.TTL()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Validate checks a raw session token against the stored identity and
// returns the authenticated principal.
//
// Expiry and a stale token version surface as ErrSessionExpired: the
// token was once good and the caller should log in again. Everything
// else, including a session hash mismatch after logout, surfaces as
// ErrSessionInvalid.
func (e *Engine) Validate(ctx context.Context, rawToken string) (*Principal, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	start := e.now()

	claims, err := e.tokens.Parse(rawToken)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			e.metricInc(MetricValidateExpired)
			e.emit(ctx, AuditEvent{EventType: auditEventSessionRejected, Error: ErrSessionExpired.Error()})
			return nil, ErrSessionExpired
		}
		e.metricInc(MetricValidateInvalid)
		e.emit(ctx, AuditEvent{EventType: auditEventSessionRejected, Error: ErrSessionInvalid.Error()})
		return nil, ErrSessionInvalid
	}

	record, err := e.store.FindByID(ctx, claims.IdentityID())
	if err != nil {
		e.metricInc(MetricValidateInvalid)
		if errors.Is(err, ErrIdentityNotFound) {
			e.emit(ctx, AuditEvent{
				EventType:  auditEventSessionRejected,
				IdentityID: claims.IdentityID(),
				Error:      ErrSessionInvalid.Error(),
			})
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	if claims.TokenVersion != record.TokenVersion {
		e.metricInc(MetricValidateExpired)
		e.emit(ctx, AuditEvent{
			EventType:  auditEventSessionRejected,
			IdentityID: record.ID,
			Error:      ErrSessionExpired.Error(),
		})
		return nil, ErrSessionExpired
	}
	if record.SessionHash == "" || privacy.Hash(claims.SessionID()) != record.SessionHash {
		e.metricInc(MetricValidateInvalid)
		e.emit(ctx, AuditEvent{
			EventType:  auditEventSessionRejected,
			IdentityID: record.ID,
			Error:      ErrSessionInvalid.Error(),
		})
		return nil, ErrSessionInvalid
	}

	e.metricInc(MetricValidateSuccess)
	if e.metrics != nil {
		e.metrics.Observe(MetricValidateLatency, e.now().Sub(start))
	}

	return &Principal{
		IdentityID:   record.ID,
		Role:         record.Role,
		SessionID:    claims.SessionID(),
		TokenVersion: record.TokenVersion,
	}, nil
}

// Logout invalidates every outstanding token for the identity by
// bumping the token version and clearing the active session hash.
// Logging out an already logged-out identity succeeds.
func (e *Engine) Logout(ctx context.Context, identityID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	err := e.store.AtomicUpdate(ctx, identityID, func(record *IdentityRecord) error {
		record.TokenVersion++
		record.SessionHash = ""
		record.UpdatedAt = e.now()
		return nil
	})
	if err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	e.emit(ctx, AuditEvent{
		EventType:  auditEventLogout,
		IdentityID: identityID,
		Success:    true,
	})
	return nil
}
