package secauth

import (
	"context"
	"crypto/subtle"

	"github.com/google/uuid"
	"github.com/velvetcart/secauth/privacy"
)

// LoginAdmin authenticates against the admin surface. Non-admin
// identities fail exactly like unknown ones. When no record exists for
// the configured bootstrap email, a matching credential pair creates
// the persisted admin record on first use.
func (e *Engine) LoginAdmin(ctx context.Context, email, pass string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return e.login(ctx, scopeAdminLogin, email, pass, true)
}

// bootstrapAdmin creates the admin record when the supplied credentials
// match the configured bootstrap pair and no record exists yet. Returns
// nil without error when the pair does not match; subsequent logins for
// the created record go through the stored hash like any other.
func (e *Engine) bootstrapAdmin(ctx context.Context, norm, pass string) (*IdentityRecord, error) {
	cfgEmail := normalizeEmail(e.config.Admin.Email)
	if cfgEmail == "" || e.config.Admin.Password == "" {
		return nil, nil
	}

	emailMatch := subtle.ConstantTimeCompare([]byte(norm), []byte(cfgEmail)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(e.config.Admin.Password)) == 1
	if !emailMatch || !passMatch {
		return nil, nil
	}

	hash, err := e.hasher.Hash(pass)
	if err != nil {
		return nil, err
	}

	now := e.now()
	record := &IdentityRecord{
		ID:                uuid.NewString(),
		Email:             norm,
		EmailHash:         privacy.Hash(norm),
		Name:              "Administrator",
		Role:              RoleAdmin,
		PasswordHash:      hash,
		PasswordChangedAt: now,
		PasswordExpiresAt: e.policy.ComputeExpiry(now),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := e.store.Create(ctx, record); err != nil {
		return nil, err
	}

	e.metricInc(MetricAdminBootstrap)
	e.emit(ctx, AuditEvent{
		EventType:  auditEventAdminBootstrap,
		IdentityID: record.ID,
		Success:    true,
	})
	return record, nil
}
