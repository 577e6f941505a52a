package secauth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/velvetcart/secauth/privacy"
)

// Register creates a customer identity and establishes its first
// session. Password complexity is enforced before any store access;
// duplicate emails surface as ErrAccountExists.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	norm := normalizeEmail(input.Email)
	if _, err := mail.ParseAddress(norm); err != nil {
		return nil, errors.New("invalid email address")
	}

	if err := e.policy.ValidateComplexity(input.Password); err != nil {
		return nil, err
	}

	hash, err := e.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := e.now()
	record := &IdentityRecord{
		ID:                uuid.NewString(),
		Email:             norm,
		EmailHash:         privacy.Hash(norm),
		Name:              name,
		Role:              RoleCustomer,
		PasswordHash:      hash,
		PasswordChangedAt: now,
		PasswordExpiresAt: e.policy.ComputeExpiry(now),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := e.store.Create(ctx, record); err != nil {
		if errors.Is(err, ErrIdentityExists) {
			e.metricInc(MetricRegisterDuplicate)
			e.emit(ctx, AuditEvent{
				EventType: auditEventRegisterDuplicate,
				Error:     ErrAccountExists.Error(),
			})
			return nil, ErrAccountExists
		}
		return nil, err
	}

	result, err := e.establishSession(ctx, record.ID, auditEventRegisterSuccess)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricRegisterSuccess)
	return result, nil
}
