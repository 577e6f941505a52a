package secauth

import "context"

const (
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventLoginRateLimited      = "login_rate_limited"
	auditEventLoginPasswordExpired  = "login_password_expired"
	auditEventRegisterSuccess       = "register_success"
	auditEventRegisterDuplicate     = "register_duplicate"
	auditEventLogout                = "logout"
	auditEventSessionRejected       = "session_rejected"
	auditEventPasswordChangeSuccess = "password_change_success"
	auditEventPasswordChangeFailure = "password_change_failure"
	auditEventPasswordChangeReuse   = "password_change_reuse_attempt"
	auditEventPasswordResetRequest  = "password_reset_request"
	auditEventPasswordResetConfirm  = "password_reset_confirm"
	auditEventPasswordResetInvalid  = "password_reset_invalid"
	auditEventAdminBootstrap        = "admin_bootstrap"
)

// emit fills in timestamp and request metadata and hands the event to
// the dispatcher. A nil dispatcher makes this a no-op.
func (e *Engine) emit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	event.Timestamp = e.now()
	if event.IP == "" {
		event.IP = ClientIPFromContext(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = UserAgentFromContext(ctx)
	}
	e.audit.Emit(ctx, event)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
