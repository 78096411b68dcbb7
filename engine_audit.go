package credauth

import (
	"context"
	"time"
)

const (
	auditEventRegisterSuccess      = "register_success"
	auditEventRegisterResend       = "register_resend"
	auditEventRegisterFailure      = "register_failure"
	auditEventEmailVerifySuccess   = "email_verify_success"
	auditEventEmailVerifyFailure   = "email_verify_failure"
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventPasswordResetRequest = "password_reset_request"
	auditEventResetOTPConfirm      = "password_reset_otp_confirm"
	auditEventPasswordChange       = "password_change"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	meta := requestMetaFromContext(ctx)
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		Email:     email,
		IP:        meta.ClientIP,
		UserAgent: meta.UserAgent,
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = KindOf(err).String()
	}

	e.audit.Emit(ctx, event)
}
