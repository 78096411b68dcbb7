package credauth

import (
	"context"
	"errors"

	"github.com/MrEthical07/credauth/internal"
	"github.com/google/uuid"
)

// RequestPasswordReset describes the requestpasswordreset operation and its observable behavior.
//
// RequestPasswordReset appends a fresh reset OTP challenge for the email and
// mails the code. It deliberately does not check that an account exists for
// the address; the response is identical either way so the endpoint cannot be
// used to enumerate registered emails.
//
// RequestPasswordReset may return an error when input validation, dependency calls, or security checks fail.
// RequestPasswordReset does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e == nil || e.ledger == nil {
		return internalError("engine not ready", nil)
	}

	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	otp, err := internal.NewOTP(e.config.PasswordReset.OTPDigits)
	if err != nil {
		return internalError("otp generation failed", err)
	}
	expiresAt := e.now().Add(e.config.PasswordReset.ChallengeTTL)
	if err := e.ledger.CreateResetChallenge(ctx, email, otp, expiresAt); err != nil {
		return internalError("reset challenge save failed", err)
	}

	subject, body, err := renderMail(MailResetOTP, e.config.Mail.AppName, map[string]string{
		mailVarOTP: otp,
	})
	if err != nil {
		return internalError("mail rendering failed", err)
	}
	if err := e.mailer.Send(ctx, email, subject, body); err != nil {
		return internalError("reset mail delivery failed", err)
	}

	e.metricInc(MetricResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, "", email, nil, nil)
	return nil
}

// ConfirmResetOTP describes the confirmresetotp operation and its observable behavior.
//
// ConfirmResetOTP checks the supplied code against the newest unused reset
// challenge for the email. On a match the challenge is consumed and an opaque
// single-use reset token is minted; only a vault hash of the token is stored,
// the plaintext returned here is the one copy that ever exists.
//
// ConfirmResetOTP may return an error when input validation, dependency calls, or security checks fail.
// ConfirmResetOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmResetOTP(ctx context.Context, email, otp string) (string, error) {
	if e == nil || e.ledger == nil {
		return "", internalError("engine not ready", nil)
	}

	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if otp == "" {
		return "", invalidInput("otp is required")
	}

	resetToken, err := e.confirmResetOTP(ctx, email, otp)
	if err != nil {
		e.metricInc(MetricResetOTPConfirmFailure)
		e.emitAudit(ctx, auditEventResetOTPConfirm, false, "", email, err, nil)
		return "", err
	}

	e.metricInc(MetricResetOTPConfirmSuccess)
	e.emitAudit(ctx, auditEventResetOTPConfirm, true, "", email, nil, nil)
	return resetToken, nil
}

func (e *Engine) confirmResetOTP(ctx context.Context, email, otp string) (string, error) {
	challenge, err := e.ledger.LatestResetChallenge(ctx, email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return "", notFound("no pending password reset for this email")
		}
		return "", internalError("reset challenge lookup failed", err)
	}

	if !challenge.ExpiresAt.After(e.now()) {
		return "", expired("reset code expired")
	}
	if challenge.OTP != otp {
		return "", invalidInput("reset code does not match")
	}

	if err := e.ledger.ConsumeResetChallenge(ctx, challenge.ID); err != nil {
		if errors.Is(err, ErrChallengeConsumed) {
			return "", invalidInput("reset code already used")
		}
		return "", internalError("reset challenge consume failed", err)
	}

	resetToken := uuid.New().String()
	tokenHash, err := e.vault.Hash(resetToken)
	if err != nil {
		return "", internalError("reset token hashing failed", err)
	}
	expiresAt := e.now().Add(e.config.PasswordReset.TokenTTL)
	if err := e.ledger.CreateResetToken(ctx, email, tokenHash, expiresAt); err != nil {
		return "", internalError("reset token save failed", err)
	}
	return resetToken, nil
}

// SetNewPassword describes the setnewpassword operation and its observable behavior.
//
// SetNewPassword is the terminal step of the reset flow. It proves possession
// of a live reset token, then commits the new password hash, a fresh session
// and the token invalidation in one storage transaction, so a crash can never
// leave a changed password with a still-live reset token.
//
// SetNewPassword may return an error when input validation, dependency calls, or security checks fail.
// SetNewPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SetNewPassword(ctx context.Context, email, resetToken, pass, confirm string) (*Session, error) {
	if e == nil || e.ledger == nil || e.resets == nil {
		return nil, internalError("engine not ready", nil)
	}

	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if resetToken == "" {
		return nil, invalidInput("reset token is required")
	}
	if len(pass) < e.config.Password.MinLength {
		return nil, invalidInput("password is too short")
	}
	if pass != confirm {
		return nil, invalidInput("confirm password does not match password")
	}

	session, err := e.setNewPassword(ctx, email, resetToken, pass)
	if err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, false, "", email, err, nil)
		return nil, err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChange, true, "", email, nil, nil)
	return session, nil
}

func (e *Engine) setNewPassword(ctx context.Context, email, resetToken, pass string) (*Session, error) {
	record, err := e.ledger.LatestResetToken(ctx, email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, unauthorized("reset token invalid or expired")
		}
		return nil, internalError("reset token lookup failed", err)
	}

	if !record.ExpiresAt.After(e.now()) {
		return nil, expired("reset token expired")
	}
	ok, err := e.vault.Compare(resetToken, record.TokenHash)
	if err != nil {
		return nil, mapVaultError(err)
	}
	if !ok {
		return nil, unauthorized("reset token invalid or expired")
	}

	account, err := e.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, notFound("account not found")
		}
		return nil, internalError("account lookup failed", err)
	}

	hash, err := e.vault.Hash(pass)
	if err != nil {
		return nil, mapVaultError(err)
	}
	token, expiresAt, err := e.issueSession(account.ID)
	if err != nil {
		return nil, err
	}

	if err := e.resets.ResetPassword(ctx, ResetPasswordParams{
		Email:            email,
		PasswordHash:     hash,
		SessionToken:     token,
		SessionExpiresAt: expiresAt,
		ResetTokenID:     record.ID,
	}); err != nil {
		if errors.Is(err, ErrChallengeConsumed) {
			// Raced with a concurrent reset using the same token.
			return nil, unauthorized("reset token invalid or expired")
		}
		return nil, internalError("password reset commit failed", err)
	}

	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}
