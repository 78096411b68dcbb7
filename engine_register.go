package credauth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/MrEthical07/credauth/internal"
	"github.com/MrEthical07/credauth/password"
	"github.com/google/uuid"
)

// Register describes the register operation and its observable behavior.
//
// Register creates an unverified account and mails a registration OTP. When
// the email already belongs to an unverified account, the pending challenge
// is refreshed in place and the mail re-sent instead of creating a duplicate
// row. A verified duplicate fails with a Conflict error.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if e == nil || e.accounts == nil || e.ledger == nil {
		return nil, internalError("engine not ready", nil)
	}

	email := normalizeEmail(req.Email)
	if err := e.validateRegisterInput(req.Name, email, req.Password, req.ConfirmPassword); err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, err, nil)
		return nil, err
	}

	existing, err := e.accounts.GetAccountByEmail(ctx, email)
	switch {
	case err == nil && existing.Verified:
		e.metricInc(MetricRegisterConflict)
		e.emitAudit(ctx, auditEventRegisterFailure, false, existing.ID, email, ErrConflict, nil)
		return nil, conflict("account already exists")

	case err == nil:
		// Unverified account registering again: refresh the pending challenge
		// in place and resend the code.
		if err := e.issueEmailChallenge(ctx, existing.ID, existing.Name, email); err != nil {
			return nil, err
		}
		e.metricInc(MetricRegisterResend)
		e.emitAudit(ctx, auditEventRegisterResend, true, existing.ID, email, nil, nil)
		return &RegisterResult{AccountID: existing.ID, Outcome: RegisterResent}, nil

	case !errors.Is(err, ErrRecordNotFound):
		return nil, internalError("account lookup failed", err)
	}

	hash, err := e.vault.Hash(req.Password)
	if err != nil {
		return nil, mapVaultError(err)
	}

	account, err := e.accounts.CreateAccount(ctx, &AccountRecord{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			// Raced with a concurrent registration for the same email.
			e.metricInc(MetricRegisterConflict)
			e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, ErrConflict, nil)
			return nil, conflict("account already exists")
		}
		return nil, internalError("account creation failed", err)
	}

	if err := e.issueEmailChallenge(ctx, account.ID, account.Name, email); err != nil {
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, account.ID, email, nil, nil)
	return &RegisterResult{AccountID: account.ID, Outcome: RegisterCreated}, nil
}

// issueEmailChallenge upserts the single pending verification challenge for
// the email and mails the code. The challenge row is committed before the
// mail call so no storage handle is held across delivery.
func (e *Engine) issueEmailChallenge(ctx context.Context, accountID, name, email string) error {
	otp, err := internal.NewOTP(e.config.EmailVerification.OTPDigits)
	if err != nil {
		return internalError("otp generation failed", err)
	}

	expiresAt := e.now().Add(e.config.EmailVerification.ChallengeTTL)
	if err := e.ledger.UpsertEmailChallenge(ctx, email, otp, expiresAt); err != nil {
		return internalError("verification challenge save failed", err)
	}

	subject, body, err := renderMail(MailRegistrationOTP, e.config.Mail.AppName, map[string]string{
		mailVarName: name,
		mailVarOTP:  otp,
	})
	if err != nil {
		return internalError("mail rendering failed", err)
	}
	if err := e.mailer.Send(ctx, email, subject, body); err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, accountID, email, ErrInternal, func() map[string]string {
			return map[string]string{"reason": "mail_delivery"}
		})
		return internalError("verification mail delivery failed", err)
	}
	return nil
}

func (e *Engine) validateRegisterInput(name, email, pass, confirm string) error {
	if strings.TrimSpace(name) == "" {
		return invalidInput("name is required")
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if len(pass) < e.config.Password.MinLength {
		return invalidInput("password is too short")
	}
	if pass != confirm {
		return invalidInput("confirm password does not match password")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return invalidInput("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalidInput("email format is invalid")
	}
	return nil
}

func mapVaultError(err error) error {
	switch {
	case errors.Is(err, password.ErrEmptyPassword), errors.Is(err, password.ErrPasswordTooLong):
		return invalidInput(err.Error())
	case errors.Is(err, password.ErrMalformedHash):
		return internalError("stored password hash is malformed", err)
	default:
		return internalError("password vault failure", err)
	}
}
