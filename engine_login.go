package credauth

import (
	"context"
	"errors"
)

// Login describes the login operation and its observable behavior.
//
// Login checks the password against the stored hash and, when it matches a
// verified account, issues a new session token and persists it on the account
// row. Unknown email, wrong password and an unverified account all fail with
// the same Unauthorized error so callers cannot probe which emails exist.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, email, pass string) (*Session, error) {
	if e == nil || e.accounts == nil {
		return nil, internalError("engine not ready", nil)
	}

	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		e.emitAudit(ctx, auditEventLoginFailure, false, "", email, err, nil)
		return nil, err
	}
	if pass == "" {
		err := invalidInput("password is required")
		e.emitAudit(ctx, auditEventLoginFailure, false, "", email, err, nil)
		return nil, err
	}

	account, err := e.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, e.failLogin(ctx, "", email, "unknown_email")
		}
		return nil, internalError("account lookup failed", err)
	}

	ok, err := e.vault.Compare(pass, account.PasswordHash)
	if err != nil {
		err := mapVaultError(err)
		if KindOf(err) == KindInvalidInput {
			e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, email, err, nil)
		}
		return nil, err
	}
	if !ok {
		return nil, e.failLogin(ctx, account.ID, email, "bad_password")
	}
	if !account.Verified {
		return nil, e.failLogin(ctx, account.ID, email, "unverified")
	}

	token, expiresAt, err := e.issueSession(account.ID)
	if err != nil {
		return nil, err
	}
	if err := e.accounts.UpdateSession(ctx, email, token, expiresAt); err != nil {
		return nil, internalError("session save failed", err)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, account.ID, email, nil, nil)
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// failLogin records the failure internally and returns the single uniform
// credential error. The reason only ever reaches the audit trail.
func (e *Engine) failLogin(ctx context.Context, accountID, email, reason string) error {
	err := unauthorized("email or password is incorrect")
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, accountID, email, err, func() map[string]string {
		return map[string]string{"reason": reason}
	})
	return err
}
