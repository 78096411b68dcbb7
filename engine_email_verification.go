package credauth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// VerifyEmail describes the verifyemail operation and its observable behavior.
//
// VerifyEmail consumes the pending verification challenge for the account's
// email and, on a matching unexpired code, flips the account to verified and
// issues its first session. Calling it again on an already verified account
// is idempotent and simply returns the stored session.
//
// VerifyEmail may return an error when input validation, dependency calls, or security checks fail.
// VerifyEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyEmail(ctx context.Context, accountID, otp string) (*Session, error) {
	if e == nil || e.accounts == nil || e.ledger == nil {
		return nil, internalError("engine not ready", nil)
	}

	if _, err := uuid.Parse(accountID); err != nil {
		err := invalidInput("account id is not a valid uuid")
		e.emitAudit(ctx, auditEventEmailVerifyFailure, false, accountID, "", err, nil)
		return nil, err
	}
	if otp == "" {
		err := invalidInput("otp is required")
		e.emitAudit(ctx, auditEventEmailVerifyFailure, false, accountID, "", err, nil)
		return nil, err
	}

	account, err := e.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			err := notFound("account not found")
			e.emitAudit(ctx, auditEventEmailVerifyFailure, false, accountID, "", err, nil)
			return nil, err
		}
		return nil, internalError("account lookup failed", err)
	}

	if account.Verified {
		// Replayed verification. The account state does not change; hand back
		// the stored session while it is still live, minting a fresh
		// unpersisted token when none was ever stored or the stored one has
		// already expired.
		if account.SessionToken != "" && account.SessionExpiresAt.After(e.now()) {
			return &Session{Token: account.SessionToken, ExpiresAt: account.SessionExpiresAt}, nil
		}
		token, expiresAt, err := e.issueSession(account.ID)
		if err != nil {
			return nil, err
		}
		return &Session{Token: token, ExpiresAt: expiresAt}, nil
	}

	if err := e.checkEmailChallenge(ctx, account, otp); err != nil {
		e.metricInc(MetricEmailVerifyFailure)
		e.emitAudit(ctx, auditEventEmailVerifyFailure, false, account.ID, account.Email, err, nil)
		return nil, err
	}

	token, expiresAt, err := e.issueSession(account.ID)
	if err != nil {
		return nil, err
	}
	if err := e.accounts.MarkVerified(ctx, account.ID, token, expiresAt); err != nil {
		return nil, internalError("account verification save failed", err)
	}

	e.metricInc(MetricEmailVerifySuccess)
	e.emitAudit(ctx, auditEventEmailVerifySuccess, true, account.ID, account.Email, nil, nil)
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// checkEmailChallenge validates and consumes the pending challenge. The
// consume is a conditional update keyed on used = false, so a concurrent
// duplicate confirmation loses with ErrChallengeConsumed.
func (e *Engine) checkEmailChallenge(ctx context.Context, account *AccountRecord, otp string) error {
	challenge, err := e.ledger.GetEmailChallenge(ctx, account.Email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return notFound("no pending verification for this account")
		}
		return internalError("verification challenge lookup failed", err)
	}

	if challenge.Used {
		return invalidInput("verification code already used")
	}
	now := e.now()
	if !challenge.ExpiresAt.After(now) {
		return expired("verification code expired")
	}
	if challenge.OTP != otp {
		return invalidInput("verification code does not match")
	}

	if err := e.ledger.ConsumeEmailChallenge(ctx, account.Email, otp, now); err != nil {
		if errors.Is(err, ErrChallengeConsumed) {
			return invalidInput("verification code already used")
		}
		return internalError("verification challenge consume failed", err)
	}
	return nil
}
