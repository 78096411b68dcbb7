package credauth

import (
	"context"
	"errors"
)

// Profile describes the profile operation and its observable behavior.
//
// Profile loads the sanitized account view for a subject that already passed
// [Engine.Authenticate]. Hashes and tokens never leave the store through this
// path.
//
// Profile may return an error when input validation, dependency calls, or security checks fail.
// Profile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Profile(ctx context.Context, accountID string) (*Profile, error) {
	if e == nil || e.accounts == nil {
		return nil, internalError("engine not ready", nil)
	}
	if accountID == "" {
		return nil, invalidInput("account id is required")
	}

	account, err := e.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, notFound("account not found")
		}
		return nil, internalError("account lookup failed", err)
	}

	return &Profile{
		ID:       account.ID,
		Name:     account.Name,
		Email:    account.Email,
		Verified: account.Verified,
		JoinedAt: account.CreatedAt,
	}, nil
}
