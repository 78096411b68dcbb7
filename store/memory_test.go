package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/credauth"
)

func TestMemoryAccountLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.CreateAccount(ctx, &credauth.AccountRecord{
		ID: "a-1", Name: "Alice", Email: "alice@example.com", PasswordHash: "hash",
	})
	require.NoError(t, err)

	_, err = m.CreateAccount(ctx, &credauth.AccountRecord{
		ID: "a-2", Email: "alice@example.com",
	})
	require.ErrorIs(t, err, credauth.ErrDuplicateEmail)

	expiry := time.Now().Add(24 * time.Hour)
	require.NoError(t, m.MarkVerified(ctx, "a-1", "token-1", expiry))

	account, err := m.GetAccountByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.True(t, account.Verified)
	require.Equal(t, "token-1", account.SessionToken)

	require.NoError(t, m.UpdateSession(ctx, "alice@example.com", "token-2", expiry))
	account, err = m.GetAccountByID(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, "token-2", account.SessionToken)

	_, err = m.GetAccountByID(ctx, "missing")
	require.ErrorIs(t, err, credauth.ErrRecordNotFound)
}

func TestMemoryEmailChallengeSingleUse(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, m.UpsertEmailChallenge(ctx, "alice@example.com", "111111", now.Add(5*time.Minute)))
	// Re-registration replaces the code and clears the used flag.
	require.NoError(t, m.UpsertEmailChallenge(ctx, "alice@example.com", "222222", now.Add(5*time.Minute)))

	challenge, err := m.GetEmailChallenge(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "222222", challenge.OTP)

	require.ErrorIs(t, m.ConsumeEmailChallenge(ctx, "alice@example.com", "111111", now), credauth.ErrChallengeConsumed)
	require.NoError(t, m.ConsumeEmailChallenge(ctx, "alice@example.com", "222222", now))
	require.ErrorIs(t, m.ConsumeEmailChallenge(ctx, "alice@example.com", "222222", now), credauth.ErrChallengeConsumed)
}

func TestMemoryLatestResetChallengeWins(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	expiry := time.Now().Add(5 * time.Minute)

	require.NoError(t, m.CreateResetChallenge(ctx, "alice@example.com", "111111", expiry))
	require.NoError(t, m.CreateResetChallenge(ctx, "alice@example.com", "222222", expiry))

	challenge, err := m.LatestResetChallenge(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "222222", challenge.OTP)

	require.NoError(t, m.ConsumeResetChallenge(ctx, challenge.ID))
	require.ErrorIs(t, m.ConsumeResetChallenge(ctx, challenge.ID), credauth.ErrChallengeConsumed)

	// The older unused row becomes the latest again.
	older, err := m.LatestResetChallenge(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "111111", older.OTP)
}

func TestMemoryResetPasswordAtomicity(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.CreateAccount(ctx, &credauth.AccountRecord{
		ID: "a-1", Email: "alice@example.com", PasswordHash: "old",
	})
	require.NoError(t, err)
	require.NoError(t, m.CreateResetToken(ctx, "alice@example.com", "tokenhash", time.Now().Add(time.Hour)))

	token, err := m.LatestResetToken(ctx, "alice@example.com")
	require.NoError(t, err)

	params := credauth.ResetPasswordParams{
		Email:            "alice@example.com",
		PasswordHash:     "new",
		SessionToken:     "session",
		SessionExpiresAt: time.Now().Add(24 * time.Hour),
		ResetTokenID:     token.ID,
	}
	require.NoError(t, m.ResetPassword(ctx, params))

	account, err := m.GetAccountByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "new", account.PasswordHash)
	require.Equal(t, "session", account.SessionToken)

	// The token was consumed with the password change; a replay fails.
	require.ErrorIs(t, m.ResetPassword(ctx, params), credauth.ErrChallengeConsumed)
	_, err = m.LatestResetToken(ctx, "alice@example.com")
	require.ErrorIs(t, err, credauth.ErrRecordNotFound)
}

func TestMemoryNotesScopedByAccount(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.CreateNote(ctx, &Note{ID: "n-1", AccountID: "a-1", Title: "first", Content: "one"})
	require.NoError(t, err)
	_, err = m.CreateNote(ctx, &Note{ID: "n-2", AccountID: "a-1", Title: "second", Content: "two"})
	require.NoError(t, err)
	_, err = m.CreateNote(ctx, &Note{ID: "n-3", AccountID: "a-2", Title: "other", Content: "three"})
	require.NoError(t, err)

	notes, err := m.ListNotes(ctx, "a-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, "second", notes[0].Title)

	_, err = m.GetNote(ctx, "a-2", "n-1")
	require.ErrorIs(t, err, credauth.ErrRecordNotFound)

	require.ErrorIs(t, m.DeleteNote(ctx, "a-2", "n-1"), credauth.ErrRecordNotFound)
	require.NoError(t, m.DeleteNote(ctx, "a-1", "n-1"))

	notes, err = m.ListNotes(ctx, "a-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
}
