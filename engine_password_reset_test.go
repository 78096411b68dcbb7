package credauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func (env *testEnv) latestResetOTP(t *testing.T, email string) string {
	t.Helper()
	challenge, err := env.store.LatestResetChallenge(context.Background(), email)
	if err != nil {
		t.Fatalf("no pending reset challenge for %s: %v", email, err)
	}
	return challenge.OTP
}

func TestPasswordResetFullFlow(t *testing.T) {
	env := newTestEnv(t)
	accountID, _ := env.registerAndVerify(t, "alice@example.com")
	oldHash := env.store.accounts[accountID].PasswordHash

	if err := env.engine.RequestPasswordReset(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	mail := env.mailer.last(t)
	otp := env.latestResetOTP(t, "alice@example.com")
	if mail.To != "alice@example.com" || len(otp) != 6 {
		t.Fatalf("reset mail to %q, otp %q", mail.To, otp)
	}

	resetToken, err := env.engine.ConfirmResetOTP(context.Background(), "alice@example.com", otp)
	if err != nil {
		t.Fatalf("ConfirmResetOTP: %v", err)
	}
	if resetToken == "" {
		t.Fatal("no reset token returned")
	}
	// Only the hash is persisted.
	stored, err := env.store.LatestResetToken(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("LatestResetToken: %v", err)
	}
	if stored.TokenHash == resetToken {
		t.Fatal("reset token stored in plaintext")
	}

	session, err := env.engine.SetNewPassword(context.Background(), "alice@example.com", resetToken, "new password 1", "new password 1")
	if err != nil {
		t.Fatalf("SetNewPassword: %v", err)
	}
	if session.Token == "" {
		t.Fatal("no session issued after reset")
	}

	account := env.store.accounts[accountID]
	if account.PasswordHash == oldHash {
		t.Fatal("password hash unchanged")
	}
	if account.SessionToken != session.Token {
		t.Fatal("reset must persist the fresh session")
	}

	if _, err := env.engine.Login(context.Background(), "alice@example.com", "hunter22"); KindOf(err) != KindUnauthorized {
		t.Fatal("old password still works after reset")
	}
	if _, err := env.engine.Login(context.Background(), "alice@example.com", "new password 1"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestRequestPasswordResetDoesNotRevealAccounts(t *testing.T) {
	env := newTestEnv(t)

	// No account exists for this email; the request still succeeds and mails
	// a code.
	if err := env.engine.RequestPasswordReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset for unknown email: %v", err)
	}
	if env.mailer.count() != 1 {
		t.Fatalf("mails sent = %d, want 1", env.mailer.count())
	}
}

func TestConfirmResetOTPLatestChallengeWins(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "alice@example.com")

	_ = env.engine.RequestPasswordReset(context.Background(), "alice@example.com")
	firstOTP := env.latestResetOTP(t, "alice@example.com")
	_ = env.engine.RequestPasswordReset(context.Background(), "alice@example.com")
	secondOTP := env.latestResetOTP(t, "alice@example.com")

	if firstOTP == secondOTP {
		t.Skip("random codes collided")
	}

	// Only the newest unused challenge is consulted.
	_, err := env.engine.ConfirmResetOTP(context.Background(), "alice@example.com", firstOTP)
	wantKind(t, err, KindInvalidInput)

	if _, err := env.engine.ConfirmResetOTP(context.Background(), "alice@example.com", secondOTP); err != nil {
		t.Fatalf("ConfirmResetOTP with newest code: %v", err)
	}
}

func TestConfirmResetOTPSingleUse(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "alice@example.com")
	_ = env.engine.RequestPasswordReset(context.Background(), "alice@example.com")
	otp := env.latestResetOTP(t, "alice@example.com")

	if _, err := env.engine.ConfirmResetOTP(context.Background(), "alice@example.com", otp); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	_, err := env.engine.ConfirmResetOTP(context.Background(), "alice@example.com", otp)
	if err == nil {
		t.Fatal("replayed otp must fail")
	}
}

func TestConfirmResetOTPExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "alice@example.com")
	_ = env.engine.RequestPasswordReset(context.Background(), "alice@example.com")
	otp := env.latestResetOTP(t, "alice@example.com")

	env.advance(5 * time.Minute)

	_, err := env.engine.ConfirmResetOTP(context.Background(), "alice@example.com", otp)
	wantKind(t, err, KindExpired)
}

func TestConfirmResetOTPNoPending(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.ConfirmResetOTP(context.Background(), "alice@example.com", "123456")
	wantKind(t, err, KindNotFound)
}

func TestSetNewPasswordRejectsBadToken(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "alice@example.com")
	_ = env.engine.RequestPasswordReset(context.Background(), "alice@example.com")
	otp := env.latestResetOTP(t, "alice@example.com")
	if _, err := env.engine.ConfirmResetOTP(context.Background(), "alice@example.com", otp); err != nil {
		t.Fatalf("ConfirmResetOTP: %v", err)
	}

	_, err := env.engine.SetNewPassword(context.Background(), "alice@example.com", "not-the-token", "new password 1", "new password 1")
	wantKind(t, err, KindUnauthorized)
}

func TestSetNewPasswordTokenExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "alice@example.com")
	_ = env.engine.RequestPasswordReset(context.Background(), "alice@example.com")
	otp := env.latestResetOTP(t, "alice@example.com")
	resetToken, err := env.engine.ConfirmResetOTP(context.Background(), "alice@example.com", otp)
	if err != nil {
		t.Fatalf("ConfirmResetOTP: %v", err)
	}

	env.advance(5 * time.Minute)

	_, err = env.engine.SetNewPassword(context.Background(), "alice@example.com", resetToken, "new password 1", "new password 1")
	wantKind(t, err, KindExpired)
}

func TestSetNewPasswordValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.SetNewPassword(context.Background(), "alice@example.com", "token", "abc", "abc")
	wantKind(t, err, KindInvalidInput)

	_, err = env.engine.SetNewPassword(context.Background(), "alice@example.com", "token", "new password 1", "different")
	wantKind(t, err, KindInvalidInput)

	_, err = env.engine.SetNewPassword(context.Background(), "alice@example.com", "", "new password 1", "new password 1")
	wantKind(t, err, KindInvalidInput)
}

func TestSetNewPasswordNoPendingToken(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "alice@example.com")

	_, err := env.engine.SetNewPassword(context.Background(), "alice@example.com", "some-token", "new password 1", "new password 1")
	wantKind(t, err, KindUnauthorized)
}

func TestSetNewPasswordCommitFailureLeavesPasswordUsable(t *testing.T) {
	env := newTestEnv(t)
	accountID, _ := env.registerAndVerify(t, "alice@example.com")
	_ = env.engine.RequestPasswordReset(context.Background(), "alice@example.com")
	otp := env.latestResetOTP(t, "alice@example.com")
	resetToken, err := env.engine.ConfirmResetOTP(context.Background(), "alice@example.com", otp)
	if err != nil {
		t.Fatalf("ConfirmResetOTP: %v", err)
	}

	env.store.failResetPassword = errors.New("tx aborted")
	_, err = env.engine.SetNewPassword(context.Background(), "alice@example.com", resetToken, "new password 1", "new password 1")
	wantKind(t, err, KindInternal)

	// Nothing was applied: the old password still logs in and the token is
	// still live for a retry.
	oldHash := env.store.accounts[accountID].PasswordHash
	if _, err := env.engine.Login(context.Background(), "alice@example.com", "hunter22"); err != nil {
		t.Fatalf("old password must survive a failed commit: %v", err)
	}
	if env.store.accounts[accountID].PasswordHash != oldHash {
		t.Fatal("hash changed despite failed commit")
	}

	env.store.failResetPassword = nil
	if _, err := env.engine.SetNewPassword(context.Background(), "alice@example.com", resetToken, "new password 1", "new password 1"); err != nil {
		t.Fatalf("retry after failed commit: %v", err)
	}
}

func TestSetNewPasswordTokenRaceMapsToUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "alice@example.com")
	_ = env.engine.RequestPasswordReset(context.Background(), "alice@example.com")
	otp := env.latestResetOTP(t, "alice@example.com")
	resetToken, err := env.engine.ConfirmResetOTP(context.Background(), "alice@example.com", otp)
	if err != nil {
		t.Fatalf("ConfirmResetOTP: %v", err)
	}

	env.store.failResetPassword = ErrChallengeConsumed
	_, err = env.engine.SetNewPassword(context.Background(), "alice@example.com", resetToken, "new password 1", "new password 1")
	wantKind(t, err, KindUnauthorized)
}
