package credauth

import (
	"context"
	"time"
)

// AccountRecord is the full account row handled by [AccountStore]. A record
// with Verified == false must never carry a session token that is still
// inside its expiry window.
type AccountRecord struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Verified     bool

	// SessionToken/SessionExpiresAt hold the most recently issued session
	// token; both are zero until the first verification or login.
	SessionToken     string
	SessionExpiresAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmailChallengeRecord is the single pending email-verification challenge for
// an address. Re-registration refreshes the same logical row; Used flips
// false to true exactly once.
type EmailChallengeRecord struct {
	Email     string
	OTP       string
	ExpiresAt time.Time
	Used      bool
}

// ResetChallengeRecord is one password-reset OTP row. Rows are append-only
// per email; the active one is the newest with Used == false.
type ResetChallengeRecord struct {
	ID        string
	Email     string
	OTP       string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// ResetTokenRecord is one post-OTP reset-token row. TokenHash is a vault hash
// of the opaque token handed to the caller; the plaintext is never persisted.
type ResetTokenRecord struct {
	ID        string
	Email     string
	TokenHash string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// AccountStore is the persistence contract for account rows. Implementations
// must make every mutation a single conditional statement; the engine never
// compensates for partially applied writes.
//
//	Docs: docs/store.md
type AccountStore interface {
	CreateAccount(ctx context.Context, account *AccountRecord) (*AccountRecord, error)
	GetAccountByID(ctx context.Context, id string) (*AccountRecord, error)
	GetAccountByEmail(ctx context.Context, email string) (*AccountRecord, error)

	// UpdateSession overwrites the stored session token and its expiry.
	UpdateSession(ctx context.Context, email, token string, expiresAt time.Time) error

	// MarkVerified sets verified = true and stores the freshly issued session
	// token in the same statement.
	MarkVerified(ctx context.Context, id, token string, expiresAt time.Time) error
}

// ChallengeLedger is the persistence contract for the three challenge kinds.
// Consume methods must be conditional updates (used = false guard in the same
// statement), not read-then-write, so concurrent confirmations cannot both
// succeed.
//
//	Docs: docs/store.md
type ChallengeLedger interface {
	// UpsertEmailChallenge creates or refreshes in place the one pending
	// verification challenge for an email.
	UpsertEmailChallenge(ctx context.Context, email, otp string, expiresAt time.Time) error
	GetEmailChallenge(ctx context.Context, email string) (*EmailChallengeRecord, error)
	// ConsumeEmailChallenge flips used for the matching unexpired challenge.
	// Returns ErrChallengeConsumed when no row matched.
	ConsumeEmailChallenge(ctx context.Context, email, otp string, now time.Time) error

	CreateResetChallenge(ctx context.Context, email, otp string, expiresAt time.Time) error
	// LatestResetChallenge returns the newest unused challenge for the email
	// (created_at descending). Older unused rows stay untouched.
	LatestResetChallenge(ctx context.Context, email string) (*ResetChallengeRecord, error)
	ConsumeResetChallenge(ctx context.Context, id string) error

	CreateResetToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error
	LatestResetToken(ctx context.Context, email string) (*ResetTokenRecord, error)
}

// ResetPasswordParams carries the final password-reset transition.
type ResetPasswordParams struct {
	Email            string
	PasswordHash     string
	SessionToken     string
	SessionExpiresAt time.Time
	ResetTokenID     string
}

// PasswordResetter applies the terminal reset transition in one storage
// transaction: account password + session update and reset-token
// invalidation commit together or not at all.
type PasswordResetter interface {
	ResetPassword(ctx context.Context, params ResetPasswordParams) error
}

// Store is the combined persistence capability the Builder wires into the
// engine. store.Postgres satisfies it.
type Store interface {
	AccountStore
	ChallengeLedger
	PasswordResetter
}

// Mailer delivers a rendered message. Implementations live outside the
// engine; mailer.SMTP is the production one.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// RegisterOutcome is the closed variant describing what Register did.
type RegisterOutcome uint8

const (
	// RegisterCreated is an exported constant or variable used by the credential engine.
	RegisterCreated RegisterOutcome = iota
	// RegisterResent is an exported constant or variable used by the credential engine.
	RegisterResent
)

// RegisterResult is returned by [Engine.Register]. Outcome distinguishes a
// brand-new unverified account from a refreshed challenge on an existing
// unverified one; a verified duplicate is a Conflict error instead.
type RegisterResult struct {
	AccountID string
	Outcome   RegisterOutcome
}

// Session is the signed session token handed back by [Engine.VerifyEmail],
// [Engine.Login] and [Engine.SetNewPassword], together with its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Profile is the sanitized account view returned by [Engine.Profile] for
// protected reads. It never includes hashes or tokens.
type Profile struct {
	ID       string
	Name     string
	Email    string
	Verified bool
	JoinedAt time.Time
}
