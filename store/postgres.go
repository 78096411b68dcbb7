package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/MrEthical07/credauth"
	"github.com/MrEthical07/credauth/store/migrations"
)

// Postgres implements credauth.Store and NoteStore on database/sql with the
// pgx stdlib driver.
type Postgres struct {
	db *sql.DB
}

// NewPostgres binds the store to an open connection pool. The caller owns the
// pool lifecycle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// RunMigrations sets up goose with the embedded migrations and applies any
// pending ones.
func (p *Postgres) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, p.db, ".")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// CreateAccount inserts the account row. A duplicate email maps to
// credauth.ErrDuplicateEmail so the engine can treat the race as a conflict.
func (p *Postgres) CreateAccount(ctx context.Context, account *credauth.AccountRecord) (*credauth.AccountRecord, error) {
	query := `INSERT INTO accounts (id, name, email, password_hash)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at, updated_at`

	err := p.db.QueryRowContext(ctx, query,
		account.ID, account.Name, account.Email, account.PasswordHash,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, credauth.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

const accountColumns = `id, name, email, password_hash, verified,
	COALESCE(session_token, ''), COALESCE(session_expires_at, 'epoch'::timestamptz),
	created_at, updated_at`

func scanAccount(row *sql.Row) (*credauth.AccountRecord, error) {
	account := &credauth.AccountRecord{}
	err := row.Scan(
		&account.ID, &account.Name, &account.Email, &account.PasswordHash, &account.Verified,
		&account.SessionToken, &account.SessionExpiresAt,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, credauth.ErrRecordNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

// GetAccountByID loads one account row by primary key.
func (p *Postgres) GetAccountByID(ctx context.Context, id string) (*credauth.AccountRecord, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(p.db.QueryRowContext(ctx, query, id))
}

// GetAccountByEmail loads one account row by email.
func (p *Postgres) GetAccountByEmail(ctx context.Context, email string) (*credauth.AccountRecord, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(p.db.QueryRowContext(ctx, query, email))
}

// UpdateSession overwrites the stored session token and its expiry.
func (p *Postgres) UpdateSession(ctx context.Context, email, token string, expiresAt time.Time) error {
	query := `UPDATE accounts
	          SET session_token = $2, session_expires_at = $3, updated_at = now()
	          WHERE email = $1`

	result, err := p.db.ExecContext(ctx, query, email, token, expiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(result, credauth.ErrRecordNotFound)
}

// MarkVerified flips the account to verified and stores its first session in
// the same statement.
func (p *Postgres) MarkVerified(ctx context.Context, id, token string, expiresAt time.Time) error {
	query := `UPDATE accounts
	          SET verified = TRUE, session_token = $2, session_expires_at = $3, updated_at = now()
	          WHERE id = $1`

	result, err := p.db.ExecContext(ctx, query, id, token, expiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(result, credauth.ErrRecordNotFound)
}

// UpsertEmailChallenge creates or refreshes in place the one pending
// verification challenge for an email. A refresh always resets used to FALSE.
func (p *Postgres) UpsertEmailChallenge(ctx context.Context, email, otp string, expiresAt time.Time) error {
	query := `INSERT INTO email_verifications (email, otp, expires_at, used)
	          VALUES ($1, $2, $3, FALSE)
	          ON CONFLICT (email)
	          DO UPDATE SET otp = EXCLUDED.otp, expires_at = EXCLUDED.expires_at, used = FALSE`

	if _, err := p.db.ExecContext(ctx, query, email, otp, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetEmailChallenge loads the pending verification challenge for an email.
func (p *Postgres) GetEmailChallenge(ctx context.Context, email string) (*credauth.EmailChallengeRecord, error) {
	query := `SELECT email, otp, expires_at, used FROM email_verifications WHERE email = $1`

	record := &credauth.EmailChallengeRecord{}
	err := p.db.QueryRowContext(ctx, query, email).Scan(
		&record.Email, &record.OTP, &record.ExpiresAt, &record.Used,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, credauth.ErrRecordNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return record, nil
}

// ConsumeEmailChallenge flips used for the matching live challenge. The used
// guard lives in the statement itself so two concurrent confirmations cannot
// both match.
func (p *Postgres) ConsumeEmailChallenge(ctx context.Context, email, otp string, now time.Time) error {
	query := `UPDATE email_verifications
	          SET used = TRUE
	          WHERE email = $1 AND otp = $2 AND used = FALSE AND expires_at > $3`

	result, err := p.db.ExecContext(ctx, query, email, otp, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(result, credauth.ErrChallengeConsumed)
}

// CreateResetChallenge appends a new reset OTP row for the email.
func (p *Postgres) CreateResetChallenge(ctx context.Context, email, otp string, expiresAt time.Time) error {
	query := `INSERT INTO password_reset_challenges (email, otp, expires_at)
	          VALUES ($1, $2, $3)`

	if _, err := p.db.ExecContext(ctx, query, email, otp, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// LatestResetChallenge returns the newest unused challenge for the email.
func (p *Postgres) LatestResetChallenge(ctx context.Context, email string) (*credauth.ResetChallengeRecord, error) {
	query := `SELECT id, email, otp, expires_at, used, created_at
	          FROM password_reset_challenges
	          WHERE email = $1 AND used = FALSE
	          ORDER BY created_at DESC
	          LIMIT 1`

	record := &credauth.ResetChallengeRecord{}
	err := p.db.QueryRowContext(ctx, query, email).Scan(
		&record.ID, &record.Email, &record.OTP, &record.ExpiresAt, &record.Used, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, credauth.ErrRecordNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return record, nil
}

// ConsumeResetChallenge flips used for the challenge, losing to any concurrent
// consumer via the used guard.
func (p *Postgres) ConsumeResetChallenge(ctx context.Context, id string) error {
	query := `UPDATE password_reset_challenges SET used = TRUE WHERE id = $1 AND used = FALSE`

	result, err := p.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(result, credauth.ErrChallengeConsumed)
}

// CreateResetToken appends a new reset-token row. Only the hash of the token
// is ever written.
func (p *Postgres) CreateResetToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	query := `INSERT INTO password_reset_tokens (email, token_hash, expires_at)
	          VALUES ($1, $2, $3)`

	if _, err := p.db.ExecContext(ctx, query, email, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// LatestResetToken returns the newest unused reset token for the email.
func (p *Postgres) LatestResetToken(ctx context.Context, email string) (*credauth.ResetTokenRecord, error) {
	query := `SELECT id, email, token_hash, expires_at, used, created_at
	          FROM password_reset_tokens
	          WHERE email = $1 AND used = FALSE
	          ORDER BY created_at DESC
	          LIMIT 1`

	record := &credauth.ResetTokenRecord{}
	err := p.db.QueryRowContext(ctx, query, email).Scan(
		&record.ID, &record.Email, &record.TokenHash, &record.ExpiresAt, &record.Used, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, credauth.ErrRecordNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return record, nil
}

// ResetPassword commits the terminal reset transition in one transaction:
// password and session on the account plus reset-token invalidation. If the
// token was consumed concurrently the whole transaction rolls back.
func (p *Postgres) ResetPassword(ctx context.Context, params credauth.ResetPasswordParams) error {
	return withTx(ctx, p.db, func(ctx context.Context, tx dbtx) error {
		accountQuery := `UPDATE accounts
		                 SET password_hash = $2, session_token = $3, session_expires_at = $4, updated_at = now()
		                 WHERE email = $1`

		result, err := tx.ExecContext(ctx, accountQuery,
			params.Email, params.PasswordHash, params.SessionToken, params.SessionExpiresAt)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if err := requireAffected(result, credauth.ErrRecordNotFound); err != nil {
			return err
		}

		tokenQuery := `UPDATE password_reset_tokens SET used = TRUE WHERE id = $1 AND used = FALSE`

		result, err = tx.ExecContext(ctx, tokenQuery, params.ResetTokenID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return requireAffected(result, credauth.ErrChallengeConsumed)
	})
}

func requireAffected(result sql.Result, sentinel error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return sentinel
	}
	return nil
}
