package credauth

import (
	"errors"
	"time"
)

// Config defines a public type used by credauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT               JWTConfig
	Password          PasswordConfig
	EmailVerification EmailVerificationConfig
	PasswordReset     PasswordResetConfig
	Mail              MailConfig
	Audit             AuditConfig
	Metrics           MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by credauth APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	// Secret is the process-wide HS256 signing secret, loaded once at startup.
	Secret []byte
	Issuer string
	// SessionTTL bounds every issued session token.
	SessionTTL time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by credauth APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// MinLength is a registration policy, enforced by the engine before the
	// vault sees the input. The vault itself only rejects empty and > 64 bytes.
	MinLength int
}

/*
====================================
CHALLENGE CONFIG
====================================
*/

// EmailVerificationConfig defines a public type used by credauth APIs.
//
// EmailVerificationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EmailVerificationConfig struct {
	OTPDigits    int
	ChallengeTTL time.Duration
}

// PasswordResetConfig defines a public type used by credauth APIs.
//
// PasswordResetConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordResetConfig struct {
	OTPDigits    int
	ChallengeTTL time.Duration
	// TokenTTL bounds the post-OTP reset token.
	TokenTTL time.Duration
}

/*
====================================
MAIL CONFIG
====================================
*/

// MailConfig defines a public type used by credauth APIs.
//
// MailConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MailConfig struct {
	// AppName appears in subjects and greetings of rendered templates.
	AppName string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by credauth APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events instead of blocking request paths when the
	// buffer is saturated.
	DropIfFull bool
}

// MetricsConfig defines a public type used by credauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig may return an error when input validation, dependency calls, or security checks fail.
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			Issuer:     "credauth",
			SessionTTL: 24 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   6,
		},
		EmailVerification: EmailVerificationConfig{
			OTPDigits:    6,
			ChallengeTTL: 5 * time.Minute,
		},
		PasswordReset: PasswordResetConfig{
			OTPDigits:    6,
			ChallengeTTL: 5 * time.Minute,
			TokenTTL:     5 * time.Minute,
		},
		Mail: MailConfig{
			AppName: "credauth",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if len(cfg.JWT.Secret) == 0 {
		return errors.New("jwt signing secret is required")
	}
	if cfg.JWT.SessionTTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if cfg.Password.MinLength < 1 {
		return errors.New("password min length must be >= 1")
	}
	if cfg.EmailVerification.OTPDigits < 6 || cfg.EmailVerification.OTPDigits > 10 {
		return errors.New("email verification otp digits must be between 6 and 10")
	}
	if cfg.EmailVerification.ChallengeTTL <= 0 {
		return errors.New("email verification challenge ttl must be positive")
	}
	if cfg.PasswordReset.OTPDigits < 6 || cfg.PasswordReset.OTPDigits > 10 {
		return errors.New("password reset otp digits must be between 6 and 10")
	}
	if cfg.PasswordReset.ChallengeTTL <= 0 || cfg.PasswordReset.TokenTTL <= 0 {
		return errors.New("password reset ttls must be positive")
	}
	if cfg.Audit.Enabled && cfg.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive when audit is enabled")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	clone := cfg
	if cfg.JWT.Secret != nil {
		clone.JWT.Secret = append([]byte(nil), cfg.JWT.Secret...)
	}
	return clone
}
