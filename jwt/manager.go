package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const minSecretBytes = 32

// Verification failures callers are expected to branch on.
var (
	// ErrEmptyToken is an exported constant or variable used by the credential engine.
	ErrEmptyToken = errors.New("token is empty")
	// ErrInvalidToken is an exported constant or variable used by the credential engine.
	ErrInvalidToken = errors.New("token is invalid or expired")
	// ErrEmptySubject is an exported constant or variable used by the credential engine.
	ErrEmptySubject = errors.New("subject is empty")
)

// Config defines a public type used by credauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Secret []byte
	Issuer string
	Leeway time.Duration

	// Clock overrides the time source for issuance and validation.
	// A nil Clock means time.Now.
	Clock func() time.Time
}

// Manager defines a public type used by credauth APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config Config
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

func (j *Manager) now() time.Time {
	if j.config.Clock != nil {
		return j.config.Clock()
	}
	return time.Now()
}

// NewManager describes the newmanager operation and its observable behavior.
//
// NewManager may return an error when input validation, dependency calls, or security checks fail.
// NewManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// Issue describes the issue operation and its observable behavior.
//
// Issue signs a session token for the subject with the given lifetime.
//
// Issue may return an error when input validation, dependency calls, or security checks fail.
// Issue does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (j *Manager) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	if ttl <= 0 {
		return "", errors.New("invalid token TTL")
	}

	now := j.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.config.Secret)
}

// Verify describes the verify operation and its observable behavior.
//
// Verify checks signature, expiry and issuer and returns the subject. Every
// structural or cryptographic failure collapses into ErrInvalidToken so
// callers cannot leak the distinction to the network.
//
// Verify may return an error when input validation, dependency calls, or security checks fail.
// Verify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (j *Manager) Verify(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", ErrEmptyToken
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}
	if j.config.Clock != nil {
		options = append(options, jwt.WithTimeFunc(j.config.Clock))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return j.config.Secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
