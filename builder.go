package credauth

import (
	"errors"
	"time"

	"github.com/MrEthical07/credauth/jwt"
	"github.com/MrEthical07/credauth/password"
)

// Builder defines a public type used by credauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	store  Store
	mailer Mailer

	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSigningSecret describes the withsigningsecret operation and its observable behavior.
//
// WithSigningSecret may return an error when input validation, dependency calls, or security checks fail.
// WithSigningSecret does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSigningSecret(secret []byte) *Builder {
	b.config.JWT.Secret = append([]byte(nil), secret...)
	return b
}

// WithStore describes the withstore operation and its observable behavior.
//
// WithStore may return an error when input validation, dependency calls, or security checks fail.
// WithStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithStore(s Store) *Builder {
	b.store = s
	return b
}

// WithMailer describes the withmailer operation and its observable behavior.
//
// WithMailer may return an error when input validation, dependency calls, or security checks fail.
// WithMailer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock injects the time source used for every expiry decision. Tests
// rely on this; production builds leave it nil and get time.Now.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already consumed")
	}
	if b.store == nil {
		return nil, errors.New("store is required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer is required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	vault, err := password.NewArgon2(password.Config{
		Memory:      b.config.Password.Memory,
		Time:        b.config.Password.Time,
		Parallelism: b.config.Password.Parallelism,
		SaltLength:  b.config.Password.SaltLength,
		KeyLength:   b.config.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := jwt.NewManager(jwt.Config{
		Secret: b.config.JWT.Secret,
		Issuer: b.config.JWT.Issuer,
		Clock:  b.clock,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:   b.config,
		accounts: b.store,
		ledger:   b.store,
		resets:   b.store,
		vault:    vault,
		tokens:   tokens,
		mailer:   b.mailer,
		clock:    b.clock,
	}

	if b.config.Audit.Enabled {
		engine.audit = newAuditDispatcher(b.config.Audit, b.auditSink)
	}
	if b.config.Metrics.Enabled {
		engine.metrics = NewMetrics(b.config.Metrics)
	}

	b.built = true
	return engine, nil
}
