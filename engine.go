package credauth

import (
	"context"
	"strings"
	"time"

	"github.com/MrEthical07/credauth/jwt"
	"github.com/MrEthical07/credauth/password"
)

// Engine defines a public type used by credauth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config   Config
	accounts AccountStore
	ledger   ChallengeLedger
	resets   PasswordResetter
	vault    *password.Argon2
	tokens   *jwt.Manager
	mailer   Mailer
	audit    *auditDispatcher
	metrics  *Metrics
	clock    func() time.Time
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e.clock != nil {
		return e.clock()
	}
	return time.Now()
}

// Authenticate verifies a session token and returns the account id it was
// issued for. Every protected handler must call this before trusting the
// subject. Expiry is the only de-authorization mechanism for an issued token
// besides overwriting the account's stored session.
func (e *Engine) Authenticate(ctx context.Context, sessionToken string) (string, error) {
	if e == nil || e.tokens == nil {
		return "", internalError("engine not ready", nil)
	}
	if strings.TrimSpace(sessionToken) == "" {
		return "", unauthorized("session token missing")
	}

	subject, err := e.tokens.Verify(sessionToken)
	if err != nil {
		// Structural, signature and expiry failures all collapse here; the
		// caller only learns that the token did not authenticate.
		return "", unauthorized("session token invalid or expired")
	}
	return subject, nil
}

func (e *Engine) issueSession(accountID string) (string, time.Time, error) {
	token, err := e.tokens.Issue(accountID, e.config.JWT.SessionTTL)
	if err != nil {
		return "", time.Time{}, internalError("session token issuance failed", err)
	}
	return token, e.now().Add(e.config.JWT.SessionTTL), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
