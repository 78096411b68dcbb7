package credauth

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics system.
type MetricID uint8

const (
	// MetricRegisterSuccess is an exported constant or variable used by the credential engine.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterResend is an exported constant or variable used by the credential engine.
	MetricRegisterResend
	// MetricRegisterConflict is an exported constant or variable used by the credential engine.
	MetricRegisterConflict
	// MetricEmailVerifySuccess is an exported constant or variable used by the credential engine.
	MetricEmailVerifySuccess
	// MetricEmailVerifyFailure is an exported constant or variable used by the credential engine.
	MetricEmailVerifyFailure
	// MetricLoginSuccess is an exported constant or variable used by the credential engine.
	MetricLoginSuccess
	// MetricLoginFailure is an exported constant or variable used by the credential engine.
	MetricLoginFailure
	// MetricResetRequest is an exported constant or variable used by the credential engine.
	MetricResetRequest
	// MetricResetOTPConfirmSuccess is an exported constant or variable used by the credential engine.
	MetricResetOTPConfirmSuccess
	// MetricResetOTPConfirmFailure is an exported constant or variable used by the credential engine.
	MetricResetOTPConfirmFailure
	// MetricPasswordChangeSuccess is an exported constant or variable used by the credential engine.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeFailure is an exported constant or variable used by the credential engine.
	MetricPasswordChangeFailure

	metricIDCount
)

// Metrics holds lock-free counters for every engine operation outcome.
// All methods are no-ops on a nil receiver or when disabled.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time deep copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc describes the inc operation and its observable behavior.
//
// Inc may return an error when input validation, dependency calls, or security checks fail.
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot may return an error when input validation, dependency calls, or security checks fail.
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snapshot := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil || !m.enabled {
		return snapshot
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snapshot.Counters[id] = m.counters[id].Load()
	}
	return snapshot
}
