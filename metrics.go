package authgate

import "sync/atomic"

// MetricID identifies a gate counter.
type MetricID int

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricAuthenticateSuccess
	MetricAuthenticateFailure
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricLogout
	MetricSessionRevoked
	MetricStoreUnavailable
	metricIDCount
)

func (m MetricID) String() string {
	switch m {
	case MetricLoginSuccess:
		return "login_success"
	case MetricLoginFailure:
		return "login_failure"
	case MetricAuthenticateSuccess:
		return "authenticate_success"
	case MetricAuthenticateFailure:
		return "authenticate_failure"
	case MetricRefreshSuccess:
		return "refresh_success"
	case MetricRefreshFailure:
		return "refresh_failure"
	case MetricLogout:
		return "logout"
	case MetricSessionRevoked:
		return "session_revoked"
	case MetricStoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// Metrics holds lock-free in-process counters. A nil Metrics is valid
// and counts nothing.
type Metrics struct {
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics returns zeroed counters, or nil when disabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{}
}

// Inc increments a single counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id < 0 || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Get returns the current value of a single counter.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || id < 0 || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot returns a point-in-time copy of every counter, keyed by
// metric name. Counters are read one at a time; the snapshot is not a
// single consistent cut.
func (m *Metrics) Snapshot() map[string]uint64 {
	snap := make(map[string]uint64, metricIDCount)
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap[id.String()] = m.counters[id].Load()
	}
	return snap
}
