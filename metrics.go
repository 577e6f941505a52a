package secauth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts credential failures.
	MetricLoginFailure
	// MetricLoginThrottled counts logins rejected by the brute-force
	// limiter.
	MetricLoginThrottled
	// MetricLoginPasswordExpired counts correct-password logins
	// blocked by password expiry.
	MetricLoginPasswordExpired
	// MetricRegisterSuccess counts completed registrations.
	MetricRegisterSuccess
	// MetricRegisterDuplicate counts registrations against an
	// existing email.
	MetricRegisterDuplicate
	// MetricValidateSuccess counts accepted session tokens.
	MetricValidateSuccess
	// MetricValidateExpired counts tokens rejected for expiry or a
	// stale token version.
	MetricValidateExpired
	// MetricValidateInvalid counts tokens rejected for structural,
	// signature, or session mismatch reasons.
	MetricValidateInvalid
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricPasswordChangeSuccess counts completed password changes.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeReuseRejected counts changes rejected by the
	// reuse policy.
	MetricPasswordChangeReuseRejected
	// MetricAdminBootstrap counts first-login admin record creation.
	MetricAdminBootstrap
	// MetricResetRequested counts password reset requests.
	MetricResetRequested
	// MetricResetSuccess counts completed password resets.
	MetricResetSuccess
	// MetricResetFailure counts rejected reset attempts.
	MetricResetFailure
	// MetricValidateLatency is the histogram of Validate durations.
	MetricValidateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// paddedCounter keeps each counter on its own cache line so hot
// counters do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the engine's in-process counters. All methods are safe
// for concurrent use.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a Metrics set honoring the config switches.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counting is on.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample. Only MetricValidateLatency has a
// histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricValidateLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

// Value returns one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters and histograms.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricValidateLatency].buckets[i])
		}
		s.Histograms[MetricValidateLatency] = buckets
	}

	return s
}

// String returns the stable export name for the metric.
func (id MetricID) String() string {
	switch id {
	case MetricLoginSuccess:
		return "login_success"
	case MetricLoginFailure:
		return "login_failure"
	case MetricLoginThrottled:
		return "login_throttled"
	case MetricLoginPasswordExpired:
		return "login_password_expired"
	case MetricRegisterSuccess:
		return "register_success"
	case MetricRegisterDuplicate:
		return "register_duplicate"
	case MetricValidateSuccess:
		return "validate_success"
	case MetricValidateExpired:
		return "validate_expired"
	case MetricValidateInvalid:
		return "validate_invalid"
	case MetricLogout:
		return "logout"
	case MetricPasswordChangeSuccess:
		return "password_change_success"
	case MetricPasswordChangeReuseRejected:
		return "password_change_reuse_rejected"
	case MetricAdminBootstrap:
		return "admin_bootstrap"
	case MetricResetRequested:
		return "reset_requested"
	case MetricResetSuccess:
		return "reset_success"
	case MetricResetFailure:
		return "reset_failure"
	case MetricValidateLatency:
		return "validate_latency"
	default:
		return "unknown"
	}
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
