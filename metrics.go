package trybeauth

import (
	"sort"
	"sync/atomic"
	"time"
)

// MetricID identifies one in-process counter or histogram.
type MetricID uint16

const (
	// MetricRegisterSuccess counts identities created by Register.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterDuplicate counts registrations rejected for an existing email.
	MetricRegisterDuplicate
	// MetricRegisterFailure counts other registration failures.
	MetricRegisterFailure
	// MetricLoginSuccess counts logins that issued a token pair.
	MetricLoginSuccess
	// MetricLoginFailure counts rejected or failed logins.
	MetricLoginFailure
	// MetricGatePassExcluded counts requests passed on the exclusion list.
	MetricGatePassExcluded
	// MetricGatePassUnprotected counts requests passed because no protected prefix matched.
	MetricGatePassUnprotected
	// MetricGatePassAccess counts requests passed on a valid access token.
	MetricGatePassAccess
	// MetricGateRejected counts requests the gate answered with an error.
	MetricGateRejected
	// MetricRotationSuccess counts expired access tokens exchanged for a new pair.
	MetricRotationSuccess
	// MetricRotationFailure counts refresh attempts that did not yield a new pair.
	MetricRotationFailure
	// MetricLogout counts completed logouts.
	MetricLogout
	// MetricAuthenticateLatency is the Authenticate latency histogram.
	MetricAuthenticateLatency
	metricIDCount
)

// latencyBounds are the inclusive upper bounds of every latency bucket but
// the last, which is unbounded.
var latencyBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const latencyBucketCount = len(latencyBounds) + 1

// counterSlot keeps each counter on its own cache line.
type counterSlot struct {
	n atomic.Uint64
	_ [56]byte
}

type latencyHistogram struct {
	buckets [latencyBucketCount]atomic.Uint64
}

func (h *latencyHistogram) record(d time.Duration) {
	i := sort.Search(len(latencyBounds), func(i int) bool {
		return d.Truncate(time.Millisecond) <= latencyBounds[i]
	})
	h.buckets[i].Add(1)
}

func (h *latencyHistogram) load() []uint64 {
	out := make([]uint64, latencyBucketCount)
	for i := range h.buckets {
		out[i] = h.buckets[i].Load()
	}
	return out
}

// Metrics holds the engine's counters and the Authenticate latency
// histogram. A nil or disabled Metrics ignores every update.
type Metrics struct {
	enabled bool
	latency bool

	counters [metricIDCount]counterSlot
	auth     latencyHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics configured by cfg. Latency recording needs
// both flags.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
		latency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.latency
}

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= metricIDCount || id == MetricAuthenticateLatency {
		return
	}
	m.counters[id].n.Add(1)
}

// Observe records d. MetricAuthenticateLatency is the only histogram; other
// ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() || id != MetricAuthenticateLatency {
		return
	}
	m.auth.record(d)
}

// Value returns the current count for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].n.Load()
}

// Snapshot copies all counters. The latency histogram is included only when
// latency recording is enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return s
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id != MetricAuthenticateLatency {
			s.Counters[id] = m.counters[id].n.Load()
		}
	}
	if m.latency {
		s.Histograms[MetricAuthenticateLatency] = m.auth.load()
	}
	return s
}
