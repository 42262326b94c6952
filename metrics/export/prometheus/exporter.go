package prometheus

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	trybeauth "github.com/pististrybe/trybeauth"
	"github.com/pististrybe/trybeauth/metrics/export/internaldefs"
)

// Source is what the exporter reads on every scrape. *trybeauth.Engine
// satisfies it.
type Source interface {
	MetricsSnapshot() trybeauth.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter is a prometheus.Collector over a Source. It holds no values of
// its own; every Collect reads a fresh snapshot.
type Exporter struct {
	source   Source
	registry *prom.Registry

	counters []*prom.Desc
	latency  *prom.Desc
	dropped  *prom.Desc
}

// New returns an Exporter registered on its own registry, so Handler serves
// only trybeauth series.
func New(source Source) *Exporter {
	e := &Exporter{
		source:   source,
		registry: prom.NewRegistry(),
		counters: make([]*prom.Desc, len(internaldefs.CounterDefs)),
		latency:  prom.NewDesc(internaldefs.LatencyName, internaldefs.LatencyHelp, nil, nil),
		dropped:  prom.NewDesc(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, nil, nil),
	}
	for i, def := range internaldefs.CounterDefs {
		e.counters[i] = prom.NewDesc(def.Name, def.Help, nil, nil)
	}
	e.registry.MustRegister(e)
	return e
}

// Handler serves the exporter's registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry New registered the exporter on.
func (e *Exporter) Registry() *prom.Registry {
	return e.registry
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prom.Desc) {
	for _, d := range e.counters {
		ch <- d
	}
	ch <- e.latency
	ch <- e.dropped
}

// Collect implements prometheus.Collector. Nothing is emitted while metrics
// are disabled and no audit event was ever dropped.
func (e *Exporter) Collect(ch chan<- prom.Metric) {
	if e.source == nil {
		return
	}

	snapshot := e.source.MetricsSnapshot()
	dropped := e.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return
	}

	for i, def := range internaldefs.CounterDefs {
		ch <- prom.MustNewConstMetric(e.counters[i], prom.CounterValue, float64(snapshot.Counters[def.ID]))
	}

	if raw, ok := snapshot.Histograms[trybeauth.MetricAuthenticateLatency]; ok {
		cumulative := internaldefs.Cumulative(raw)
		last := len(internaldefs.LatencyBuckets) - 1
		buckets := make(map[float64]uint64, last)
		for i, b := range internaldefs.LatencyBuckets[:last] {
			buckets[b.Upper] = cumulative[i]
		}
		// The engine keeps bucket counts only, so the sum is always zero.
		ch <- prom.MustNewConstHistogram(e.latency, cumulative[last], 0, buckets)
	}

	ch <- prom.MustNewConstMetric(e.dropped, prom.CounterValue, float64(dropped))
}
