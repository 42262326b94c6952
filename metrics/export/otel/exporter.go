package otel

import (
	"context"
	"errors"
	"fmt"

	trybeauth "github.com/pististrybe/trybeauth"
	"github.com/pististrybe/trybeauth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is what the exporter reads on every collection. *trybeauth.Engine
// satisfies it.
type Source interface {
	MetricsSnapshot() trybeauth.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         trybeauth.MetricID
	instrument metric.Int64ObservableCounter
}

// Exporter holds the instruments and the callback registration.
type Exporter struct {
	source       Source
	registration metric.Registration

	counters      []observedCounter
	latencyBucket metric.Int64ObservableGauge
	latencyCount  metric.Int64ObservableGauge
	auditDropped  metric.Int64ObservableCounter
	bucketAttrs   [8]metric.ObserveOption
}

// New creates the instruments on meter and registers the collection callback.
func New(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{
		source:   source,
		counters: make([]observedCounter, 0, len(internaldefs.CounterDefs)),
	}
	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+3)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	var err error
	e.latencyBucket, err = meter.Int64ObservableGauge(
		internaldefs.LatencyName+"_bucket",
		metric.WithDescription(internaldefs.LatencyHelp+" Cumulative bucket counts."),
	)
	if err != nil {
		return nil, fmt.Errorf("create latency bucket gauge: %w", err)
	}
	e.latencyCount, err = meter.Int64ObservableGauge(
		internaldefs.LatencyName+"_count",
		metric.WithDescription(internaldefs.LatencyHelp+" Sample count."),
	)
	if err != nil {
		return nil, fmt.Errorf("create latency count gauge: %w", err)
	}
	e.auditDropped, err = meter.Int64ObservableCounter(
		internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	observables = append(observables, e.latencyBucket, e.latencyCount, e.auditDropped)

	for i, bucket := range internaldefs.LatencyBuckets {
		e.bucketAttrs[i] = metric.WithAttributes(attribute.String("le", bucket.LE))
	}

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *Exporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}

	if raw, ok := snapshot.Histograms[trybeauth.MetricAuthenticateLatency]; ok {
		cumulative := internaldefs.Cumulative(raw)
		for i, v := range cumulative {
			observer.ObserveInt64(e.latencyBucket, int64(v), e.bucketAttrs[i])
		}
		observer.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]))
	}

	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the callback. The instruments stay on the meter.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
