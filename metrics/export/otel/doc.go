// Package otel publishes engine metrics through an OpenTelemetry Meter.
//
// Every engine counter becomes an Int64ObservableCounter. The Authenticate
// latency histogram is exposed as one cumulative Int64ObservableGauge with an
// "le" attribute per bucket plus a count gauge. A single callback reads the
// engine snapshot on each collection. Callers own the MeterProvider.
package otel
