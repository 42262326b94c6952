// Package prometheus exposes engine metrics through client_golang. The
// [Exporter] is a collector that reads the engine snapshot on every scrape;
// mount [Exporter.Handler] on a metrics route or register the exporter on an
// existing registry. Nothing is registered in the global registry.
package prometheus
