// Package instrumentation wires OpenTelemetry metrics with a Prometheus
// exporter.
//
// The Provider owns the meter provider lifecycle and exposes a Metrics
// recorder plus the Prometheus exporter for the /metrics endpoint. All
// recorder methods are safe on a zero-value Metrics, so callers never need
// to branch on whether instrumentation is enabled.
package instrumentation
