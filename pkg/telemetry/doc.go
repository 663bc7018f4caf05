// Package telemetry groups the observability packages: structured logging
// (telemetry/logging) and Prometheus metrics (telemetry/metrics).
package telemetry
