// Package observability provides structured logging and Prometheus metrics.
//
// # Overview
//
// This package centralizes the logging and metrics used by the schema
// loader, the codec callers and the jobs client.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stderr)
//	logger.Info("schema loaded")
//
// Context-aware logging:
//
//	logger.WithField("session_id", id).WithError(err).Warn("schema rejected")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordDecode("structured")
//
// All Record* helpers are safe to call on a nil *Metrics, so callers can run
// with metrics disabled.
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/editor: Session logging and parse metrics
//   - pkg/jobs: Enqueue metrics
package observability
