// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for the
// analysis service.
//
// # Description
//
// This package implements Prometheus metrics for monitoring the analysis
// pipeline. Metrics include:
//   - Request counters (by model and outcome)
//   - Upstream call latency histograms (by model)
//   - Upstream error counters (by model and reason)
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "passport"

// Subsystem for analysis metrics
const analysisSubsystem = "analysis"

// AnalysisMetrics holds all Prometheus metrics for the analysis pipeline.
//
// Initialize once at startup via InitMetrics(). All operations are
// thread-safe.
type AnalysisMetrics struct {
	// RequestsTotal counts analysis requests by model and outcome.
	// Labels: model (ethereum, nft, zksync, or "none" before resolution),
	// status (success, invalid_address, bad_model_name, upstream_error)
	RequestsTotal *prometheus.CounterVec

	// UpstreamLatencySeconds measures the duration of upstream model calls.
	// Labels: model
	UpstreamLatencySeconds *prometheus.HistogramVec

	// UpstreamErrorsTotal counts upstream call failures.
	// Labels: model, reason (http_status, transport)
	UpstreamErrorsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of AnalysisMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *AnalysisMetrics

// Status label values for RequestsTotal.
const (
	StatusSuccess        = "success"
	StatusInvalidAddress = "invalid_address"
	StatusBadModelName   = "bad_model_name"
	StatusUpstreamError  = "upstream_error"
)

// Reason label values for UpstreamErrorsTotal.
const (
	ReasonHTTPStatus = "http_status"
	ReasonTransport  = "transport"
)

// ModelNone is the model label used before a model name has been resolved.
const ModelNone = "none"

// InitMetrics initializes the default metrics instance.
//
// Creates and registers all metrics against the default Prometheus
// registry. Should be called exactly once at application startup;
// calling it twice panics with a duplicate registration error.
func InitMetrics() *AnalysisMetrics {
	DefaultMetrics = &AnalysisMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: analysisSubsystem,
				Name:      "requests_total",
				Help:      "Total number of analysis requests by model and status",
			},
			[]string{"model", "status"},
		),

		UpstreamLatencySeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: analysisSubsystem,
				Name:      "upstream_latency_seconds",
				Help:      "Duration of upstream model scoring calls in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"model"},
		),

		UpstreamErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: analysisSubsystem,
				Name:      "upstream_errors_total",
				Help:      "Total upstream scoring failures by model and reason",
			},
			[]string{"model", "reason"},
		),
	}

	return DefaultMetrics
}
