// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

// Package metrics exposes Prometheus collectors for the pipeline:
// dispatcher admission and execution, recommendation refreshes, and
// database query performance.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatcher metrics
	JobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_jobs_enqueued_total",
			Help: "Total number of jobs admitted to the queue",
		},
		[]string{"kind"},
	)

	JobsCoalesced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_jobs_coalesced_total",
			Help: "Total number of duplicate triggers dropped by admission control",
		},
		[]string{"kind"},
	)

	JobsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_jobs_rejected_total",
			Help: "Total number of jobs rejected because the queue was full",
		},
		[]string{"kind"},
	)

	JobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_jobs_completed_total",
			Help: "Total number of jobs reaching a terminal state",
		},
		[]string{"kind", "status"}, // status: done, failed
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_job_duration_seconds",
			Help:    "Job execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Current number of jobs waiting in the queue",
		},
	)

	// Recommendation pipeline metrics
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_refresh_duration_seconds",
			Help:    "End-to-end recommendation refresh duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	RefreshesByStrategy = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_refreshes_total",
			Help: "Total recommendation refreshes by winning strategy",
		},
		[]string{"strategy"}, // hybrid, popularity
	)

	EmbeddingsComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_computations_total",
			Help: "Total embedding computations persisted",
		},
	)

	EmbeddingsUnavailable = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_unavailable_total",
			Help: "Total embedding computations skipped for missing source text",
		},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// TrackDBQuery records the duration of a database operation and returns a
// function to be deferred at the call site.
func TrackDBQuery(operation, table string) func(err error) {
	start := time.Now()
	return func(err error) {
		DBQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		if err != nil {
			DBQueryErrors.WithLabelValues(operation, table).Inc()
		}
	}
}
