// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/recshelf/recshelf/internal/metrics"
)

// requestMetrics records Prometheus counters and latency per route pattern.
// The pattern, not the raw path, keeps label cardinality bounded.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				pattern = p
			}
		}

		metrics.APIRequestsTotal.WithLabelValues(
			r.Method, pattern, strconv.Itoa(ww.Status())).Inc()
		metrics.APIRequestDuration.WithLabelValues(
			r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}
