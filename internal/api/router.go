// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

// Package api serves Rolekeeper's operational HTTP endpoints with chi:
//
//	GET /livez    process is up
//	GET /healthz  every registered health check passes (503 otherwise)
//	GET /metrics  Prometheus exposition
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/rolekeeper/internal/middleware"
)

// Router builds the operational HTTP handler.
type Router struct {
	checks   []namedCheck
	gatherer prometheus.Gatherer
	started  time.Time

	rateRequests int
	rateWindow   time.Duration
}

// Option configures a Router.
type Option func(*Router)

// WithCheck adds a named health check to /healthz.
func WithCheck(name string, check Check) Option {
	return func(r *Router) {
		r.checks = append(r.checks, namedCheck{name: name, check: check})
	}
}

// WithGatherer replaces the default Prometheus registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(r *Router) {
		r.gatherer = g
	}
}

// WithRateLimit limits each client IP to requests per window. A
// non-positive requests disables the limit.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(r *Router) {
		r.rateRequests = requests
		r.rateWindow = window
	}
}

// NewRouter creates a Router.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		gatherer: prometheus.DefaultGatherer,
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handler returns the chi handler for every route.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	if router.rateRequests > 0 {
		r.Use(httprate.LimitByIP(router.rateRequests, router.rateWindow))
	}

	r.Get("/livez", router.Live)
	r.Get("/healthz", router.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(router.gatherer, promhttp.HandlerOpts{}))

	return r
}
