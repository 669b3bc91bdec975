// Package observability provides prometheus collectors and OpenTelemetry
// tracing setup for the application.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fixpoint_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// StatusTransitions counts service-request status transitions by target status.
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fixpoint_request_status_transitions_total",
		Help: "Total number of service request status transitions",
	}, []string{"status"})

	// RequestsCreated counts created service requests by kind.
	RequestsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fixpoint_requests_created_total",
		Help: "Total number of service requests created",
	}, []string{"kind"})

	// LoginLockouts counts login attempts rejected by the lockout limiter.
	LoginLockouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fixpoint_login_lockouts_total",
		Help: "Total number of login attempts rejected due to lockout",
	})

	// StatusEventsPublished counts status-changed events published to the broker.
	StatusEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fixpoint_status_events_published_total",
		Help: "Total number of status-changed events published",
	}, []string{"outcome"})
)
